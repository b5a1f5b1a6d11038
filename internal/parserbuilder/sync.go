package parserbuilder

import (
	"errors"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/resync"
	"github.com/binpac-dev/corepac/ir"
)

// synchronize scans forward from the current position for prod's first
// terminal (§4.3), blocking for more input via [ir.Block.Yield] as needed,
// and advances blk to the recovery offset on success.
func (pb *Builder) synchronize(blk ir.Block, prod ast.Production) error {
	for {
		data := blk.Buffered()
		pos, err := resync.Synchronize(data, blk.Frozen(), 0, prod, resync.Limiter{})
		if err == nil {
			blk.Reset(blk.Pos() + pos)
			return nil
		}
		var need *resync.ErrNeedMoreInput
		if errors.As(err, &need) {
			if yErr := blk.Yield(need.At+1, true); yErr != nil {
				return yErr
			}
			continue
		}
		return err
	}
}
