package parserbuilder

import (
	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/ir"
)

// emitLiteral implements the `Literal` row of §4.4's per-production table:
// match the expected terminal at the current position, or — if a
// look-ahead token is already pending — confirm it resolved to this
// literal and skip re-matching, since [ir.Block.MatchLiteral] already
// consumed the bytes while resolving the look-ahead (the LAHEAD_REPARSE
// rule). A matched regex literal's actual bytes are stored under the
// literal's field, when it has one, so the composer can replay them on
// the way back out — a regex has no single canonical byte form to
// regenerate from.
func (pb *Builder) emitLiteral(p *ast.Literal, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	f := p.Meta().Field

	if sc != nil && sc.pendingLA != 0 {
		token, consumed := sc.pendingLA, sc.pendingLABytes
		sc.pendingLA, sc.pendingLABytes = 0, nil
		if token != p.Token.Token {
			return &ir.InternalError{Reason: "parserbuilder: pending look-ahead token does not match literal"}
		}
		if f != nil {
			pb.tl.Set(blk, u, obj, f, ir.BytesValue(consumed))
		}
		return nil
	}

	if p.Token.Regex != "" {
		token, consumed, err := blk.MatchLiteral([]ir.Terminal{p.Token})
		if err != nil {
			return err
		}
		if token == 0 {
			return &ir.ParseError{Reason: "literal mismatch", Offset: blk.Pos()}
		}
		if f != nil {
			pb.tl.Set(blk, u, obj, f, ir.BytesValue(consumed))
		}
		return nil
	}

	ok, err := blk.MatchExact(p.Token.Bytes)
	if err != nil {
		return err
	}
	if !ok {
		return &ir.ParseError{Reason: "literal mismatch", Offset: blk.Pos()}
	}
	return nil
}
