package parserbuilder

import (
	"fmt"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/ir"
)

// emitSwitch implements the `Switch(e)` row of §4.4's table: evaluate the
// discriminant, dispatch to the matching case body, or raise ParseError if
// none matches and no default was declared (end-to-end scenario 4).
func (pb *Builder) emitSwitch(p *ast.Switch, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	v, err := p.Expr.Eval(sc)
	if err != nil {
		return err
	}
	tag := fmt.Sprint(v)

	for _, c := range p.Cases {
		for _, candidate := range c.Values {
			if fmt.Sprint(candidate) == tag {
				return pb.emit(c.Body, blk, u, obj, sc)
			}
		}
	}
	if p.Default != nil {
		return pb.emit(p.Default, blk, u, obj, sc)
	}
	return &ir.ParseError{Reason: "no matching switch case", Offset: blk.Pos()}
}
