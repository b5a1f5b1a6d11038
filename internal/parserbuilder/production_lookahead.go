package parserbuilder

import (
	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/ir"
)

// emitLookAhead implements the `LookAhead(alt_a, alt_b)` row of §4.4's
// table: resolve one token via [ir.Block.MatchLiteral] over the union of
// both alternatives' first terminals, then dispatch to the matching
// alternative, the default, or — when neither alternative declares tokens
// (both are effectively epsilon) — whichever alternative is present.
func (pb *Builder) emitLookAhead(p *ast.LookAhead, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	terms := append(append([]ir.Terminal{}, p.TokensA...), p.TokensB...)

	if len(terms) == 0 {
		switch {
		case p.AltA != nil:
			return pb.emit(p.AltA, blk, u, obj, sc)
		case p.AltB != nil:
			return pb.emit(p.AltB, blk, u, obj, sc)
		case p.Default != nil:
			return pb.emit(p.Default, blk, u, obj, sc)
		default:
			return &ir.ParseError{Reason: "expected symbols not found", Offset: blk.Pos()}
		}
	}

	token, consumed, err := blk.MatchLiteral(terms)
	if err != nil {
		if p.Default != nil {
			return pb.emit(p.Default, blk, u, obj, sc)
		}
		return err
	}
	if token == 0 && p.Default == nil {
		return &ir.ParseError{Reason: "expected symbols not found", Offset: blk.Pos()}
	}
	return pb.chooseAlt(p, token, consumed, blk, u, obj, sc)
}

// chooseAlt dispatches to whichever alternative's first-terminal set the
// resolved token belongs to, with that token (and its matched bytes)
// recorded on sc as the pending look-ahead (§3's parser state) for the
// duration of the dispatch. The alternative, if headed by the matching
// [ast.Literal], reads it back via emitLiteral instead of re-matching
// bytes MatchLiteral already consumed above.
func (pb *Builder) chooseAlt(p *ast.LookAhead, token int, consumed []byte, blk ir.Block, u *ast.Unit, obj *ir.Object, sc *scope) error {
	sc.pendingLA, sc.pendingLABytes = token, consumed
	defer func() { sc.pendingLA, sc.pendingLABytes = 0, nil }()

	if matchesToken(p.TokensA, token) {
		return pb.emit(p.AltA, blk, u, obj, sc)
	}
	if matchesToken(p.TokensB, token) {
		return pb.emit(p.AltB, blk, u, obj, sc)
	}
	if p.Default != nil {
		return pb.emit(p.Default, blk, u, obj, sc)
	}
	return &ir.InternalError{Reason: "parserbuilder: look-ahead resolved to an unexpected token"}
}

func matchesToken(terms []ir.Terminal, token int) bool {
	for _, t := range terms {
		if t.Token == token {
			return true
		}
	}
	return false
}
