// Package resync implements the Synchronizer: on a &synchronize-annotated
// production, scan forward in the input to the next byte offset at which
// the production's first terminal could validly begin, and resume parsing
// there, per §4.3.
package resync

import (
	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/litmatch"
	"github.com/binpac-dev/corepac/internal/tracelog"
	"github.com/binpac-dev/corepac/ir"
)

// Limiter bounds how many candidate offsets [Synchronize] will try before
// giving up, per the original source's bounded retry counter (see
// SUPPLEMENTED FEATURES). The zero value is unbounded, matching the
// distilled spec's silence on a bound.
type Limiter struct {
	Max int
}

func (l Limiter) allows(attempt int) bool { return l.Max <= 0 || attempt < l.Max }

// ErrNeedMoreInput is returned by [Synchronize] when the scan has reached
// the end of currently-available input but the input is not frozen, so the
// caller should feed more bytes and retry from the returned offset.
type ErrNeedMoreInput struct{ At int }

func (e *ErrNeedMoreInput) Error() string { return "resync: need more input" }

// SupportsSynchronize is the static predicate from §4.3: a Loop body or a
// literal-headed alternative supports synchronization; an opaque Variable
// generally does not, since it has no fixed first terminal to scan for.
func SupportsSynchronize(p ast.Production) bool {
	return len(FirstTerminals(p)) > 0
}

// FirstTerminals computes the first-terminal set of a production: the set
// of terminals that could validly begin a successful parse of it. Used both
// to decide [SupportsSynchronize] and to drive the forward scan in
// [Synchronize].
func FirstTerminals(p ast.Production) []ast.Terminal {
	switch p := p.(type) {
	case *ast.Literal:
		return []ast.Terminal{p.Token}
	case *ast.Sequence:
		for _, child := range p.Items {
			if terms := FirstTerminals(child); len(terms) > 0 {
				return terms
			}
			if !nullable(child) {
				break
			}
		}
		return nil
	case *ast.LookAhead:
		return append(append([]ast.Terminal{}, p.TokensA...), p.TokensB...)
	case *ast.Loop:
		return FirstTerminals(p.Body)
	case *ast.Counter:
		return FirstTerminals(p.Body)
	case *ast.ByteBlock:
		return FirstTerminals(p.Body)
	case *ast.Enclosure:
		return FirstTerminals(p.Child)
	default:
		return nil
	}
}

// nullable is a conservative approximation of "may match the empty string",
// used only to decide whether to keep looking past a Sequence element for
// first terminals.
func nullable(p ast.Production) bool {
	switch p := p.(type) {
	case *ast.Epsilon, *ast.Boolean:
		return true
	case *ast.Loop:
		return p.EODOk
	default:
		return false
	}
}

// Synchronize scans data[cur:] for the next offset at which prod's first
// terminal could validly begin, per §4.3. It returns the recovery offset,
// or an error: [ErrNeedMoreInput] if the scan has run out of currently
// buffered bytes without a frozen input to declare failure against, or a
// [ir.ParseError] ("cannot synchronize") if prod has no first terminals or
// the remaining frozen input is exhausted.
func Synchronize(data []byte, frozen bool, cur int, prod ast.Production, lim Limiter) (int, error) {
	terms := FirstTerminals(prod)
	if len(terms) == 0 {
		return 0, &ir.ParseError{Reason: "cannot synchronize", Offset: cur}
	}

	attempt := 0
	for pos := cur; ; pos++ {
		if !lim.allows(attempt) {
			return 0, &ir.ParseError{Reason: "cannot synchronize: retry limit exceeded", Offset: pos}
		}
		if pos > len(data) {
			if frozen {
				return 0, &ir.ParseError{Reason: "cannot synchronize", Offset: pos}
			}
			return 0, &ErrNeedMoreInput{At: pos}
		}

		res := litmatch.Match(data[pos:], frozen, terms)
		switch res.Status {
		case litmatch.StatusMatched, litmatch.StatusAmbiguous:
			tracelog.Log(nil, "sync", "resynchronized at %d after %d attempts", pos, attempt)
			return pos, nil
		case litmatch.StatusInsufficient:
			return 0, &ErrNeedMoreInput{At: pos}
		}
		attempt++
	}
}
