// Package litmatch compiles literal and regular-expression terminals into a
// joint match-token automaton and drives the look-ahead algorithm that
// chooses among grammar alternatives, per §4.2.
//
// The real runtime's regex engine has genuinely incremental matching
// (match against a growing byte buffer, reporting "not enough input yet"
// without re-scanning from the start); that engine is one of the out-of-
// scope external collaborators (§1 lists "regex matching" among the
// runtime services the core consumes). [Match] approximates the same
// contract on top of [regexp], which has no such streaming API: a regex
// terminal whose match runs all the way to the end of the currently
// available bytes is treated as "not yet decided" unless the input is
// frozen, rather than committed to early.
package litmatch

import (
	"bytes"
	"regexp"
	"sort"
	"sync"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/tracelog"
)

var reCache sync.Map // pattern string -> *regexp.Regexp

func compile(pattern string) *regexp.Regexp {
	if re, ok := reCache.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`^(?:` + pattern + `)`)
	reCache.Store(pattern, re)
	return re
}

// Status is the outcome of one [Match] attempt.
type Status int

const (
	// StatusMatched means exactly one terminal matched at the longest
	// length; Token/Length describe it.
	StatusMatched Status = iota
	// StatusNotFound means no terminal matches the available input, and no
	// byte-literal terminal could still match if more input arrived. A regex
	// terminal that does not match the available bytes is dropped, even
	// when more input could complete a match for it.
	StatusNotFound
	// StatusInsufficient means more input could change the outcome.
	StatusInsufficient
	// StatusAmbiguous means two or more distinct terminals tied for the
	// longest match.
	StatusAmbiguous
)

// Result is the outcome of initMatch/advanceMatch/lookAhead's single
// combined step, as implemented here.
type Result struct {
	Status Status
	Token  int
	Length int
}

type candidate struct {
	token, length int
}

// Match runs the joint automaton for terminals against avail, the bytes
// currently buffered at the candidate production's start. frozen reports
// whether more bytes can ever arrive; when it cannot, a prefix match that
// ran out of buffer is resolved definitively instead of reported as
// insufficient.
func Match(avail []byte, frozen bool, terminals []ast.Terminal) Result {
	var candidates []candidate
	needMore := false

	for _, t := range terminals {
		if t.Regex != "" {
			re := compile(t.Regex)
			loc := re.FindIndex(avail)
			if loc == nil {
				continue
			}
			length := loc[1]
			if length == len(avail) && !frozen {
				needMore = true
				continue
			}
			candidates = append(candidates, candidate{t.Token, length})
			continue
		}

		lit := t.Bytes
		switch {
		case len(avail) >= len(lit):
			if bytes.Equal(avail[:len(lit)], lit) {
				candidates = append(candidates, candidate{t.Token, len(lit)})
			}
		case bytes.HasPrefix(lit, avail):
			if !frozen {
				needMore = true
			}
		}
	}

	tracelog.Log(nil, "match", "avail=%d frozen=%v candidates=%d needMore=%v",
		len(avail), frozen, len(candidates), needMore)

	if needMore {
		return Result{Status: StatusInsufficient}
	}
	if len(candidates) == 0 {
		return Result{Status: StatusNotFound}
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].length > candidates[j].length })
	best := candidates[0].length
	ties := candidates[:1]
	for _, c := range candidates[1:] {
		if c.length != best {
			break
		}
		ties = append(ties, c)
	}

	distinct := map[int]bool{}
	for _, c := range ties {
		distinct[c.token] = true
	}
	if len(distinct) > 1 {
		return Result{Status: StatusAmbiguous}
	}
	return Result{Status: StatusMatched, Token: ties[0].token, Length: ties[0].length}
}
