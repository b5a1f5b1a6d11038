package litmatch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/binpac-dev/corepac/ast"
	"github.com/binpac-dev/corepac/internal/litmatch"
)

func TestMatchLongestWins(t *testing.T) {
	t.Parallel()

	terms := []ast.Terminal{
		{Token: 1, Bytes: []byte("fo")},
		{Token: 2, Bytes: []byte("foo")},
	}

	res := litmatch.Match([]byte("foobar"), true, terms)
	assert.Equal(t, litmatch.StatusMatched, res.Status)
	assert.Equal(t, 2, res.Token)
	assert.Equal(t, 3, res.Length)
}

func TestMatchAmbiguousRegardlessOfOrder(t *testing.T) {
	t.Parallel()

	// Same terminal declared twice under two distinct alternatives: tie at
	// equal length with distinct token ids is ambiguous, even though in
	// this case the bytes are literally identical.
	declOrders := [][]ast.Terminal{
		{{Token: 1, Bytes: []byte("foo")}, {Token: 2, Bytes: []byte("foo")}},
		{{Token: 2, Bytes: []byte("foo")}, {Token: 1, Bytes: []byte("foo")}},
	}

	for _, terms := range declOrders {
		res := litmatch.Match([]byte("foobar"), true, terms)
		assert.Equal(t, litmatch.StatusAmbiguous, res.Status)
	}
}

func TestMatchNotFound(t *testing.T) {
	t.Parallel()

	terms := []ast.Terminal{{Token: 1, Bytes: []byte("xyz")}}
	res := litmatch.Match([]byte("abc"), true, terms)
	assert.Equal(t, litmatch.StatusNotFound, res.Status)
}

func TestMatchInsufficientOnShortPrefix(t *testing.T) {
	t.Parallel()

	terms := []ast.Terminal{{Token: 1, Bytes: []byte("foobar")}}

	res := litmatch.Match([]byte("foo"), false, terms)
	assert.Equal(t, litmatch.StatusInsufficient, res.Status)

	// Once frozen, a short prefix can never complete: resolved as not found.
	res = litmatch.Match([]byte("foo"), true, terms)
	assert.Equal(t, litmatch.StatusNotFound, res.Status)
}

func TestMatchRegexTerminal(t *testing.T) {
	t.Parallel()

	terms := []ast.Terminal{{Token: 3, Regex: `[0-9]+`}}

	// Match runs to the end of available input and input isn't frozen:
	// more digits could still arrive, so this is unresolved.
	res := litmatch.Match([]byte("123"), false, terms)
	assert.Equal(t, litmatch.StatusInsufficient, res.Status)

	// Non-digit follows within the buffer: the regex match is final.
	res = litmatch.Match([]byte("123x"), false, terms)
	assert.Equal(t, litmatch.StatusMatched, res.Status)
	assert.Equal(t, 3, res.Length)

	// Frozen: the match to end-of-buffer is as final as it'll ever get.
	res = litmatch.Match([]byte("123"), true, terms)
	assert.Equal(t, litmatch.StatusMatched, res.Status)
	assert.Equal(t, 3, res.Length)
}
