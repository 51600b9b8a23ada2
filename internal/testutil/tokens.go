package testutil

import (
	"fmt"
	"sync"
)

// FixedGenerator returns predetermined tokens in order.
//
// Implements store.TokenGenerator. Panics once the tokens run out so that
// a test creating more stores or subscribers than it planned fails loudly.
//
// Thread-safety: FixedGenerator is safe for concurrent use.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedGenerator creates a generator that returns tokens in order.
//
//	gen := NewFixedGenerator("a", "b")
//	gen.Generate() // "a"
//	gen.Generate() // "b"
//	gen.Generate() // panic
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate returns the next token.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}

// CountingGenerator returns prefix-1, prefix-2, ... without limit.
//
// Thread-safety: CountingGenerator is safe for concurrent use.
type CountingGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewCountingGenerator creates a counting generator. An empty prefix
// becomes "test".
func NewCountingGenerator(prefix string) *CountingGenerator {
	if prefix == "" {
		prefix = "test"
	}
	return &CountingGenerator{prefix: prefix}
}

// Generate returns the next numbered token.
func (g *CountingGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
