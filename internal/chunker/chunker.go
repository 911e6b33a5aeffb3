// Package chunker splits extracted document text into token-bounded chunks.
package chunker

import (
	"iter"
	"math"
	"strings"
	"unicode"
)

// DefaultTokenBudget is the target number of estimated tokens per chunk.
const DefaultTokenBudget = 900

// charsPerToken is the byte-length to token ratio used for estimation.
const charsPerToken = 3.5

// Piece is one chunk of text with its estimated token count.
type Piece struct {
	Content    string
	TokenCount int
}

// Chunker accumulates sentences into pieces up to a token budget.
type Chunker struct {
	budget int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithTokenBudget sets the per-chunk token budget. Non-positive values are ignored.
func WithTokenBudget(tokens int) Option {
	return func(c *Chunker) {
		if tokens > 0 {
			c.budget = tokens
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{budget: DefaultTokenBudget}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TokenBudget returns the configured budget.
func (c *Chunker) TokenBudget() int { return c.budget }

// EstimateTokens approximates the token count of s as ceil(len(s) / 3.5).
func EstimateTokens(s string) int {
	return int(math.Ceil(float64(len(s)) / charsPerToken))
}

// Chunks yields pieces of text in order. The sequence is single-pass.
//
// A sentence is never split: one whose own estimate exceeds the budget is
// emitted alone and exceeds it.
func (c *Chunker) Chunks(text string) iter.Seq[Piece] {
	return func(yield func(Piece) bool) {
		var buf string
		for sentence := range Sentences(text) {
			candidate := sentence
			if buf != "" {
				candidate = buf + " " + sentence
			}
			if EstimateTokens(candidate) > c.budget && buf != "" {
				if p, ok := piece(buf); ok && !yield(p) {
					return
				}
				buf = sentence
				continue
			}
			buf = candidate
		}
		if p, ok := piece(buf); ok {
			yield(p)
		}
	}
}

// Split collects Chunks into a slice.
func (c *Chunker) Split(text string) []Piece {
	var out []Piece
	for p := range c.Chunks(text) {
		out = append(out, p)
	}
	return out
}

func piece(buf string) (Piece, bool) {
	content := strings.TrimSpace(buf)
	if content == "" {
		return Piece{}, false
	}
	return Piece{Content: content, TokenCount: EstimateTokens(content)}, true
}

// Sentences yields sentences split after '.', '!' or '?' when followed by whitespace.
// Terminal punctuation stays with its sentence; the separating whitespace is dropped.
func Sentences(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := 0
		for i := 0; i < len(text); i++ {
			if !isTerminal(text[i]) {
				continue
			}
			end := i + 1
			next := end
			for next < len(text) && isSpace(text[next]) {
				next++
			}
			if next == end {
				continue
			}
			if s := strings.TrimSpace(text[start:end]); s != "" && !yield(s) {
				return
			}
			start = next
			i = next - 1
		}
		if s := strings.TrimSpace(text[start:]); s != "" {
			yield(s)
		}
	}
}

func isTerminal(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	return b < 0x80 && unicode.IsSpace(rune(b))
}
