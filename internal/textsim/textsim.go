// Package textsim scores the semantic overlap of two short texts.
//
// The default Scorer is a bag-of-words cosine similarity over case-folded
// word counts. It is a lightweight stand-in for sentence embeddings: good
// enough to tell "Company logo" next to the caption "Company logo" from an
// unrelated caption, not good enough to match paraphrases.
package textsim

import (
	"context"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Scorer computes cosine similarity between word-count vectors.
// A Scorer is safe for concurrent use.
type Scorer struct {
	stop map[string]bool
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithStopWords excludes words from both vectors.
func WithStopWords(words ...string) Option {
	return func(s *Scorer) {
		for _, w := range words {
			s.stop[cases.Fold().String(w)] = true
		}
	}
}

// New returns a Scorer.
func New(opts ...Option) *Scorer {
	s := &Scorer{stop: make(map[string]bool)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Similarity returns the cosine similarity of a and b in [0, 1]. Either
// text being empty yields 0.
func (s *Scorer) Similarity(ctx context.Context, a, b string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	va := s.vector(a)
	vb := s.vector(b)
	if len(va) == 0 || len(vb) == 0 {
		return 0, nil
	}

	var dot, na, nb float64
	for w, ca := range va {
		na += ca * ca
		if cb, ok := vb[w]; ok {
			dot += ca * cb
		}
	}
	for _, cb := range vb {
		nb += cb * cb
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Min(sim, 1), nil
}

// Words splits text into case-folded words, dropping punctuation.
func (s *Scorer) Words(text string) []string {
	// Casers are stateful, so each call folds with its own.
	fields := strings.FieldsFunc(cases.Fold().String(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	words := fields[:0]
	for _, f := range fields {
		if !s.stop[f] {
			words = append(words, f)
		}
	}
	return words
}

func (s *Scorer) vector(text string) map[string]float64 {
	v := make(map[string]float64)
	for _, w := range s.Words(text) {
		v[w]++
	}
	return v
}
