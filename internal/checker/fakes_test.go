package checker

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
)

// fakeScorer returns a fixed similarity.
type fakeScorer struct {
	score float64
	err   error
}

func (f fakeScorer) Similarity(context.Context, string, string) (float64, error) {
	return f.score, f.err
}

// blockingScorer never answers before its context ends.
type blockingScorer struct{}

func (blockingScorer) Similarity(ctx context.Context, _, _ string) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

// fakeClassifier classifies by substring: fragments containing a key of
// langs are that language, everything else is English.
type fakeClassifier struct {
	langs map[string]string
	err   error
}

func (f fakeClassifier) Classify(_ context.Context, text string) (string, float64, error) {
	if f.err != nil {
		return "", 0, f.err
	}
	for marker, lang := range f.langs {
		if strings.Contains(text, marker) {
			return lang, 0.99, nil
		}
	}
	return "en", 0.99, nil
}

// fakeExtractor returns the same text for every image and counts calls.
type fakeExtractor struct {
	text  string
	err   error
	calls *atomic.Int32
}

func (f fakeExtractor) Extract(context.Context, string) (string, error) {
	if f.calls != nil {
		f.calls.Add(1)
	}
	return f.text, f.err
}

// panickingExtractor panics on every call.
type panickingExtractor struct{}

func (panickingExtractor) Extract(context.Context, string) (string, error) {
	panic("decoder crashed")
}

// withSimilarity replaces the similarity scorer, including with nil.
func withSimilarity(s TextSimilarityScorer) func(*Options) {
	return func(o *Options) {
		o.Similarity = s
	}
}

func withExtractor(e TextExtractor) func(*Options) {
	return func(o *Options) {
		o.TextExtractor = e
	}
}

func withClassifier(c LanguageClassifier) func(*Options) {
	return func(o *Options) {
		o.Language = c
	}
}

// check runs the single checker name over markup loaded from "page.html".
func check(t *testing.T, name, markup string, opts ...func(*Options)) []model.Incidence {
	t.Helper()
	return checkPage(t, name, "page.html", markup, opts...)
}

func checkPage(t *testing.T, name, source, markup string, opts ...func(*Options)) []model.Incidence {
	t.Helper()

	reg := NewRegistry(opts...).Only(name)
	if reg.Len() != 1 {
		t.Fatalf("checker %q is not registered", name)
	}
	incidences, err := reg.Checkers()[0].Check(context.Background(), dom.Parse(source, markup), source)
	if err != nil {
		t.Fatalf("%s: Check() error = %v", name, err)
	}
	for _, inc := range incidences {
		if inc.Checker != name {
			t.Errorf("incidence %q attributed to %q, want %q", inc.Title, inc.Checker, name)
		}
		if inc.Source != source {
			t.Errorf("incidence %q has source %q, want %q", inc.Title, inc.Source, source)
		}
	}
	return incidences
}

// withTitle returns the incidences whose title is title.
func withTitle(incidences []model.Incidence, title string) []model.Incidence {
	var out []model.Incidence
	for _, inc := range incidences {
		if inc.Title == title {
			out = append(out, inc)
		}
	}
	return out
}

func titles(incidences []model.Incidence) []string {
	out := make([]string, 0, len(incidences))
	for _, inc := range incidences {
		out = append(out, inc.Title)
	}
	return out
}
