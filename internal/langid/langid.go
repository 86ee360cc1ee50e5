// Package langid identifies the language of short text fragments.
//
// Classifier scores fragments against stop-word profiles. It is meant for
// the page-language check, where fragments are headings, labels and
// paragraphs: stop words dominate such text and are cheap to match.
package langid

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Undetermined is returned when no profile matches.
const Undetermined = "und"

// Classifier identifies the language of text. It is safe for concurrent use
// once constructed.
type Classifier struct {
	profiles []profile
	index    map[string][]int
}

type profile struct {
	tag   language.Tag
	words []string
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithProfile adds or replaces the stop words of a language. Invalid tags
// are ignored.
func WithProfile(tag string, words ...string) Option {
	return func(c *Classifier) {
		t, err := language.Parse(tag)
		if err != nil {
			return
		}
		for i := range c.profiles {
			if c.profiles[i].tag == t {
				c.profiles[i].words = words
				return
			}
		}
		c.profiles = append(c.profiles, profile{tag: t, words: words})
	}
}

// New returns a Classifier with the built-in profiles.
func New(opts ...Option) *Classifier {
	c := &Classifier{profiles: builtinProfiles()}
	for _, opt := range opts {
		opt(c)
	}

	c.index = make(map[string][]int)
	fold := cases.Fold()
	for i, p := range c.profiles {
		for _, w := range p.words {
			key := fold.String(w)
			c.index[key] = append(c.index[key], i)
		}
	}
	return c
}

// Languages returns the base language codes the classifier knows, sorted.
func (c *Classifier) Languages() []string {
	langs := make([]string, 0, len(c.profiles))
	for _, p := range c.profiles {
		langs = append(langs, Base(p.tag.String()))
	}
	sort.Strings(langs)
	return langs
}

// Classify returns the most likely base language code of text ("en", "es")
// and a confidence in [0, 1].
//
// A known word counts fully for every language whose profile has it. The
// language with the most matches wins; ties go to the language with more
// words no other profile shares, then to profile order. The confidence is
// the share of matched words consistent with the winner, divided by the
// number of languages that tie with it on both counts. Text with no known
// words yields Undetermined with confidence 0.
func (c *Classifier) Classify(ctx context.Context, text string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	scores := make([]int, len(c.profiles))
	unique := make([]int, len(c.profiles))
	matched := 0
	for _, w := range words(text) {
		langs := c.index[w]
		if len(langs) == 0 {
			continue
		}
		matched++
		for _, i := range langs {
			scores[i]++
		}
		if len(langs) == 1 {
			unique[langs[0]]++
		}
	}
	if matched == 0 {
		return Undetermined, 0, nil
	}

	best := 0
	for i := range scores {
		if scores[i] > scores[best] || (scores[i] == scores[best] && unique[i] > unique[best]) {
			best = i
		}
	}
	tied := 0
	for i := range scores {
		if scores[i] == scores[best] && unique[i] == unique[best] {
			tied++
		}
	}
	confidence := float64(scores[best]) / float64(matched) / float64(tied)
	return Base(c.profiles[best].tag.String()), confidence, nil
}

// Base reduces a BCP 47 tag such as "en-US" or "ES_es" to its lower-case
// base language. Unparseable tags are lower-cased and cut at the first
// separator.
func Base(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	if t, err := language.Parse(strings.ReplaceAll(tag, "_", "-")); err == nil {
		b, _ := t.Base()
		return b.String()
	}
	tag = strings.ToLower(tag)
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		return tag[:i]
	}
	return tag
}

func words(text string) []string {
	return strings.FieldsFunc(cases.Fold().String(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}
