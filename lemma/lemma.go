/*
	lemma package turns free text into normalized word forms (lemmas). The
	same Lemmatizer must be used at indexing and at query time so that the
	forms produced for documents and queries line up.
*/

package lemma

//go:generate mockgen -package mocks -destination mocks/mock_lemma.go github.com/mycok/siteSearch/lemma Lemmatizer

import (
	"regexp"
	"strings"
)

var nonLetterRegex = regexp.MustCompile(`\P{L}+`)

// Lemmatizer is implemented by types that reduce text to an ordered list of
// lowercased lemmas. Duplicates are preserved and blank entries are never
// returned.
type Lemmatizer interface {
	Lemmatize(text string) []string
}

// Func adapts a plain function to the Lemmatizer interface.
type Func func(text string) []string

// Lemmatize calls f(text).
func (f Func) Lemmatize(text string) []string {
	return f(text)
}

// Plain is a Lemmatizer that returns the lowercased letter runs of the text
// without any further normalization.
var Plain Lemmatizer = Func(Tokenize)

// Tokenize lowercases text and splits it on every run of non-letter
// characters, ie: "Hello, World-2x" -> ["hello", "world", "x"].
func Tokenize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	parts := nonLetterRegex.Split(strings.ToLower(text), -1)
	tokens := parts[:0]

	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}

	return tokens
}
