package lemma

import (
	"fmt"
	"unicode"

	"github.com/kljensen/snowball"
)

// Supported snowball languages.
const (
	English = "english"
	Russian = "russian"
)

// Static and compile-time check to ensure SnowballLemmatizer implements
// Lemmatizer interface.
var _ Lemmatizer = (*SnowballLemmatizer)(nil)

// SnowballLemmatizer stems the tokens written in the script of its language
// and drops that language's stop words. Tokens in any other script are kept
// unchanged.
type SnowballLemmatizer struct {
	language  string
	script    *unicode.RangeTable
	stopWords map[string]struct{}
}

// NewSnowball returns a SnowballLemmatizer for the provided language.
func NewSnowball(language string) (*SnowballLemmatizer, error) {
	var (
		script *unicode.RangeTable
		words  []string
	)

	switch language {
	case English:
		script, words = unicode.Latin, englishStopWords
	case Russian:
		script, words = unicode.Cyrillic, russianStopWords
	default:
		return nil, fmt.Errorf("snowball: unsupported language %q", language)
	}

	stopWords := make(map[string]struct{}, len(words))
	for _, w := range words {
		stopWords[w] = struct{}{}
	}

	return &SnowballLemmatizer{language: language, script: script, stopWords: stopWords}, nil
}

// Lemmatize tokenizes text and stems every token written in the
// lemmatizer's script.
func (l *SnowballLemmatizer) Lemmatize(text string) []string {
	tokens := Tokenize(text)
	lemmas := make([]string, 0, len(tokens))

	for _, token := range tokens {
		if !l.inScript(token) {
			lemmas = append(lemmas, token)

			continue
		}

		if _, stop := l.stopWords[token]; stop {
			continue
		}

		stemmed, err := snowball.Stem(token, l.language, true)
		if err != nil || stemmed == "" {
			stemmed = token
		}

		lemmas = append(lemmas, stemmed)
	}

	return lemmas
}

func (l *SnowballLemmatizer) inScript(token string) bool {
	for _, r := range token {
		if !unicode.Is(l.script, r) {
			return false
		}
	}

	return true
}

var englishStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from",
	"has", "have", "he", "her", "his", "i", "if", "in", "into", "is", "it",
	"its", "of", "on", "or", "she", "so", "than", "that", "the", "their",
	"them", "then", "there", "these", "they", "this", "to", "was", "we",
	"were", "what", "when", "which", "who", "will", "with", "you", "your",
}

var russianStopWords = []string{
	"а", "без", "бы", "в", "во", "вот", "да", "для", "до", "же", "за", "и",
	"из", "или", "к", "как", "ко", "ли", "на", "над", "не", "ни", "но", "о",
	"об", "от", "по", "под", "при", "про", "с", "со", "так", "то", "у", "что",
	"это", "я", "он", "она", "оно", "они", "мы", "вы", "ты",
}
