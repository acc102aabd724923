package lemma

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// Japanese selects the kagome backed lemmatizer.
const Japanese = "japanese"

// IPA dictionary feature positions.
const (
	featurePOS      = 0
	featureBaseForm = 6
)

// contentPOS lists the parts of speech that carry meaning on their own.
// Particles, auxiliary verbs and symbols are dropped.
var contentPOS = map[string]struct{}{
	"名詞":  {},
	"動詞":  {},
	"形容詞": {},
	"副詞":  {},
}

// Static and compile-time check to ensure KagomeLemmatizer implements
// Lemmatizer interface.
var _ Lemmatizer = (*KagomeLemmatizer)(nil)

// KagomeLemmatizer reduces Japanese text to the dictionary form of its
// content words using the kagome morphological analyzer.
type KagomeLemmatizer struct {
	t *tokenizer.Tokenizer
}

// NewKagome returns a KagomeLemmatizer backed by the IPA dictionary.
func NewKagome() (*KagomeLemmatizer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}

	return &KagomeLemmatizer{t: t}, nil
}

// Lemmatize returns the base form of every content word of text, falling
// back to the surface form when the dictionary has none.
func (l *KagomeLemmatizer) Lemmatize(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var lemmas []string

	for _, token := range l.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}

		features := token.Features()
		if len(features) > featurePOS {
			if _, ok := contentPOS[features[featurePOS]]; !ok {
				continue
			}
		}

		base := token.Surface
		if len(features) > featureBaseForm && features[featureBaseForm] != "*" {
			base = features[featureBaseForm]
		}

		// Symbols tagged as nouns (ie: unknown punctuation runs) carry no
		// letters and are skipped.
		if len(Tokenize(base)) == 0 {
			continue
		}

		lemmas = append(lemmas, strings.ToLower(base))
	}

	return lemmas
}
