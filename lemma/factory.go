package lemma

import "fmt"

// PlainLanguage selects the Plain lemmatizer.
const PlainLanguage = "plain"

// New returns the Lemmatizer registered for language.
func New(language string) (Lemmatizer, error) {
	switch language {
	case PlainLanguage, "":
		return Plain, nil
	case English, Russian:
		return NewSnowball(language)
	case Japanese:
		return NewKagome()
	default:
		return nil, fmt.Errorf("unknown lemmatizer %q", language)
	}
}
