package ir

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ErrInvalidLanguage is returned for language tags that are not well-formed BCP 47.
var ErrInvalidLanguage = errors.New("invalid language tag")

// CanonicalLanguage validates a language tag and returns its stored form.
// Well-formed tags with subtags unknown to the CLDR registry are accepted;
// only syntactically broken tags are rejected.
func CanonicalLanguage(tag string) (string, error) {
	if tag == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidLanguage)
	}
	for i, part := range strings.Split(tag, "-") {
		if len(part) == 0 || len(part) > 8 {
			return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, tag)
		}
		for j := 0; j < len(part); j++ {
			c := part[j]
			alpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
			if !alpha && (i == 0 || c < '0' || c > '9') {
				return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, tag)
			}
		}
	}
	if _, err := language.Parse(tag); err != nil {
		var unknown language.ValueError
		if !errors.As(err, &unknown) {
			return "", fmt.Errorf("%w: %q: %v", ErrInvalidLanguage, tag, err)
		}
	}
	return strings.ToLower(tag), nil
}
