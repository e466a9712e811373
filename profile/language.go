package profile

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SupportedLanguages are the language codes accepted on the command line and in list files.
var SupportedLanguages = []string{"dutch", "german", "french", "spanish", "italian", "swedish"}

// IsSupportedLanguage reports whether the language code is known.
func IsSupportedLanguage(language string) bool {
	for _, l := range SupportedLanguages {
		if l == language {
			return true
		}
	}
	return false
}

// DisplayName capitalizes a language code: "spanish" becomes "Spanish".
func DisplayName(language string) string {
	if language == "" {
		return ""
	}
	lower := strings.ToLower(language)
	r, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(r)) + lower[size:]
}
