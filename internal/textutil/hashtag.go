package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HashtagKey folds a hashtag or topic label into a comparison key: the leading
// '#' is dropped, letters are lowercased and separators removed, so "#Number-Theory",
// "numbertheory" and "Number Theory" compare equal.
func HashtagKey(value string) string {
	value = strings.TrimPrefix(strings.TrimSpace(value), "#")
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// CamelHashtag turns a label such as "pure-mathematics" or "machine learning"
// into a hashtag body ("PureMathematics"). Empty input yields "".
func CamelHashtag(label string) string {
	caser := cases.Title(language.English)
	fields := strings.FieldsFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, field := range fields {
		b.WriteString(caser.String(field))
	}
	return b.String()
}

// TitleWords title-cases a file stem such as "number_theory-basics" into
// "Number Theory Basics".
func TitleWords(stem string) string {
	caser := cases.Title(language.English)
	fields := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, field := range fields {
		fields[i] = caser.String(field)
	}
	return strings.Join(fields, " ")
}
