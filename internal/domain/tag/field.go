package tag

import "strings"

// Field is the logical name of the tag field in filter expressions.
// Localized collections address one locale as "tags.<locale>".
const Field = "tags"

// LocaleField returns the logical field for a locale; an empty locale yields Field.
func LocaleField(locale string) string {
	if locale == "" {
		return Field
	}
	return Field + "." + locale
}

// SplitField parses a logical field name. ok is false for keys that are not tag fields.
func SplitField(key string) (locale string, ok bool) {
	if key == Field {
		return "", true
	}
	loc, found := strings.CutPrefix(key, Field+".")
	if !found || loc == "" {
		return "", false
	}
	return loc, true
}
