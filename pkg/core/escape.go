package core

import "strings"

// strings.Replacer matches every position once, so "%" is never re-escaped
// by a later substitution.
var (
	dataEscaper = strings.NewReplacer(
		"%", "%25",
		"\r", "%0D",
		"\n", "%0A",
	)
	propertyEscaper = strings.NewReplacer(
		"%", "%25",
		"\r", "%0D",
		"\n", "%0A",
		":", "%3A",
		",", "%2C",
	)
	dataUnescaper = strings.NewReplacer(
		"%0D", "\r",
		"%0A", "\n",
		"%25", "%",
	)
	propertyUnescaper = strings.NewReplacer(
		"%0D", "\r",
		"%0A", "\n",
		"%3A", ":",
		"%2C", ",",
		"%25", "%",
	)
)

// EscapeData escapes a command message.
func EscapeData(s string) string {
	return dataEscaper.Replace(s)
}

// EscapeProperty escapes a command property value. Colons and commas are
// escaped in addition to the message characters.
func EscapeProperty(s string) string {
	return propertyEscaper.Replace(s)
}

// UnescapeData reverses EscapeData.
func UnescapeData(s string) string {
	return dataUnescaper.Replace(s)
}

// UnescapeProperty reverses EscapeProperty.
func UnescapeProperty(s string) string {
	return propertyUnescaper.Replace(s)
}
