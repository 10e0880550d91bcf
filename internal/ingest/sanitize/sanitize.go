// Package sanitize normalizes the human-readable text fields that flow out
// of the dump parser: strips characters that break the relational store,
// unifies language codes, and cleans annotation HTML down to a single
// allowed tag.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	multiSpace = regexp.MustCompile(` {2,}`)

	// annotationPolicy keeps only <a> tags, stripping every other element
	// but retaining its text content.
	annotationPolicy = newAnnotationPolicy()
)

func newAnnotationPolicy() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("a")
	policy.AllowAttrs("href").OnElements("a")
	return policy
}

// RemoveWrongChars strips characters that are unsafe to carry into the
// store: semicolons are removed, newlines become spaces, the Russian
// "ё" is folded to "е" (a common flibusta dump inconsistency), and
// backslash-escaped quotes are unescaped.
func RemoveWrongChars(s string) string {
	s = strings.ReplaceAll(s, ";", "")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "ё", "е")
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\'`, `'`)
	return s
}

// ParseLang normalizes a language code cell: drops "-" and "~" separators
// and lowercases the result (e.g. "RU-~RU" -> "ruru").
func ParseLang(s string) string {
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "~", "")
	return strings.ToLower(s)
}

// FixAnnotationText prepares an annotation body for storage: literal "<br>"
// and escaped "\n" sequences become real newlines, runs of two or more
// spaces collapse to one, and the result is run through [annotationPolicy]
// so only <a> tags survive — everything else is stripped but its text is
// kept.
func FixAnnotationText(s string) string {
	s = strings.ReplaceAll(s, "<br>", "\n")
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = multiSpace.ReplaceAllString(s, " ")
	return annotationPolicy.Sanitize(s)
}
