// Package placeholder finds {name} tokens in template text.
package placeholder

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"github.com/feral-file/title-scrutiny/internal/domain"
)

// tokenPattern is the placeholder grammar: one or more ASCII letters, digits or underscores in braces
var tokenPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// reservedTokens are replaced by generated tables rather than form values
var reservedTokens = map[string]struct{}{
	"table":  {},
	"table1": {},
	"table2": {},
	"table3": {},
	"table4": {},
}

// Extract returns the distinct token names of text, sorted
func Extract(text string) []string {
	seen := make(map[string]struct{})
	for _, match := range tokenPattern.FindAllStringSubmatch(text, -1) {
		seen[match[1]] = struct{}{}
	}
	return sortedKeys(seen)
}

// Dynamic returns the tokens of a deed type's preview and history templates that need
// their own input, i.e. every token except the standard deed fields
func Dynamic(previewTemplate, historyTemplate string) []string {
	seen := make(map[string]struct{})
	for _, text := range []string{previewTemplate, historyTemplate} {
		for _, match := range tokenPattern.FindAllStringSubmatch(text, -1) {
			seen[match[1]] = struct{}{}
		}
	}
	for _, standard := range domain.StandardPlaceholders {
		delete(seen, standard)
	}
	return sortedKeys(seen)
}

// FormFields returns the tokens of a document template that become placeholder inputs.
// Reserved table tokens are left out.
func FormFields(text string) []string {
	fields := Extract(text)
	return slices.DeleteFunc(fields, IsReserved)
}

// IsReserved reports whether name is one of the table tokens
func IsReserved(name string) bool {
	_, ok := reservedTokens[strings.ToLower(name)]
	return ok
}

// Label turns a camelCase token name into a form label, e.g. "ownerName" -> "Owner Name"
func Label(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
