package merge

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/feral-file/title-scrutiny/internal/domain"
)

const (
	defaultExecutor    = "[Executor]"
	defaultBeneficiary = "[Beneficiary]"
	defaultDate        = "[Date]"
	defaultDocNo       = "[Doc No]"
)

// standardTokens are the deed fields every narrative template may use
var standardTokens = []struct {
	pattern *regexp.Regexp
	value   func(d domain.Deed) string
}{
	{regexp.MustCompile(`(?i)\{deedType\}`), func(d domain.Deed) string { return d.DeedType }},
	{regexp.MustCompile(`(?i)\{executedBy\}`), func(d domain.Deed) string { return d.ExecutedBy }},
	{regexp.MustCompile(`(?i)\{inFavourOf\}`), func(d domain.Deed) string { return d.InFavourOf }},
	{regexp.MustCompile(`(?i)\{date\}`), func(d domain.Deed) string { return d.Date.String() }},
	{regexp.MustCompile(`(?i)\{documentNumber\}`), func(d domain.Deed) string { return d.DocumentNumber }},
	{regexp.MustCompile(`(?i)\{natureOfDoc\}`), func(d domain.Deed) string { return d.NatureOfDoc }},
}

var historyToken = regexp.MustCompile(`(?i)\{\$history\}`)

// substituteDeed fills a narrative template with the standard fields of d, then its custom fields
func substituteDeed(template string, d domain.Deed) string {
	out := template
	for _, token := range standardTokens {
		out = token.pattern.ReplaceAllLiteralString(out, token.value(d))
	}

	keys := make([]string, 0, len(d.CustomFields))
	for k := range d.CustomFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		pattern, err := regexp.Compile(`(?i)\{` + regexp.QuoteMeta(k) + `\}`)
		if err != nil {
			continue
		}
		out = pattern.ReplaceAllLiteralString(out, d.CustomFields[k])
	}
	return out
}

// fallbackHistory is the narrative of a deed type without a history template
func fallbackHistory(d domain.Deed) string {
	text := fmt.Sprintf("%s:\nDeed executed by %s in favour of %s dated %s, Document No: %s",
		strings.ToUpper(d.DeedType),
		orDefault(d.ExecutedBy, defaultExecutor),
		orDefault(d.InFavourOf, defaultBeneficiary),
		orDefault(d.Date.String(), defaultDate),
		orDefault(d.DocumentNumber, defaultDocNo),
	)
	if d.NatureOfDoc != "" {
		text += ", Nature: " + d.NatureOfDoc
	}
	return text
}

// substitutePlaceholders replaces each {key} literally, case-sensitively, in key order
func substitutePlaceholders(text string, values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		text = strings.ReplaceAll(text, "{"+k+"}", values[k])
	}
	return text
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
