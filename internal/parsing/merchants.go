package parsing

import (
	"strings"
	"unicode"
)

// NormalizeMerchant maps a raw merchant string to a canonical name using the
// built-in rules. Empty input yields "".
func NormalizeMerchant(merchant string) string {
	return DefaultRules().NormalizeMerchant(merchant)
}

// NormalizeMerchant maps a raw merchant string to a canonical name. The first
// matching brand rule wins; otherwise trailing noise words are stripped,
// whitespace is collapsed and the result is sentence-cased.
func (r *Rules) NormalizeMerchant(merchant string) string {
	merchant = strings.TrimSpace(merchant)
	if merchant == "" {
		return ""
	}

	lower := strings.ToLower(merchant)
	for _, rule := range r.merchants {
		if rule.pattern.MatchString(lower) {
			return rule.name
		}
	}

	stripped := merchant
	for _, re := range r.noiseSuffixes {
		stripped = re.ReplaceAllString(stripped, "")
	}
	stripped = strings.Join(strings.Fields(stripped), " ")
	if stripped == "" {
		// the whole name was noise, e.g. "Cafe"
		stripped = strings.Join(strings.Fields(merchant), " ")
	}

	return sentenceCase(stripped)
}

func sentenceCase(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
