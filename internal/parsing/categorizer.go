package parsing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Categorize assigns a category using the built-in rules. amount may be nil
// when the amount is unknown.
func Categorize(merchant, description string, amount *decimal.Decimal) string {
	return DefaultRules().Categorize(merchant, description, amount)
}

// Categorize is a keyword classifier over merchant + description. Positive
// amounts are checked against the income rules first. Expenses, unknown
// amounts and positive amounts under the refund threshold then go through
// the category tables in order. Nothing matched means CategoryOther.
func (r *Rules) Categorize(merchant, description string, amount *decimal.Decimal) string {
	text := strings.ToLower(merchant + " " + description)

	if amount != nil && amount.IsPositive() {
		if name, ok := matchKeywords(r.income, text); ok {
			return name
		}
	}

	if amount == nil || amount.LessThan(r.refundThreshold) {
		if name, ok := matchKeywords(r.categories, text); ok {
			return name
		}
	}

	return CategoryOther
}

func matchKeywords(rules []keywordRule, text string) (string, bool) {
	for _, rule := range rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.name, true
			}
		}
	}
	return "", false
}
