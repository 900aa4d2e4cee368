package parsing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Applied in order; the first pattern also eats stray trailing currency letters.
var currencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[UZS\s]*$`),
	regexp.MustCompile(`(?i)USD\s*$`),
	regexp.MustCompile(`\$`),
	regexp.MustCompile(`(?i)so'm`),
	regexp.MustCompile(`(?i)сум`),
}

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// ParseAmount turns a messy monetary string into an exact decimal.
//
//	"1,500,000.50 UZS" -> 1500000.50
//	"1,50"             -> 1.50 (a single trailing group of <= 2 digits is decimal)
//	"1 500 000"        -> 1500000
//	"$100.50"          -> 100.50
func ParseAmount(value string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return decimal.Zero, false
	}

	for _, re := range currencyPatterns {
		s = re.ReplaceAllString(s, "")
	}

	s = strings.ReplaceAll(s, " ", "")

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len([]rune(parts[1])) <= 2 {
			s = strings.Join(parts, ".")
		} else {
			s = strings.Join(parts, "")
		}
	}

	s = nonNumeric.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}
