package parsing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1,500,000.50 UZS", "1500000.50"},
		{"1,50", "1.50"},
		{"1,500", "1500"},
		{"1,500,000", "1500000"},
		{"-50000", "-50000"},
		{"-50,000", "-50000"},
		{"+5,000,000", "5000000"},
		{"1 500 000", "1500000"},
		{"50000 so'm", "50000"},
		{"50 000 сум", "50000"},
		{"$100.50", "100.50"},
		{"100.50 USD", "100.50"},
		{"100 usd", "100"},
		{"  250000  ", "250000"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			if !ok {
				t.Fatalf("ParseAmount(%q) failed", tt.input)
			}
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "1.2.3", "-", "UZS"} {
		if got, ok := ParseAmount(input); ok {
			t.Errorf("ParseAmount(%q) = %s, expected failure", input, got)
		}
	}
}

func TestParseAmount_Idempotent(t *testing.T) {
	inputs := []string{
		"1,500,000.50 UZS",
		"1,50",
		"-50,000",
		"$100.50",
		"0.01",
		"123456789012345678901234.5678",
	}

	for _, input := range inputs {
		first, ok := ParseAmount(input)
		if !ok {
			t.Fatalf("ParseAmount(%q) failed", input)
		}
		second, ok := ParseAmount(first.String())
		if !ok {
			t.Fatalf("ParseAmount(%q) failed on re-parse", first.String())
		}
		if !first.Equal(second) {
			t.Errorf("Re-parsing %q changed value: %s -> %s", input, first, second)
		}
	}
}
