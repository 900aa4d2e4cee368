package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finance-etl-go/internal/models"

	"github.com/shopspring/decimal"
)

func TestParseAccountSeeds(t *testing.T) {
	data := []byte(`
accounts:
  - name: "Cash"
  - name: "Uzum Card"
    provider: "Uzum"
    currency: "USD"
`)
	seeds, err := ParseAccountSeeds(data)
	if err != nil {
		t.Fatalf("ParseAccountSeeds failed: %v", err)
	}
	if len(seeds) != 2 {
		t.Fatalf("Expected 2 seeds, got %d", len(seeds))
	}
	if seeds[0].Provider != models.ProviderManual || seeds[0].Currency != "UZS" {
		t.Errorf("Expected defaults on the first seed, got %+v", seeds[0])
	}
	if seeds[1].Provider != models.ProviderUzum || seeds[1].Currency != "USD" {
		t.Errorf("Unexpected second seed: %+v", seeds[1])
	}
}

func TestParseAccountSeeds_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing name", "accounts:\n  - provider: Uzum\n", "missing name"},
		{"duplicate", "accounts:\n  - name: Cash\n  - name: Cash\n", "listed twice"},
		{"unknown provider", "accounts:\n  - name: Card\n    provider: Visa\n", "unknown provider"},
		{"not yaml", "accounts: [", "unable to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccountSeeds([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadAccountSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.yaml")
	if err := os.WriteFile(path, []byte("accounts:\n  - name: Cash\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	seeds, err := LoadAccountSeeds(path)
	if err != nil {
		t.Fatalf("LoadAccountSeeds failed: %v", err)
	}
	if len(seeds) != 1 || seeds[0].Name != "Cash" {
		t.Errorf("Unexpected seeds: %+v", seeds)
	}

	if _, err := LoadAccountSeeds(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatMoney(decimal.RequireFromString("-1250.5"), ""); got != "-1250.50 UZS" {
		t.Errorf("FormatMoney = %q", got)
	}
	if got := FormatPercent(decimal.RequireFromString("33.333")); got != "33.3%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := ShortId("0123456789"); got != "01234567..." {
		t.Errorf("ShortId = %q", got)
	}
	if got := ShortId(""); got != "none" {
		t.Errorf("ShortId of empty = %q", got)
	}
}
