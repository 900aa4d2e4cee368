/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package parsing

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Category names produced by the categorizer
const (
	CategoryFood          = "Food & Restaurants"
	CategoryTransport     = "Transport & Taxi"
	CategoryShopping      = "Shopping & Retail"
	CategoryHealth        = "Health & Medicine"
	CategoryEducation     = "Education"
	CategoryEntertainment = "Entertainment & Leisure"
	CategoryBills         = "Bills & Utilities"
	CategoryBank          = "Bank & Financial Services"
	CategoryTransfer      = "Transfer & Income"
	CategorySalary        = "Salary & Income"
	CategoryOther         = "Other"
)

// KnownCategories is the fixed category vocabulary used by validation
func KnownCategories() []string {
	return []string{
		CategoryFood,
		CategoryTransport,
		CategoryShopping,
		CategoryHealth,
		CategoryEducation,
		CategoryEntertainment,
		CategoryBills,
		CategoryBank,
		CategoryTransfer,
		CategorySalary,
		CategoryOther,
	}
}

// IsKnownCategory reports whether category belongs to the fixed vocabulary
func IsKnownCategory(category string) bool {
	for _, c := range KnownCategories() {
		if c == category {
			return true
		}
	}
	return false
}

// MerchantRuleConfig is one (pattern -> canonical name) entry in YAML
type MerchantRuleConfig struct {
	Pattern string `yaml:"pattern"`
	Name    string `yaml:"name"`
}

// KeywordRuleConfig maps a category to the keywords that select it
type KeywordRuleConfig struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// RulesConfig is the YAML shape of a rules file
type RulesConfig struct {
	RefundThreshold string               `yaml:"refund_threshold"`
	Merchants       []MerchantRuleConfig `yaml:"merchants"`
	NoiseSuffixes   []string             `yaml:"noise_suffixes"`
	Income          []KeywordRuleConfig  `yaml:"income"`
	Categories      []KeywordRuleConfig  `yaml:"categories"`
}

type merchantRule struct {
	pattern *regexp.Regexp
	name    string
}

type keywordRule struct {
	name     string
	keywords []string
}

// Rules holds compiled merchant and category tables. A Rules value is
// immutable after construction and safe for concurrent use.
type Rules struct {
	refundThreshold decimal.Decimal
	merchants       []merchantRule
	noiseSuffixes   []*regexp.Regexp
	income          []keywordRule
	categories      []keywordRule
}

var (
	defaultRules     *Rules
	defaultRulesOnce sync.Once
)

// DefaultRules returns the built-in rule tables
func DefaultRules() *Rules {
	defaultRulesOnce.Do(func() {
		rules, err := ParseRules(defaultRulesYAML)
		if err != nil {
			panic(fmt.Sprintf("invalid embedded rules: %v", err))
		}
		defaultRules = rules
	})
	return defaultRules
}

// LoadRules reads a rules file. An empty path yields the built-in rules.
func LoadRules(rulesFile string) (*Rules, error) {
	if rulesFile == "" {
		return DefaultRules(), nil
	}

	var rulesPath string
	if filepath.IsAbs(rulesFile) {
		rulesPath = rulesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		rulesPath = filepath.Join(wd, rulesFile)
	}

	data, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", rulesFile, err)
	}

	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", rulesFile, err)
	}
	return rules, nil
}

// ParseRules compiles YAML rule tables
func ParseRules(data []byte) (*Rules, error) {
	var config RulesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	rules := &Rules{refundThreshold: decimal.NewFromInt(100000)}
	if config.RefundThreshold != "" {
		threshold, err := decimal.NewFromString(config.RefundThreshold)
		if err != nil {
			return nil, fmt.Errorf("invalid refund_threshold %q: %w", config.RefundThreshold, err)
		}
		rules.refundThreshold = threshold
	}

	for i, m := range config.Merchants {
		if m.Pattern == "" {
			return nil, fmt.Errorf("merchant rule at index %d missing pattern", i)
		}
		if m.Name == "" {
			return nil, fmt.Errorf("merchant rule at index %d missing name", i)
		}
		re, err := regexp.Compile(strings.ToLower(m.Pattern))
		if err != nil {
			return nil, fmt.Errorf("merchant rule at index %d: %w", i, err)
		}
		rules.merchants = append(rules.merchants, merchantRule{pattern: re, name: m.Name})
	}

	for _, suffix := range config.NoiseSuffixes {
		if strings.TrimSpace(suffix) == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\s*\b` + regexp.QuoteMeta(suffix) + `\b.*$`)
		if err != nil {
			return nil, fmt.Errorf("noise suffix %q: %w", suffix, err)
		}
		rules.noiseSuffixes = append(rules.noiseSuffixes, re)
	}

	var err error
	if rules.income, err = compileKeywordRules("income", config.Income); err != nil {
		return nil, err
	}
	if rules.categories, err = compileKeywordRules("categories", config.Categories); err != nil {
		return nil, err
	}

	return rules, nil
}

func compileKeywordRules(section string, configs []KeywordRuleConfig) ([]keywordRule, error) {
	compiled := make([]keywordRule, 0, len(configs))
	for i, c := range configs {
		if c.Name == "" {
			return nil, fmt.Errorf("%s rule at index %d missing name", section, i)
		}
		keywords := make([]string, 0, len(c.Keywords))
		for _, k := range c.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		compiled = append(compiled, keywordRule{name: c.Name, keywords: keywords})
	}
	return compiled, nil
}

// RefundThreshold is the amount below which a positive transaction is still
// run through the expense tables
func (r *Rules) RefundThreshold() decimal.Decimal {
	return r.refundThreshold
}
