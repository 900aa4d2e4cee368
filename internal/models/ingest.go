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

package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawRecord is a source row kept verbatim. Values are whatever the source
// produced: strings for CSV, strings/json.Number/bools/nested maps for JSON.
type RawRecord map[string]any

// Lookup returns the first non-empty value among the given keys, rendered as
// a string, and whether one was found. Keys are tried in order.
func (r RawRecord) Lookup(keys ...string) (string, bool) {
	for _, key := range keys {
		v, ok := r[key]
		if !ok {
			continue
		}
		s := stringify(v)
		if strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

// First is Lookup without the found flag.
func (r RawRecord) First(keys ...string) string {
	s, _ := r.Lookup(keys...)
	return s
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Field aliases tried in order when reading a source row. The first
// non-empty value wins.
var (
	DateKeys        = []string{"date", "Date", "created_at", "timestamp", "Дата"}
	AmountKeys      = []string{"amount", "Amount", "Сумма", "value"}
	MerchantKeys    = []string{"merchant", "Merchant", "recipient", "payee", "Получатель"}
	CategoryKeys    = []string{"category", "Category", "Категория"}
	DescriptionKeys = []string{"description", "Description", "note", "Описание"}
	ExternalIdKeys  = []string{"id", "transaction_id", "payment_id"}
)

// Source tags embedded in the dedup hash
const (
	SourceCSV     = "csv"
	SourceAPI     = "api"
	SourcePayme   = "payme"
	SourceClick   = "click"
	SourceWebhook = "webhook"
	SourceManual  = "manual"
)

// ApiConfig describes a generic JSON API pull
type ApiConfig struct {
	Type    string            `json:"type"`
	Url     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Source  string            `json:"source,omitempty"`
}

// WebhookEvent is a single pushed transaction event
type WebhookEvent struct {
	EventType string    `json:"event_type"`
	Payload   RawRecord `json:"payload"`
}

// StandardRecord is a source row mapped to the canonical field set. Values
// are still uncleaned strings; transform parses them later.
type StandardRecord struct {
	Date            string
	Amount          string
	Merchant        string
	Category        string
	Description     string
	ExternalId      string
	Source          string
	RawPayload      RawRecord
	TransactionHash string
}

// IngestResult summarizes one ingest batch
type IngestResult struct {
	Total      int      `json:"total"`
	Saved      int      `json:"saved"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors"`
}

// ManualTransaction is a transaction entered by hand. It is stored already
// processed, so its fields are cleaned on entry.
type ManualTransaction struct {
	AccountId   string          `json:"account_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	Merchant    string          `json:"merchant,omitempty"`
	Category    string          `json:"category,omitempty"`
	Description string          `json:"description,omitempty"`
	Date        time.Time       `json:"date"`
}
