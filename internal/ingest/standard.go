package ingest

import (
	"strconv"
	"strings"
	"time"

	"finance-etl-go/internal/models"
)

// ToStandardFormat maps a raw source row onto the canonical field set and
// computes its dedup hash. The raw row is kept verbatim.
func ToStandardFormat(raw models.RawRecord, source string) models.StandardRecord {
	record := models.StandardRecord{
		Date:        raw.First(models.DateKeys...),
		Amount:      strings.TrimSpace(raw.First(models.AmountKeys...)),
		Merchant:    raw.First(models.MerchantKeys...),
		Category:    strings.TrimSpace(raw.First(models.CategoryKeys...)),
		Description: raw.First(models.DescriptionKeys...),
		ExternalId:  raw.First(models.ExternalIdKeys...),
		Source:      source,
		RawPayload:  raw,
	}

	switch source {
	case models.SourcePayme:
		if ms, ok := raw.Lookup("time"); ok {
			if date, ok := paymeDate(ms); ok {
				record.Date = date
			}
		}
	case models.SourceClick:
		if date, ok := raw.Lookup("created_datetime"); ok {
			record.Date = date
		}
	}
	record.Date = strings.TrimSpace(record.Date)

	record.TransactionHash = GenerateHash(record.Date, record.Amount, record.Merchant, record.Source)
	return record
}

// paymeDate converts a unix millisecond timestamp to an ISO date-time in UTC
func paymeDate(ms string) (string, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(ms), 64)
	if err != nil {
		return "", false
	}
	return time.UnixMilli(int64(v)).UTC().Format("2006-01-02T15:04:05"), true
}

// webhookSource tags webhook records with their event type
func webhookSource(eventType string) string {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" {
		return models.SourceWebhook
	}
	return models.SourceWebhook + ":" + eventType
}
