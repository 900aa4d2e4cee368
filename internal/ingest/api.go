package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"finance-etl-go/internal/models"
	"finance-etl-go/internal/store"

	"go.uber.org/zap"
)

// FetchFromAPI issues the described GET and returns the transaction objects
// of the JSON response. A top-level array is used as is; an object must wrap
// the array under "data", "transactions" or "result.transactions".
func (s *Service) FetchFromAPI(ctx context.Context, cfg models.ApiConfig) ([]models.RawRecord, error) {
	if strings.TrimSpace(cfg.Url) == "" {
		return nil, fmt.Errorf("%w: API url is required", store.ErrInvalidConfig)
	}

	reqUrl, err := url.Parse(cfg.Url)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid API url %q: %v", store.ErrInvalidConfig, cfg.Url, err)
	}
	if len(cfg.Params) > 0 {
		query := reqUrl.Query()
		for k, v := range cfg.Params {
			query.Set(k, v)
		}
		reqUrl.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	zap.L().Info("Fetching transactions from API",
		zap.String("run_id", models.RunId(ctx)),
		zap.String("host", reqUrl.Host),
		zap.String("type", cfg.Type))

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("unable to decode API response: %w", err)
	}

	records, err := extractRecords(data)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Fetched transactions from API",
		zap.String("run_id", models.RunId(ctx)),
		zap.Int("count", len(records)))
	return records, nil
}

func extractRecords(data any) ([]models.RawRecord, error) {
	var items []any
	switch v := data.(type) {
	case []any:
		items = v
	case map[string]any:
		var ok bool
		if items, ok = wrappedArray(v); !ok {
			return nil, fmt.Errorf("unexpected API format: object without data, transactions or result.transactions array")
		}
	default:
		return nil, fmt.Errorf("unexpected API format: %T", data)
	}

	records := make([]models.RawRecord, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected API format: element %d is %T, not an object", i, item)
		}
		records = append(records, models.RawRecord(obj))
	}
	return records, nil
}

func wrappedArray(obj map[string]any) ([]any, bool) {
	for _, key := range []string{"data", "transactions"} {
		if items, ok := obj[key].([]any); ok {
			return items, true
		}
	}
	if result, ok := obj["result"].(map[string]any); ok {
		if items, ok := result["transactions"].([]any); ok {
			return items, true
		}
	}
	return nil, false
}

// IngestFromAPI fetches, standardizes and stores transactions from a JSON
// API. API ingestion must name the account the data belongs to.
func (s *Service) IngestFromAPI(ctx context.Context, userId, accountId string, cfg models.ApiConfig) (*models.IngestResult, error) {
	if userId == "" {
		return nil, fmt.Errorf("%w: user id is required", store.ErrInvalidConfig)
	}
	if accountId == "" {
		return nil, fmt.Errorf("%w: account id is required for API ingestion", store.ErrInvalidConfig)
	}

	raw, err := s.FetchFromAPI(ctx, cfg)
	if err != nil {
		return nil, err
	}

	source := apiSource(cfg)
	records := make([]models.StandardRecord, 0, len(raw))
	for _, row := range raw {
		records = append(records, ToStandardFormat(row, source))
	}

	return s.persist(ctx, records, userId, accountId)
}

// IngestFromPayme pulls transactions from the Payme merchant API
func (s *Service) IngestFromPayme(ctx context.Context, userId, accountId, merchantId, token string) (*models.IngestResult, error) {
	if merchantId == "" || token == "" {
		return nil, fmt.Errorf("%w: payme merchant id and token are required", store.ErrInvalidConfig)
	}

	return s.IngestFromAPI(ctx, userId, accountId, models.ApiConfig{
		Type: models.SourcePayme,
		Url:  s.paymeURL,
		Headers: map[string]string{
			"X-Auth":       merchantId + ":" + token,
			"Content-Type": "application/json",
		},
		Source: models.SourcePayme,
	})
}

func apiSource(cfg models.ApiConfig) string {
	if cfg.Source != "" {
		return cfg.Source
	}
	switch strings.ToLower(cfg.Type) {
	case models.SourcePayme:
		return models.SourcePayme
	case models.SourceClick:
		return models.SourceClick
	default:
		return models.SourceAPI
	}
}
