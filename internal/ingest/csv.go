package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"finance-etl-go/internal/models"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV decodes CSV bytes into one RawRecord per data row, keyed by the
// header row. Content that is not valid UTF-8 is decoded as Windows-1251.
// Comma and semicolon delimiters are detected from the header line. Rows with
// every field empty are dropped.
func ReadCSV(content []byte) ([]models.RawRecord, error) {
	text, err := decodeText(content)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = detectDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []models.RawRecord
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read CSV row: %w", err)
		}

		record := make(models.RawRecord, len(header))
		empty := true
		for i, name := range header {
			value := ""
			if i < len(fields) {
				value = fields[i]
			}
			if strings.TrimSpace(value) != "" {
				empty = false
			}
			record[name] = value
		}
		if !empty {
			records = append(records, record)
		}
	}

	zap.L().Debug("Read CSV rows", zap.Int("rows", len(records)), zap.String("delimiter", string(reader.Comma)))
	return records, nil
}

func decodeText(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content), nil
	}

	decoded, err := charmap.Windows1251.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("unable to decode CSV content: %w", err)
	}
	zap.L().Debug("CSV content decoded as Windows-1251")
	return string(decoded), nil
}

func detectDelimiter(text string) rune {
	firstLine := text
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		firstLine = text[:i]
	}
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		return ';'
	}
	return ','
}
