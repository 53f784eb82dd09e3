// Package importer loads historical price observations from spreadsheets.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/pricewise/offer-service/internal/pkg/ids"
	"github.com/pricewise/offer-service/internal/pricing"
)

// Expected column headers, matched case-insensitively. itemId, price and
// observedAt are required; the rest are optional.
const (
	colItemID     = "itemid"
	colSupplierID = "supplierid"
	colPrice      = "price"
	colCurrency   = "currency"
	colUnit       = "unit"
	colQuantity   = "quantity"
	colSource     = "source"
	colObservedAt = "observedat"
	colConfidence = "confidence"
	colNote       = "note"
)

// RowIssue describes a problem with one spreadsheet row.
type RowIssue struct {
	Row     int    `json:"row"` // 1-based, as shown in the spreadsheet
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Result summarizes one import run. Rows with errors are skipped; rows with
// warnings are imported with the offending field dropped.
type Result struct {
	TotalRows int        `json:"totalRows"`
	ValidRows int        `json:"validRows"`
	Inserted  int        `json:"inserted"`
	Errors    []RowIssue `json:"errors,omitempty"`
	Warnings  []RowIssue `json:"warnings,omitempty"`
}

// HistoryWriter persists parsed observations.
type HistoryWriter interface {
	InsertBatch(ctx context.Context, prices []pricing.HistoricalPrice) (int, error)
}

// Importer parses xlsx price history exports and stores the observations.
type Importer struct {
	writer HistoryWriter
	sheet  string // empty = first sheet
	logger zerolog.Logger
}

// New creates an importer writing through the given history writer.
func New(writer HistoryWriter) *Importer {
	return &Importer{
		writer: writer,
		logger: log.With().Str("component", "history_importer").Logger(),
	}
}

// WithSheet selects a worksheet by name instead of the first one.
func (imp *Importer) WithSheet(name string) *Importer {
	imp.sheet = name
	return imp
}

// ImportFile imports observations from an xlsx file on disk.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading import file: %w", err)
	}
	return imp.Import(ctx, content)
}

// Import parses xlsx content and stores the valid rows.
func (imp *Importer) Import(ctx context.Context, content []byte) (*Result, error) {
	prices, result, err := imp.parse(content)
	if err != nil {
		return nil, err
	}

	if len(prices) > 0 {
		inserted, err := imp.writer.InsertBatch(ctx, prices)
		if err != nil {
			return nil, fmt.Errorf("storing imported observations: %w", err)
		}
		result.Inserted = inserted
	}

	imp.logger.Info().
		Int("total", result.TotalRows).
		Int("valid", result.ValidRows).
		Int("inserted", result.Inserted).
		Int("errors", len(result.Errors)).
		Msg("Imported historical prices")
	return result, nil
}

func (imp *Importer) parse(content []byte) ([]pricing.HistoricalPrice, *Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheetName, err := imp.selectSheet(f)
	if err != nil {
		return nil, nil, err
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("reading worksheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, &Result{}, nil
	}

	indices, err := buildColumnIndices(rows[0])
	if err != nil {
		return nil, nil, err
	}

	result := &Result{TotalRows: len(rows) - 1}
	var prices []pricing.HistoricalPrice

	for i := 1; i < len(rows); i++ {
		rawRow := rows[i]
		rowNumber := i + 1

		if isEmptyRow(rawRow) {
			result.TotalRows--
			continue
		}

		price, issues := imp.mapRow(rawRow, rowNumber, indices)
		for _, issue := range issues {
			if price == nil {
				result.Errors = append(result.Errors, issue)
			} else {
				result.Warnings = append(result.Warnings, issue)
			}
		}
		if price != nil {
			prices = append(prices, *price)
		}
	}

	result.ValidRows = len(prices)
	return prices, result, nil
}

func (imp *Importer) selectSheet(f *excelize.File) (string, error) {
	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if imp.sheet == "" {
		return sheetList[0], nil
	}
	for _, name := range sheetList {
		if name == imp.sheet {
			return name, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found, available sheets: %s", imp.sheet, strings.Join(sheetList, ", "))
}

// columnIndices holds resolved 0-based column positions, -1 when absent.
type columnIndices struct {
	itemID, supplierID, price, currency, unit, quantity, source, observedAt, confidence, note int
}

func buildColumnIndices(header []string) (columnIndices, error) {
	indices := columnIndices{
		itemID: -1, supplierID: -1, price: -1, currency: -1, unit: -1,
		quantity: -1, source: -1, observedAt: -1, confidence: -1, note: -1,
	}

	for i, cell := range header {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case colItemID:
			indices.itemID = i
		case colSupplierID:
			indices.supplierID = i
		case colPrice:
			indices.price = i
		case colCurrency:
			indices.currency = i
		case colUnit:
			indices.unit = i
		case colQuantity:
			indices.quantity = i
		case colSource:
			indices.source = i
		case colObservedAt:
			indices.observedAt = i
		case colConfidence:
			indices.confidence = i
		case colNote:
			indices.note = i
		}
	}

	for _, required := range []struct {
		name string
		idx  int
	}{
		{"itemId", indices.itemID},
		{"price", indices.price},
		{"observedAt", indices.observedAt},
	} {
		if required.idx < 0 {
			return indices, fmt.Errorf("header is missing required column %q", required.name)
		}
	}
	return indices, nil
}

// mapRow converts one spreadsheet row into an observation. A nil observation
// means the row was rejected; the issues then explain why.
func (imp *Importer) mapRow(rawRow []string, rowNumber int, indices columnIndices) (*pricing.HistoricalPrice, []RowIssue) {
	getValue := func(idx int) string {
		if idx < 0 || idx >= len(rawRow) {
			return ""
		}
		return strings.TrimSpace(rawRow[idx])
	}

	var issues []RowIssue

	itemID := getValue(indices.itemID)
	if itemID == "" {
		return nil, append(issues, RowIssue{Row: rowNumber, Field: "itemId", Message: "missing item id"})
	}

	priceStr := getValue(indices.price)
	price, err := parsePrice(priceStr)
	if err != nil || price <= 0 {
		return nil, append(issues, RowIssue{Row: rowNumber, Field: "price", Message: "price must be a positive number", Value: priceStr})
	}

	observedStr := getValue(indices.observedAt)
	observedAt := parseDate(observedStr)
	if observedAt == nil {
		return nil, append(issues, RowIssue{Row: rowNumber, Field: "observedAt", Message: "unrecognized date", Value: observedStr})
	}

	quantity := 1.0
	if quantityStr := getValue(indices.quantity); quantityStr != "" {
		q, err := parsePrice(quantityStr)
		if err != nil || q <= 0 {
			issues = append(issues, RowIssue{Row: rowNumber, Field: "quantity", Message: "invalid quantity, assuming 1", Value: quantityStr})
		} else {
			quantity = q
		}
	}

	source := pricing.HistorySourceManual
	if sourceStr := getValue(indices.source); sourceStr != "" {
		switch pricing.HistoricalPriceSource(sourceStr) {
		case pricing.HistorySourceOffer, pricing.HistorySourceManual, pricing.HistorySourceAggregated:
			source = pricing.HistoricalPriceSource(sourceStr)
		default:
			issues = append(issues, RowIssue{Row: rowNumber, Field: "source", Message: "unknown source, assuming manual", Value: sourceStr})
		}
	}

	confidence := 0.0
	if confStr := getValue(indices.confidence); confStr != "" {
		c, err := strconv.ParseFloat(confStr, 64)
		if err != nil || c < 0 || c > 1 {
			issues = append(issues, RowIssue{Row: rowNumber, Field: "confidence", Message: "confidence must be between 0 and 1, ignoring", Value: confStr})
		} else {
			confidence = c
		}
	}

	return &pricing.HistoricalPrice{
		ID:         ids.New("hist"),
		ItemID:     itemID,
		SupplierID: getValue(indices.supplierID),
		Price:      price,
		Currency:   getValue(indices.currency),
		Unit:       getValue(indices.unit),
		Quantity:   quantity,
		Source:     source,
		ObservedAt: *observedAt,
		Metadata: pricing.HistoricalPriceMetadata{
			Confidence: confidence,
			Note:       getValue(indices.note),
		},
	}, issues
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parsePrice parses a decimal string, handling both "1,234.56" and
// "1.234,56" separator conventions plus stray currency symbols.
func parsePrice(value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty value")
	}

	cleaned := regexp.MustCompile(`[€$£\s]`).ReplaceAllString(value, "")

	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")

	if lastComma > lastDot {
		// European format: 1.234,56
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else if lastDot > lastComma {
		// US format: 1,234.56
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	return strconv.ParseFloat(cleaned, 64)
}

// parseDate parses YYYY-MM-DD, DD.MM.YYYY, DD/MM/YYYY or an Excel serial
// date. Returns nil when the value is unrecognizable.
func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
		if date := excelDateToGo(serial); date != nil {
			return date
		}
	}

	isoPattern := regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	if match := isoPattern.FindStringSubmatch(value); len(match) == 4 {
		year, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		day, _ := strconv.Atoi(match[3])
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		return &date
	}

	euPattern := regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})[./](\d{4})`)
	if match := euPattern.FindStringSubmatch(value); len(match) == 4 {
		day, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		year, _ := strconv.Atoi(match[3])
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		return &date
	}

	return nil
}

// excelDateToGo converts an Excel serial date to time.Time. Excel counts
// days since 1900-01-01 and wrongly treats 1900 as a leap year.
func excelDateToGo(serial float64) *time.Time {
	if serial < 1 {
		return nil
	}

	adjustedSerial := serial
	if serial > 59 {
		adjustedSerial = serial - 1
	}

	excelEpoch := time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	duration := time.Duration(adjustedSerial * 24 * float64(time.Hour))
	date := excelEpoch.Add(duration)

	if math.IsNaN(serial) || date.Year() > 9999 {
		return nil
	}
	return &date
}
