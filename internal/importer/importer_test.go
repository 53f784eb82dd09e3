package importer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pricewise/offer-service/internal/pricing"
)

type captureWriter struct {
	prices []pricing.HistoricalPrice
}

func (w *captureWriter) InsertBatch(ctx context.Context, prices []pricing.HistoricalPrice) (int, error) {
	w.prices = append(w.prices, prices...)
	return len(prices), nil
}

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

var importHeader = []any{"itemId", "supplierId", "price", "currency", "unit", "quantity", "source", "observedAt", "confidence", "note"}

func TestImport(t *testing.T) {
	content := buildWorkbook(t, [][]any{
		importHeader,
		{"item-1", "sup-1", "12,99", "EUR", "g", "500", "offer", "2026-08-01", "0.9", "weekly flyer"},
		{"item-1", "", "3.50", "EUR", "g", "", "", "15.08.2026", "", ""},
	})

	writer := &captureWriter{}
	result, err := New(writer).Import(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 2, result.ValidRows)
	assert.Equal(t, 2, result.Inserted)
	assert.Empty(t, result.Errors)

	require.Len(t, writer.prices, 2)

	first := writer.prices[0]
	assert.Equal(t, "item-1", first.ItemID)
	assert.Equal(t, "sup-1", first.SupplierID)
	assert.InDelta(t, 12.99, first.Price, 1e-9)
	assert.Equal(t, 500.0, first.Quantity)
	assert.Equal(t, pricing.HistorySourceOffer, first.Source)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), first.ObservedAt)
	assert.Equal(t, 0.9, first.Metadata.Confidence)
	assert.Equal(t, "weekly flyer", first.Metadata.Note)
	assert.NotEmpty(t, first.ID)

	second := writer.prices[1]
	assert.InDelta(t, 3.5, second.Price, 1e-9)
	assert.Equal(t, 1.0, second.Quantity, "missing quantity defaults to 1")
	assert.Equal(t, pricing.HistorySourceManual, second.Source)
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), second.ObservedAt)
}

func TestImportRejectsBadRows(t *testing.T) {
	content := buildWorkbook(t, [][]any{
		importHeader,
		{"item-1", "", "free", "EUR", "g", "", "", "2026-08-01", "", ""},
		{"", "", "4.00", "EUR", "g", "", "", "2026-08-01", "", ""},
		{"item-1", "", "4.00", "EUR", "g", "", "", "someday", "", ""},
		{"item-1", "", "4.00", "EUR", "g", "", "", "2026-08-01", "", ""},
	})

	writer := &captureWriter{}
	result, err := New(writer).Import(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalRows)
	assert.Equal(t, 1, result.ValidRows)
	assert.Len(t, result.Errors, 3)
	require.Len(t, writer.prices, 1)
}

func TestImportWarningsKeepRow(t *testing.T) {
	content := buildWorkbook(t, [][]any{
		importHeader,
		{"item-1", "", "4.00", "EUR", "g", "-2", "teleport", "2026-08-01", "7", ""},
	})

	writer := &captureWriter{}
	result, err := New(writer).Import(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, 1, result.ValidRows)
	assert.Len(t, result.Warnings, 3) // quantity, source, confidence

	require.Len(t, writer.prices, 1)
	assert.Equal(t, 1.0, writer.prices[0].Quantity)
	assert.Equal(t, pricing.HistorySourceManual, writer.prices[0].Source)
	assert.Equal(t, 0.0, writer.prices[0].Metadata.Confidence)
}

func TestImportMissingRequiredColumn(t *testing.T) {
	content := buildWorkbook(t, [][]any{
		{"itemId", "supplierId", "observedAt"},
		{"item-1", "sup-1", "2026-08-01"},
	})

	_, err := New(&captureWriter{}).Import(context.Background(), content)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"price"`)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"12.99", 12.99},
		{"12,99", 12.99},
		{"1.299,50", 1299.50},
		{"1,299.50", 1299.50},
		{"€ 5,00", 5.0},
	}

	for _, tt := range tests {
		got, err := parsePrice(tt.input)
		require.NoError(t, err, tt.input)
		assert.InDelta(t, tt.want, got, 1e-9, tt.input)
	}

	_, err := parsePrice("")
	assert.Error(t, err)
	_, err = parsePrice("abc")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	iso := parseDate("2026-08-30")
	require.NotNil(t, iso)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), *iso)

	eu := parseDate("30.08.2026")
	require.NotNil(t, eu)
	assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), *eu)

	slash := parseDate("30/08/2026")
	require.NotNil(t, slash)
	assert.Equal(t, *eu, *slash)

	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("not a date"))
}
