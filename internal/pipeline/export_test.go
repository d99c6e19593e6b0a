package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"kabs/internal"
	"kabs/internal/engine"
)

func testComparisons() []internal.LineComparison {
	table := internal.PricingTable{
		"l1": {"B30": {SKU: "B30", Price: 250}},
		"l2": {"B30": {SKU: "X-B30", Price: 300}},
	}
	lines := []internal.ManufacturerLine{
		{ID: "l1", Name: "Builder", Tier: internal.TierBudget, Multiplier: 1},
		{ID: "l2", Name: "Elite", Tier: internal.TierPremium, Multiplier: 1},
	}
	candidates := []internal.RawCandidate{
		{RawCode: "B30", Quantity: 2},
		{RawCode: "ZZZ9", Quantity: 1},
	}
	return engine.CompareLines(candidates, table, lines, engine.DefaultOptions())
}

func TestNewQuoteDocument(t *testing.T) {
	comparisons := testComparisons()

	doc, err := NewQuoteDocument(internal.ProjectInfo{ClientName: "Smith"}, comparisons, "l2", engine.DefaultQuoteRates())
	require.NoError(t, err)
	assert.Equal(t, "l2", doc.Line.ID)
	assert.Equal(t, 600.0, doc.Summary.Subtotal)
	assert.Equal(t, 1, doc.Summary.IncludedItems)
	assert.Equal(t, 1, doc.Summary.ExcludedItems)

	doc, err = NewQuoteDocument(internal.ProjectInfo{}, comparisons, "", engine.DefaultQuoteRates())
	require.NoError(t, err)
	assert.Equal(t, "l1", doc.Line.ID)

	_, err = NewQuoteDocument(internal.ProjectInfo{}, comparisons, "nope", engine.DefaultQuoteRates())
	assert.Error(t, err)

	_, err = NewQuoteDocument(internal.ProjectInfo{}, nil, "", engine.DefaultQuoteRates())
	assert.Error(t, err)
}

func TestExportQuoteToXLSX(t *testing.T) {
	doc, err := NewQuoteDocument(internal.ProjectInfo{ClientName: "Smith", QuoteNumber: "Q-000001"}, testComparisons(), "l1", engine.DefaultQuoteRates())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out", "quote.xlsx")
	require.NoError(t, ExportQuoteToXLSX(doc, out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"BOM", "Quote", "Comparison"}, f.GetSheetList())

	category, _ := f.GetCellValue("BOM", "A2")
	assert.Equal(t, engine.CategoryBaseVanity, category)
	status, _ := f.GetCellValue("BOM", "K3")
	assert.Equal(t, "MISSING", status)

	client, _ := f.GetCellValue("Quote", "B4")
	assert.Equal(t, "Smith", client)

	quoteRows, err := f.GetRows("Quote")
	require.NoError(t, err)
	skus := []string{}
	for _, row := range quoteRows {
		if len(row) == 6 && row[0] != "sku" {
			skus = append(skus, row[0])
		}
	}
	assert.Equal(t, []string{"B30"}, skus, "only verified items are quoted")

	lineID, _ := f.GetCellValue("Comparison", "A3")
	assert.Equal(t, "l2", lineID)
	verified, _ := f.GetCellValue("Comparison", "E2")
	assert.Equal(t, "1", verified)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "1.5%", percent(0.015))
	assert.Equal(t, "7%", percent(0.07))
	assert.Equal(t, "8.25%", percent(0.0825))
}
