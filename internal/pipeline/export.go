package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"kabs/internal"
	"kabs/internal/engine"
)

const (
	sheetBOM        = "BOM"
	sheetQuote      = "Quote"
	sheetComparison = "Comparison"
)

// QuoteDocument is one priced request ready for export: the BOM priced
// against the quoted line plus the comparison across every line.
type QuoteDocument struct {
	Project     internal.ProjectInfo
	Line        internal.ManufacturerLine
	Items       []internal.PricedBOMItem
	Summary     internal.QuoteSummary
	Rates       engine.QuoteRates
	Comparisons []internal.LineComparison
}

// NewQuoteDocument quotes the comparison entry for lineID, or the first
// entry when lineID is empty.
func NewQuoteDocument(project internal.ProjectInfo, comparisons []internal.LineComparison, lineID string, rates engine.QuoteRates) (QuoteDocument, error) {
	if len(comparisons) == 0 {
		return QuoteDocument{}, fmt.Errorf("no manufacturer lines to quote against")
	}

	chosen := -1
	for i, c := range comparisons {
		if lineID == "" || c.Line.ID == lineID {
			chosen = i
			break
		}
	}
	if chosen < 0 {
		return QuoteDocument{}, fmt.Errorf("line %s is not priced for this request", lineID)
	}

	c := comparisons[chosen]
	return QuoteDocument{
		Project:     project,
		Line:        c.Line,
		Items:       c.Items,
		Summary:     engine.BuildQuote(c.Items, c.Line, rates),
		Rates:       rates,
		Comparisons: comparisons,
	}, nil
}

func ExportQuoteToXLSX(doc QuoteDocument, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetBOM); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetQuote); err != nil {
		return err
	}
	if _, err := f.NewSheet(sheetComparison); err != nil {
		return err
	}

	writeBOMSheet(f, doc)
	writeQuoteSheet(f, doc)
	writeComparisonSheet(f, doc)
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
}

func (w *sheetWriter) write(values ...any) {
	w.row++
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, w.row)
		_ = w.f.SetCellValue(w.sheet, cell, v)
	}
}

func (w *sheetWriter) skip() {
	w.row++
}

func writeBOMSheet(f *excelize.File, doc QuoteDocument) {
	w := &sheetWriter{f: f, sheet: sheetBOM}
	w.write(
		"category", "raw_code", "sku", "normalized_code", "description", "type", "dimensions",
		"qty", "unit_price", "total_price", "status", "match_type", "matched_code", "pricing_method", "details",
	)

	groups := engine.GroupByCategory(doc.Items)
	for _, category := range engine.CategoryOrder {
		items := groups[category]
		if len(items) == 0 {
			continue
		}
		for _, it := range items {
			w.write(
				category,
				it.RawCode,
				it.SKU,
				it.NormalizedCode,
				it.Description,
				string(it.Dimensions.Type),
				engine.DimensionLabel(it.Dimensions),
				it.Quantity,
				it.UnitPrice,
				it.TotalPrice,
				statusLabel(it.VerificationStatus),
				string(it.VerificationProof.MatchType),
				it.VerificationProof.MatchedCode,
				string(it.VerificationProof.PricingMethod),
				it.VerificationProof.CalculationDetails,
			)
		}
	}
}

// statusLabel flags missing items so that they stand out in review.
func statusLabel(s internal.VerificationStatus) string {
	if s == internal.StatusMissing {
		return "MISSING"
	}
	return string(s)
}

func writeQuoteSheet(f *excelize.File, doc QuoteDocument) {
	w := &sheetWriter{f: f, sheet: sheetQuote}
	p := doc.Project

	w.write("Dealer", p.DealerName)
	w.write("Dealer address", p.DealerAddress)
	w.write("Dealer phone", p.DealerPhone)
	w.write("Client", p.ClientName)
	w.write("Project", p.ProjectName)
	w.write("Address", p.Address)
	w.write("Date", p.Date)
	w.write("Quote #", p.QuoteNumber)
	w.write("Line", fmt.Sprintf("%s (%s)", doc.Line.Name, doc.Line.Tier))
	if doc.Line.Finish != "" {
		w.write("Finish", doc.Line.Finish)
	}
	w.skip()

	w.write("sku", "description", "dimensions", "qty", "unit_price", "total_price")
	for _, it := range doc.Items {
		if it.VerificationStatus != internal.StatusVerified {
			continue
		}
		description := it.Description
		if description == "" {
			description = it.RawCode
		}
		w.write(it.SKU, description, engine.DimensionLabel(it.Dimensions), it.Quantity, it.UnitPrice, it.TotalPrice)
	}
	w.skip()

	s := doc.Summary
	w.write("Subtotal", s.Subtotal)
	if s.FinishPremium != 0 {
		w.write("Finish premium", s.FinishPremium)
	}
	w.write("Shipping", s.Shipping)
	w.write(fmt.Sprintf("Surcharge (%s)", percent(doc.Rates.SurchargeRate)), s.Surcharge)
	w.write(fmt.Sprintf("Tax (%s)", percent(doc.Rates.TaxRate)), s.Tax)
	w.write("Grand total", s.GrandTotal)
	if s.ExcludedItems > 0 {
		w.skip()
		w.write(fmt.Sprintf("%d item(s) not verified are left out of this quote; see the BOM sheet.", s.ExcludedItems))
	}
}

func writeComparisonSheet(f *excelize.File, doc QuoteDocument) {
	w := &sheetWriter{f: f, sheet: sheetComparison}
	w.write("line_id", "line", "tier", "items", "verified", "estimate", "missing", "verified_total", "grand_total")
	for _, c := range doc.Comparisons {
		q := engine.BuildQuote(c.Items, c.Line, doc.Rates)
		w.write(
			c.Line.ID,
			c.Line.Name,
			string(c.Line.Tier),
			c.Stats.Total,
			c.Stats.Verified,
			c.Stats.Estimate,
			c.Stats.Missing,
			c.TotalPrice,
			q.GrandTotal,
		)
	}
}

func percent(rate float64) string {
	s := fmt.Sprintf("%.2f", rate*100)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return s + "%"
}
