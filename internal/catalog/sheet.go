package catalog

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"kabs/internal"
	"kabs/internal/engine"
	"kabs/internal/util"
)

const headerScanRows = 20

var (
	skuHeaders   = []string{"SKU", "ITEM", "CODE", "MODEL", "PRODUCT", "PART NO", "PART"}
	priceHeaders = []string{"PRICE", "COST", "MSRP", "LIST PRICE", "AMOUNT", "NET PRICE", "UNIT PRICE"}
)

// ParsePriceSheet reads a manufacturer price list from the first sheet of an
// xlsx workbook. Each row is stored under its normalized code and, when that
// differs, under its uppercase raw SKU as well.
func ParsePriceSheet(content []byte) (internal.LineTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open price sheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("price sheet has no worksheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read price sheet: %w", err)
	}

	headerRow, skuIdx, priceIdx := findPriceHeader(rows)
	if headerRow < 0 {
		return nil, fmt.Errorf("price sheet: no SKU/price header in the first %d rows", headerScanRows)
	}

	table := internal.LineTable{}
	for _, row := range rows[headerRow+1:] {
		sku := strings.ToUpper(strings.TrimSpace(cellAt(row, skuIdx)))
		if sku == "" {
			continue
		}
		price, ok := util.ParsePrice(cellAt(row, priceIdx))
		if !ok {
			continue
		}

		entry := internal.CatalogEntry{SKU: sku, Price: price}
		key := engine.Normalize(sku)
		if key != "" {
			if _, exists := table[key]; !exists {
				table[key] = entry
			}
		}
		if _, exists := table[sku]; !exists && key != sku {
			table[sku] = entry
		}
	}
	return table, nil
}

func ParsePriceSheetFile(path string) (internal.LineTable, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePriceSheet(content)
}

// findPriceHeader returns the header row index and the SKU and price column
// indexes, or -1 when no row carries both.
func findPriceHeader(rows [][]string) (int, int, int) {
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		headers := make([]string, len(rows[i]))
		for j, cell := range rows[i] {
			headers[j] = util.NormalizeHeader(cell)
		}
		skuIdx := matchHeader(headers, skuHeaders)
		priceIdx := matchHeader(headers, priceHeaders)
		if skuIdx >= 0 && priceIdx >= 0 && skuIdx != priceIdx {
			return i, skuIdx, priceIdx
		}
	}
	return -1, -1, -1
}

// matchHeader prefers an exact header over one that merely contains a
// candidate word.
func matchHeader(headers, candidates []string) int {
	for _, c := range candidates {
		for i, h := range headers {
			if h == c {
				return i
			}
		}
	}
	for _, c := range candidates {
		for i, h := range headers {
			if h != "" && strings.Contains(h, c) {
				return i
			}
		}
	}
	return -1
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
