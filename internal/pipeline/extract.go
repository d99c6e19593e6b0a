package pipeline

import (
	"bytes"
	"crypto/sha256"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"kabs/internal"
	"kabs/internal/util"
)

var ignorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^--+$`),
	regexp.MustCompile(`(?i)^thanks?\b`),
	regexp.MustCompile(`(?i)^thank you`),
	regexp.MustCompile(`(?i)^(best|kind)? ?regards`),
	regexp.MustCompile(`(?i)^(tel|phone|fax)[:\s]`),
	regexp.MustCompile(`(?i)^e-?mail[:\s]`),
	regexp.MustCompile(`(?i)^http`),
	regexp.MustCompile(`(?i)^(on .* wrote:|from:|sent:|to:|subject:)`),
	regexp.MustCompile(`^>`),
}

var (
	reCodeToken   = regexp.MustCompile(`^[A-Z]{1,5}\d{1,6}[A-Z0-9]*(?:[-.][A-Z0-9]+)*$`)
	reLabelSplit  = regexp.MustCompile(`[,;\n\r]+`)
	reHasLetter   = regexp.MustCompile(`[A-Za-z]`)
	reHasDigit    = regexp.MustCompile(`\d`)
	reNumber      = regexp.MustCompile(`\d+(?:\.\d+)?`)
	reSpaces      = regexp.MustCompile(`\s+`)
	reTokenBreaks = regexp.MustCompile(`[\s,;|()\[\]]+`)
)

// ExtractedEmail is everything intake reads out of one raw message.
type ExtractedEmail struct {
	Records         []internal.LabelRecord
	Subject         string
	Text            string
	HTML            string
	AttachmentNames []string
}

// ExtractFromEmailRaw reads labels from an .eml: HTML tables when the body
// has any, the plain text body otherwise, plus xlsx, pdf and json attachments.
func ExtractFromEmailRaw(raw []byte) (ExtractedEmail, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return ExtractedEmail{}, err
	}

	out := ExtractedEmail{Subject: env.GetHeader("Subject"), Text: env.Text, HTML: env.HTML}

	var records []internal.LabelRecord
	if env.HTML != "" {
		records = append(records, parseHTMLTables(env.HTML)...)
	}
	if len(records) == 0 && env.Text != "" {
		records = append(records, parseTextLabels(internal.SourceEmailText, env.Text)...)
	}

	seen := map[[sha256.Size]byte]struct{}{}
	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			filename = "attachment"
		}
		out.AttachmentNames = append(out.AttachmentNames, filename)

		// The same file attached twice is read once.
		sum := sha256.Sum256(att.Content)
		if _, dup := seen[sum]; dup {
			continue
		}
		seen[sum] = struct{}{}

		var extra []internal.LabelRecord
		lower := strings.ToLower(filename)
		switch {
		case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
			extra, err = parseXLSX(att.Content)
		case strings.HasSuffix(lower, ".pdf"):
			extra, err = parsePDF(att.Content)
		case strings.HasSuffix(lower, ".json"):
			extra, err = parseJSONLabels(att.Content)
		default:
			continue
		}
		if err != nil {
			continue
		}
		for i := range extra {
			if extra[i].Meta == nil {
				extra[i].Meta = map[string]any{}
			}
			extra[i].Meta["attachment"] = filename
		}
		records = append(records, extra...)
	}

	out.Records = finalizeRecords(records)
	return out, nil
}

// parseLabelList reads the comma separated label list a plan scan produces.
// Repeated labels stay separate records; consolidation sums them later.
func parseLabelList(input string) []internal.LabelRecord {
	out := []internal.LabelRecord{}
	for i, part := range reLabelSplit.Split(input, -1) {
		label := normalizeSpaces(part)
		if label == "" {
			continue
		}
		parsed := util.ParseQty(label)
		rec := newRecord(internal.SourceLabels, i+1, label, parsed.Label, "", parsed)
		out = append(out, rec)
	}
	return out
}

// parseTextLabels scans free text line by line. A line with a quantity hint
// is one label; otherwise every code-like token on it is a label of one.
func parseTextLabels(source internal.CandidateSource, text string) []internal.LabelRecord {
	out := []internal.LabelRecord{}
	for lineNo, line := range splitLines(text) {
		compact := normalizeSpaces(line)
		if compact == "" || isLikelyNoise(compact) {
			continue
		}

		parsed := util.ParseQty(compact)
		codes := codeTokens(parsed.Label)

		switch {
		case parsed.Qty != nil && len(codes) == 1:
			out = append(out, newRecord(source, lineNo+1, compact, codes[0], descriptionAround(parsed.Label, codes[0]), parsed))
		case parsed.Qty != nil && reHasLetter.MatchString(parsed.Label) && reHasDigit.MatchString(parsed.Label):
			out = append(out, newRecord(source, lineNo+1, compact, parsed.Label, "", parsed))
		default:
			for _, code := range codes {
				out = append(out, newRecord(source, lineNo+1, compact, code, "", util.ParsedQty{}))
			}
		}
	}
	return out
}

func parseHTMLTables(html string) []internal.LabelRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	out := []internal.LabelRecord{}
	rowNo := 0
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.ToLower(normalizeSpaces(cell.Text())))
		})
		codeIdx, qtyIdx, descIdx := inferColumns(headers)

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, normalizeSpaces(cell.Text()))
			})
			rowNo++
			if rec, ok := rowToRecord(internal.SourceHTMLTable, rowNo, cells, codeIdx, qtyIdx, descIdx); ok {
				rec.Meta["row"] = cells
				out = append(out, rec)
			}
		})
	})
	return out
}

func parseXLSX(content []byte) ([]internal.LabelRecord, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lineNo := 0
	out := []internal.LabelRecord{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}

		codeIdx, qtyIdx, descIdx := -1, -1, -1
		for i, row := range rows {
			cells := normalizeCells(row)
			if len(cells) == 0 {
				continue
			}
			if i < 3 && codeIdx < 0 {
				lower := make([]string, len(cells))
				for j, c := range cells {
					lower[j] = strings.ToLower(c)
				}
				codeIdx, qtyIdx, descIdx = inferColumns(lower)
				if codeIdx >= 0 {
					continue
				}
			}

			lineNo++
			if rec, ok := rowToRecord(internal.SourceXLSX, lineNo, cells, codeIdx, qtyIdx, descIdx); ok {
				rec.Meta["sheet"] = sheet
				rec.Meta["rowNumber"] = i + 1
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func parsePDF(content []byte) ([]internal.LabelRecord, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pageText, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return parseTextLabels(internal.SourcePDF, text.String()), nil
}

// rowToRecord turns a table row into a label. Without a code column the
// first code-like cell is used.
func rowToRecord(source internal.CandidateSource, lineNo int, cells []string, codeIdx, qtyIdx, descIdx int) (internal.LabelRecord, bool) {
	if len(cells) == 0 {
		return internal.LabelRecord{}, false
	}

	code := pickCell(cells, codeIdx, -1)
	if code == "" {
		for _, c := range cells {
			if util.LooksLikeCode(c) {
				code = c
				break
			}
		}
	}
	parsed := util.ParseQty(code)
	code = parsed.Label
	if code == "" || !reHasLetter.MatchString(code) {
		return internal.LabelRecord{}, false
	}

	if qtyCell := pickCell(cells, qtyIdx, -1); qtyCell != "" {
		if n, ok := cellQuantity(qtyCell); ok {
			parsed.Qty = util.IntPtr(n)
			parsed.QtyRaw = util.StringPtr(qtyCell)
		}
	}

	rec := newRecord(source, lineNo, strings.Join(cells, " | "), code, pickCell(cells, descIdx, -1), parsed)
	return rec, true
}

func newRecord(source internal.CandidateSource, lineNo int, rawLine, code, description string, parsed util.ParsedQty) internal.LabelRecord {
	qty := 1
	if parsed.Qty != nil && *parsed.Qty > 0 {
		qty = *parsed.Qty
	}
	rec := internal.LabelRecord{
		LineNo:  lineNo,
		Source:  source,
		RawLine: rawLine,
		RawCandidate: internal.RawCandidate{
			RawCode:     strings.TrimSpace(code),
			Description: strings.TrimSpace(description),
			Quantity:    qty,
		},
		Meta: map[string]any{},
	}
	if parsed.QtyRaw != nil {
		rec.Meta["qtyRaw"] = *parsed.QtyRaw
	}
	return rec
}

// cellQuantity reads a quantity column cell such as "2", "2.0" or "3 ea".
func cellQuantity(cell string) (int, bool) {
	m := reNumber.FindString(cell)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	n := int(math.Round(v))
	if n < 1 {
		n = 1
	}
	return n, true
}

func codeTokens(line string) []string {
	out := []string{}
	for _, tok := range reTokenBreaks.Split(strings.ToUpper(line), -1) {
		tok = strings.Trim(tok, ".:-")
		if reCodeToken.MatchString(tok) {
			out = append(out, tok)
		}
	}
	return out
}

// descriptionAround is the rest of a label once its code is cut out.
func descriptionAround(label, code string) string {
	idx := strings.Index(strings.ToUpper(label), code)
	if idx < 0 {
		return ""
	}
	rest := label[:idx] + " " + label[idx+len(code):]
	return strings.Trim(normalizeSpaces(rest), "-:|")
}

func inferColumns(headers []string) (codeIdx, qtyIdx, descIdx int) {
	codeIdx = findHeaderIndex(headers, []string{"code", "sku", "label", "cabinet", "item", "model", "part"})
	qtyIdx = findHeaderIndex(headers, []string{"qty", "quantity", "count", "pcs"})
	descIdx = findHeaderIndex(headers, []string{"description", "desc", "name", "notes"})
	if descIdx == codeIdx {
		descIdx = -1
	}
	return
}

func finalizeRecords(records []internal.LabelRecord) []internal.LabelRecord {
	records = filterExcluded(records)
	for i := range records {
		records[i].LineNo = i + 1
	}
	return records
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

func normalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(strings.ReplaceAll(input, "\u00A0", " "), " "))
}

func normalizeCells(row []string) []string {
	out := make([]string, 0, len(row))
	for _, c := range row {
		out = append(out, normalizeSpaces(c))
	}
	return out
}

func isLikelyNoise(line string) bool {
	for _, re := range ignorePatterns {
		if re.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

func findHeaderIndex(headers []string, probes []string) int {
	for _, probe := range probes {
		for i, h := range headers {
			if strings.Contains(h, probe) {
				return i
			}
		}
	}
	return -1
}

func pickCell(cells []string, idx int, fallback int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	if fallback >= 0 && fallback < len(cells) {
		return strings.TrimSpace(cells[fallback])
	}
	return ""
}
