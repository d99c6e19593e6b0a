package pipeline

import (
	"fmt"
	"os"

	"kabs/internal"
)

// Input types accepted by ExtractCandidatesFromInput. labels, json and html
// take the content itself; xlsx, pdf and email take a file path.
const (
	InputLabels = "labels"
	InputJSON   = "json"
	InputHTML   = "html"
	InputXLSX   = "xlsx"
	InputPDF    = "pdf"
	InputEmail  = "email"
)

func ExtractCandidatesFromInput(inputType string, input string) ([]internal.LabelRecord, error) {
	var (
		records []internal.LabelRecord
		err     error
	)
	switch inputType {
	case InputLabels:
		records = parseLabelList(input)
	case InputJSON:
		records, err = parseJSONLabels([]byte(input))
	case InputHTML:
		records = parseHTMLTables(input)
	case InputXLSX:
		blob, readErr := os.ReadFile(input)
		if readErr != nil {
			return nil, readErr
		}
		records, err = parseXLSX(blob)
	case InputPDF:
		blob, readErr := os.ReadFile(input)
		if readErr != nil {
			return nil, readErr
		}
		records, err = parsePDF(blob)
	case InputEmail:
		blob, readErr := os.ReadFile(input)
		if readErr != nil {
			return nil, readErr
		}
		extracted, extractErr := ExtractFromEmailRaw(blob)
		if extractErr != nil {
			return nil, extractErr
		}
		return extracted.Records, nil
	default:
		return nil, fmt.Errorf("unsupported input type: %s", inputType)
	}
	if err != nil {
		return nil, err
	}
	return finalizeRecords(records), nil
}

// Candidates strips the provenance off intake records.
func Candidates(records []internal.LabelRecord) []internal.RawCandidate {
	out := make([]internal.RawCandidate, 0, len(records))
	for _, r := range records {
		out = append(out, r.RawCandidate)
	}
	return out
}
