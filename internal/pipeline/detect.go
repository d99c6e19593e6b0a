package pipeline

import (
	"path/filepath"
	"strings"
)

// DetectResult is the verdict on one inbound message. Signals lists the
// cues that contributed to Score, in evaluation order.
type DetectResult struct {
	IsQuote bool
	Score   float64
	Reason  string
	Signals []string
}

const (
	detectThreshold   = 0.45
	subjectWeight     = 0.2
	bodyWeight        = 0.1
	manyCodesWeight   = 0.4
	oneCodeWeight     = 0.2
	attachmentWeight  = 0.25
	htmlTableWeight   = 0.25
	minCodesForStrong = 2
)

var detectKeywords = []string{"quote", "quotation", "estimate", "pricing", "price", "bid", "cabinet", "kitchen", "bom", "takeoff", "qty"}

// bomAttachmentExts are attachment types that usually carry a cabinet list.
var bomAttachmentExts = map[string]bool{".xlsx": true, ".xls": true, ".pdf": true, ".json": true}

// DetectQuoteRequest scores an inbound message on keywords, cabinet codes in
// the body, tables and attachments. A score of 0.45 or more is a request.
func DetectQuoteRequest(subject, text, html string, attachmentNames []string) DetectResult {
	var (
		score   float64
		signals []string
	)
	add := func(weight float64, signal string) {
		score += weight
		signals = append(signals, signal)
	}

	lowerSubject := strings.ToLower(subject)
	lowerBody := strings.ToLower(text) + "\n" + strings.ToLower(html)
	for _, kw := range detectKeywords {
		if strings.Contains(lowerSubject, kw) {
			add(subjectWeight, "subject:"+kw)
		}
		if strings.Contains(lowerBody, kw) {
			add(bodyWeight, "body:"+kw)
		}
	}

	switch codes := countCodeTokens(text); {
	case codes >= minCodesForStrong:
		add(manyCodesWeight, "codes")
	case codes == 1:
		add(oneCodeWeight, "code")
	}

	for _, name := range attachmentNames {
		if bomAttachmentExts[strings.ToLower(filepath.Ext(name))] {
			add(attachmentWeight, "attachment:"+name)
			break
		}
	}

	if strings.Contains(strings.ToLower(html), "<table") {
		add(htmlTableWeight, "html_table")
	}
	if score > 1 {
		score = 1
	}

	res := DetectResult{IsQuote: score >= detectThreshold, Score: score, Signals: signals, Reason: "rules_negative"}
	if res.IsQuote {
		res.Reason = "rules_positive"
	}
	return res
}

func countCodeTokens(text string) int {
	count := 0
	for _, line := range splitLines(text) {
		count += len(codeTokens(line))
	}
	return count
}
