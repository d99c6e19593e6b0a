package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kabs/internal"
	"kabs/internal/config"
	"kabs/internal/engine"
	"kabs/internal/logging"
	"kabs/internal/metrics"
	"kabs/internal/storage"
)

const (
	StatusFetched   = "fetched"
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusError     = "error"
)

type ProcessingService struct {
	db     *storage.DB
	cfg    config.Config
	logger *zap.Logger
}

func NewProcessingService(db *storage.DB, cfg config.Config, logger *zap.Logger) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg, logger: logging.OrNop(logger)}
}

type ProcessResult struct {
	RequestID int
	TraceID   string
	Labels    int
	Items     int
	Lines     int
	Skipped   bool
}

func (s *ProcessingService) ProcessByProviderMessageID(provider, messageID string) (ProcessResult, error) {
	req, err := s.db.MustQuoteRequestByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessRequest(req)
}

// ProcessPending processes up to limit fetched requests, optionally only
// those of one provider. It returns the number of requests and labels done.
// A request that fails is marked error and the batch moves on.
func (s *ProcessingService) ProcessPending(limit int, provider string) (int, int, error) {
	pending, err := s.db.ListQuoteRequestsByStatus(StatusFetched, limit)
	if err != nil {
		return 0, 0, err
	}
	processedRequests := 0
	processedLabels := 0
	for _, req := range pending {
		if provider != "" && req.Provider != provider {
			continue
		}
		res, err := s.ProcessRequest(req)
		if err != nil {
			metrics.RecordRequest(req.Provider, StatusError)
			s.logger.Error("request failed", zap.Int("request", req.ID), zap.String("provider", req.Provider), zap.Error(err))
			if err := s.db.UpdateQuoteRequestStatus(req.ID, StatusError); err != nil {
				return processedRequests, processedLabels, err
			}
			continue
		}
		processedRequests++
		processedLabels += res.Labels
	}
	return processedRequests, processedLabels, nil
}

// ProcessRequest extracts the labels of a stored request and prices them
// against every manufacturer line. Earlier results for the request are
// replaced.
func (s *ProcessingService) ProcessRequest(req internal.QuoteRequestRow) (ProcessResult, error) {
	start := time.Now()
	trace := uuid.NewString()
	log := s.logger.With(zap.String("trace", trace), zap.Int("request", req.ID), zap.String("provider", req.Provider))

	raw, err := os.ReadFile(req.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}

	extracted, err := ExtractFromEmailRaw(raw)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("extract request %d: %w", req.ID, err)
	}

	detect := DetectQuoteRequest(firstNonEmpty(extracted.Subject, req.Subject), extracted.Text, extracted.HTML, extracted.AttachmentNames)
	if err := s.db.ClearRequestProcessing(req.ID); err != nil {
		return ProcessResult{}, err
	}

	if !detect.IsQuote || len(extracted.Records) == 0 {
		if err := s.db.UpdateQuoteRequestStatus(req.ID, StatusSkipped); err != nil {
			return ProcessResult{}, err
		}
		_ = s.db.InsertRun(trace, req.ID, map[string]float64{"totalMs": msSince(start)}, map[string]int{"labels": len(extracted.Records), "items": 0, "lines": 0})
		metrics.RecordRequest(req.Provider, StatusSkipped)
		log.Info("request skipped", zap.Float64("score", detect.Score), zap.Int("labels", len(extracted.Records)))
		return ProcessResult{RequestID: req.ID, TraceID: trace, Labels: len(extracted.Records), Skipped: true}, nil
	}

	for _, rec := range extracted.Records {
		if _, err := s.db.InsertLabel(req.ID, rec); err != nil {
			return ProcessResult{}, err
		}
	}
	extractMs := msSince(start)

	lines, err := s.db.ListLines()
	if err != nil {
		return ProcessResult{}, err
	}
	table, err := s.db.LoadPricingTable()
	if err != nil {
		return ProcessResult{}, err
	}
	if len(lines) == 0 {
		log.Warn("no manufacturer lines stored; labels kept unpriced")
	}

	candidates := Candidates(extracted.Records)
	opts := s.cfg.EngineOptions()
	counts := map[string]int{"labels": len(extracted.Records), "lines": len(lines)}
	items := 0
	for i := range lines {
		timer := metrics.NewTimer()
		comparison := engine.CompareLines(candidates, table, lines[i:i+1], opts)[0]
		metrics.RecordPricing(comparison.Line.ID, comparison.Items, timer.Duration())

		if err := s.db.InsertPricedItems(req.ID, comparison.Line.ID, comparison.Items); err != nil {
			return ProcessResult{}, err
		}
		items = len(comparison.Items)
		counts["verified."+comparison.Line.ID] = comparison.Stats.Verified
		counts["estimate."+comparison.Line.ID] = comparison.Stats.Estimate
		counts["missing."+comparison.Line.ID] = comparison.Stats.Missing
		log.Debug("line priced",
			zap.String("line", comparison.Line.ID),
			zap.Int("verified", comparison.Stats.Verified),
			zap.Int("estimate", comparison.Stats.Estimate),
			zap.Int("missing", comparison.Stats.Missing),
			zap.Float64("total", comparison.TotalPrice),
		)
	}
	counts["items"] = items

	if err := s.db.UpdateQuoteRequestStatus(req.ID, StatusProcessed); err != nil {
		return ProcessResult{}, err
	}
	_ = s.db.InsertRun(trace, req.ID, map[string]float64{"extractMs": extractMs, "totalMs": msSince(start)}, counts)
	metrics.RecordRequest(req.Provider, StatusProcessed)
	log.Info("request processed", zap.Int("labels", len(extracted.Records)), zap.Int("items", items), zap.Int("lines", len(lines)))

	return ProcessResult{RequestID: req.ID, TraceID: trace, Labels: len(extracted.Records), Items: items, Lines: len(lines)}, nil
}

// LoadComparisons rebuilds the per-line comparison of a processed request
// from its stored priced items.
func (s *ProcessingService) LoadComparisons(requestID int) ([]internal.LineComparison, error) {
	byLine, order, err := s.db.ListPricedItems(requestID)
	if err != nil {
		return nil, err
	}

	out := make([]internal.LineComparison, 0, len(order))
	for _, lineID := range order {
		line, err := s.db.GetLine(lineID)
		if errors.Is(err, storage.ErrNotFound) {
			line = internal.ManufacturerLine{ID: lineID, Name: lineID, Multiplier: 1}
		} else if err != nil {
			return nil, err
		}
		items := byLine[lineID]
		out = append(out, internal.LineComparison{
			Line:       line,
			Items:      items,
			Stats:      engine.Summarize(items),
			TotalPrice: engine.VerifiedTotal(items),
		})
	}
	return out, nil
}

// ExportRequest writes the quote workbook of a processed request for lineID,
// or for the configured default line when lineID is empty.
func (s *ProcessingService) ExportRequest(requestID int, lineID, outputPath string) error {
	req, err := s.db.GetQuoteRequestByID(requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return fmt.Errorf("quote request %d: %w", requestID, storage.ErrNotFound)
	}

	comparisons, err := s.LoadComparisons(requestID)
	if err != nil {
		return err
	}
	if lineID == "" {
		lineID = s.defaultLineID(comparisons)
	}

	doc, err := NewQuoteDocument(s.ProjectInfo(*req), comparisons, lineID, s.cfg.QuoteRates())
	if err != nil {
		return err
	}
	if err := ExportQuoteToXLSX(doc, outputPath); err != nil {
		return err
	}
	s.logger.Info("quote exported", zap.Int("request", requestID), zap.String("line", doc.Line.ID), zap.String("path", outputPath))
	return nil
}

// ProjectInfo fills the quote header from the dealer settings and the
// request itself.
func (s *ProcessingService) ProjectInfo(req internal.QuoteRequestRow) internal.ProjectInfo {
	date := time.Now().UTC().Format("2006-01-02")
	if t, err := time.Parse(time.RFC3339, req.ReceivedAt); err == nil {
		date = t.Format("2006-01-02")
	}
	return internal.ProjectInfo{
		DealerName:    s.cfg.DealerName,
		DealerAddress: s.cfg.DealerAddress,
		DealerPhone:   s.cfg.DealerPhone,
		ClientName:    req.Sender,
		ProjectName:   req.Subject,
		Date:          date,
		QuoteNumber:   fmt.Sprintf("Q-%06d", req.ID),
	}
}

func (s *ProcessingService) defaultLineID(comparisons []internal.LineComparison) string {
	for _, c := range comparisons {
		if c.Line.ID == s.cfg.DefaultLineID {
			return c.Line.ID
		}
	}
	return ""
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Milliseconds())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
