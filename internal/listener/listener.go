package listener

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"kabs/internal/config"
	"kabs/internal/connectors"
	gmailconnector "kabs/internal/connectors/gmail"
	imapconnector "kabs/internal/connectors/imap"
	"kabs/internal/logging"
	"kabs/internal/metrics"
	"kabs/internal/pipeline"
	"kabs/internal/storage"
)

const StatusExported = "exported"

type ConnectorFactory func(ctx context.Context, provider string) (connectors.MailConnector, error)

type Service struct {
	db           *storage.DB
	cfg          config.Config
	logger       *zap.Logger
	newConnector ConnectorFactory
}

func NewService(db *storage.DB, cfg config.Config, logger *zap.Logger) *Service {
	s := &Service{db: db, cfg: cfg, logger: logging.OrNop(logger)}
	s.newConnector = s.makeConnector
	return s
}

// WithConnectorFactory swaps how mail connectors are built.
func (s *Service) WithConnectorFactory(f ConnectorFactory) *Service {
	s.newConnector = f
	return s
}

type CycleResult struct {
	Fetched   int
	New       int
	Processed int
	Exported  int
}

// Run repeats fetch, process and export every interval until ctx is done.
// With METRICS_ADDR set it also serves /metrics for the lifetime of the loop.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: s.cfg.MetricsAddr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		s.logger.Info("metrics endpoint listening", zap.String("addr", s.cfg.MetricsAddr))
	}

	interval := time.Duration(s.cfg.MailListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("listener cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func (s *Service) RunOnce(ctx context.Context) (CycleResult, error) {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.newConnector(ctx, provider)
	if err != nil {
		return CycleResult{}, err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector, s.logger)
	fetchResult, err := fetchService.FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailSearchQuery, s.cfg.MailListenerFetchMax)
	if err != nil {
		return CycleResult{}, err
	}

	processor := pipeline.NewProcessingService(s.db, s.cfg, s.logger)
	processed, _, err := processor.ProcessPending(s.cfg.MailListenerProcessBatch, provider)
	if err != nil {
		return CycleResult{}, err
	}

	res := CycleResult{Fetched: fetchResult.Fetched, New: fetchResult.New, Processed: processed}
	if s.cfg.MailListenerAutoExport {
		exported, err := s.exportProcessed(processor, provider)
		if err != nil {
			return res, err
		}
		res.Exported = exported
	}

	s.logger.Info("listener cycle done",
		zap.String("provider", provider),
		zap.Int("fetched", res.Fetched),
		zap.Int("new", res.New),
		zap.Int("processed", res.Processed),
		zap.Int("exported", res.Exported),
	)
	return res, nil
}

func (s *Service) exportProcessed(processor *pipeline.ProcessingService, provider string) (int, error) {
	requests, err := s.db.ListQuoteRequestsByStatus(pipeline.StatusProcessed, 200)
	if err != nil {
		return 0, err
	}

	exported := 0
	for _, req := range requests {
		if req.Provider != provider {
			continue
		}
		filename := fmt.Sprintf("%d_%s.xlsx", req.ID, sanitizeMessageID(req.MessageID))
		outputPath := filepath.Join(s.cfg.OutputDir, "listener", filename)
		if err := processor.ExportRequest(req.ID, "", outputPath); err != nil {
			s.logger.Warn("quote export failed", zap.Int("request", req.ID), zap.Error(err))
			continue
		}
		if err := s.db.UpdateQuoteRequestStatus(req.ID, StatusExported); err != nil {
			return exported, err
		}
		exported++
	}
	return exported, nil
}

func (s *Service) makeConnector(ctx context.Context, provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(ctx, s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func sanitizeMessageID(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_", "@", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
