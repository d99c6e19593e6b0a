package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"kabs/internal"
	"kabs/internal/config"
	"kabs/internal/logging"
	"kabs/internal/storage"
)

const (
	metaLastPull   = "catalog.last_pull"
	metaLastImport = "catalog.last_import."
)

type SyncService struct {
	db     *storage.DB
	client *Client
	cfg    config.Config
	logger *zap.Logger
}

func NewSyncService(db *storage.DB, cfg config.Config, logger *zap.Logger) *SyncService {
	return &SyncService{db: db, client: NewClient(cfg), cfg: cfg, logger: logging.OrNop(logger)}
}

// Pull mirrors every line and price list from the price store into the local
// database. Price lists of lines the store did not list are ignored.
func (s *SyncService) Pull(ctx context.Context) (int, int, error) {
	lines, err := s.client.GetLines(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("pull lines: %w", err)
	}
	pricing, err := s.client.GetPricing(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("pull pricing: %w", err)
	}

	if err := s.db.UpsertLines(lines); err != nil {
		return 0, 0, err
	}

	known := make(map[string]bool, len(lines))
	items := 0
	for _, line := range lines {
		known[line.ID] = true
		table := pricing[line.ID]
		if err := s.db.ReplacePricing(line.ID, table); err != nil {
			return 0, 0, fmt.Errorf("store pricing for %s: %w", line.ID, err)
		}
		items += len(table)
	}
	for lineID, table := range pricing {
		if !known[lineID] {
			s.logger.Warn("pricing for unknown line skipped", zap.String("line", lineID), zap.Int("rows", len(table)))
		}
	}

	if err := s.writeSnapshot(lines, pricing); err != nil {
		s.logger.Warn("price store snapshot not written", zap.Error(err))
	}
	_ = s.db.SetMetadata(metaLastPull, time.Now().UTC().Format(time.RFC3339))

	s.logger.Info("price store pulled", zap.Int("lines", len(lines)), zap.Int("items", items))
	return len(lines), items, nil
}

// ImportSheet replaces the price list of an existing line with the contents
// of an xlsx price sheet.
func (s *SyncService) ImportSheet(lineID, path string) (int, error) {
	if _, err := s.db.GetLine(lineID); err != nil {
		return 0, err
	}

	table, err := ParsePriceSheetFile(path)
	if err != nil {
		return 0, err
	}
	if len(table) == 0 {
		return 0, fmt.Errorf("price sheet %s has no priced rows", path)
	}
	if err := s.db.ReplacePricing(lineID, table); err != nil {
		return 0, err
	}

	_ = s.db.SetMetadata(metaLastImport+lineID, time.Now().UTC().Format(time.RFC3339))
	s.logger.Info("price sheet imported", zap.String("line", lineID), zap.String("path", path), zap.Int("keys", len(table)))
	return len(table), nil
}

// AddLine creates a line for the tier and seeds it with starter prices.
func (s *SyncService) AddLine(name string, tier internal.LineTier) (internal.ManufacturerLine, error) {
	line := NewLine(name, tier)
	if line.Name == "" {
		return internal.ManufacturerLine{}, fmt.Errorf("line name is required")
	}
	if err := s.db.UpsertLines([]internal.ManufacturerLine{line}); err != nil {
		return internal.ManufacturerLine{}, err
	}
	if err := s.db.ReplacePricing(line.ID, StarterPricing(line)); err != nil {
		return internal.ManufacturerLine{}, err
	}
	s.logger.Info("line added", zap.String("line", line.ID), zap.String("name", line.Name), zap.String("tier", string(line.Tier)))
	return line, nil
}

type snapshot struct {
	PulledAt string                      `json:"pulledAt"`
	Lines    []internal.ManufacturerLine `json:"lines"`
	Pricing  internal.PricingTable       `json:"pricing"`
}

func (s *SyncService) writeSnapshot(lines []internal.ManufacturerLine, pricing internal.PricingTable) error {
	if s.cfg.OutputDir == "" {
		return nil
	}
	blob, err := json.MarshalIndent(snapshot{
		PulledAt: time.Now().UTC().Format(time.RFC3339),
		Lines:    lines,
		Pricing:  pricing,
	}, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.cfg.OutputDir, "price-store-snapshot.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}
