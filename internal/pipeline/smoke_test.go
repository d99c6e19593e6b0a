package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kabs/internal"
	"kabs/internal/config"
	"kabs/internal/storage"
)

func seedStore(t *testing.T) (*storage.DB, string) {
	t.Helper()
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.UpsertLines([]internal.ManufacturerLine{{
		ID: "line_builder", Name: "Builder Grade", Tier: internal.TierBudget, Multiplier: 1, ShippingFactor: 0.05,
		Rates: &internal.LineRates{WallPerFoot: 150},
	}}))
	require.NoError(t, db.ReplacePricing("line_builder", internal.LineTable{
		"B30":  {SKU: "BG-B30", Price: 250},
		"SB36": {SKU: "BG-SB36", Price: 410},
	}))
	return db, tmp
}

func storeRaw(t *testing.T, db *storage.DB, dir, messageID string, raw []byte) internal.QuoteRequestRow {
	t.Helper()
	rawPath := filepath.Join(dir, messageID+".eml")
	require.NoError(t, os.WriteFile(rawPath, raw, 0o644))
	req, err := db.UpsertQuoteRequest("gmail", messageID, "", "dana@example.com", "2026-02-08T10:00:00Z", "hash", rawPath, StatusFetched)
	require.NoError(t, err)
	return req
}

func TestSmokeEmailToXLSX(t *testing.T) {
	db, tmp := seedStore(t)

	raw, err := os.ReadFile(filepath.Join("testdata", "sample_quote.eml"))
	require.NoError(t, err)
	req := storeRaw(t, db, tmp, "fixture-1", raw)

	cfg, _ := config.Load()
	cfg.DefaultLineID = "line_builder"
	proc := NewProcessingService(db, cfg, nil)

	res, err := proc.ProcessRequest(req)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 3, res.Labels)
	assert.Equal(t, 3, res.Items)
	assert.Equal(t, 1, res.Lines)

	stored, err := db.GetQuoteRequestByID(req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, stored.Status)

	comparisons, err := proc.LoadComparisons(req.ID)
	require.NoError(t, err)
	require.Len(t, comparisons, 1)
	assert.Equal(t, 3, comparisons[0].Stats.Verified)
	// 2 x 250 + 2 x (30/12 LF x 150) + 410
	assert.Equal(t, 1660.0, comparisons[0].TotalPrice)

	out := filepath.Join(tmp, "result.xlsx")
	require.NoError(t, proc.ExportRequest(req.ID, "", out))
	_, err = os.Stat(out)
	require.NoError(t, err)

	// Processing again replaces the earlier results.
	_, err = proc.ProcessRequest(req)
	require.NoError(t, err)
	labels, err := db.ListLabels(req.ID)
	require.NoError(t, err)
	assert.Len(t, labels, 3)
}

func TestProcessSkipsChatter(t *testing.T) {
	db, tmp := seedStore(t)
	raw := []byte("From: friend@example.com\r\nTo: quotes@example.com\r\nSubject: Lunch?\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\nSee you at noon.\r\n")
	req := storeRaw(t, db, tmp, "chatter-1", raw)

	cfg, _ := config.Load()
	proc := NewProcessingService(db, cfg, nil)

	done, labels, err := proc.ProcessPending(10, "")
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	assert.Equal(t, 0, labels)

	stored, err := db.GetQuoteRequestByID(req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, stored.Status)
}

func TestProcessPendingContinuesAfterFailure(t *testing.T) {
	db, tmp := seedStore(t)

	broken, err := db.UpsertQuoteRequest("gmail", "gone-1", "Quote", "dana@example.com", "2026-02-08T09:00:00Z", "hash0", filepath.Join(tmp, "missing.eml"), StatusFetched)
	require.NoError(t, err)
	raw, err := os.ReadFile(filepath.Join("testdata", "sample_quote.eml"))
	require.NoError(t, err)
	good := storeRaw(t, db, tmp, "fixture-2", raw)

	cfg, _ := config.Load()
	proc := NewProcessingService(db, cfg, nil)

	done, labels, err := proc.ProcessPending(10, "")
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	assert.Equal(t, 3, labels)

	stored, err := db.GetQuoteRequestByID(broken.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusError, stored.Status)

	stored, err = db.GetQuoteRequestByID(good.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessed, stored.Status)

	// Failed requests are not picked up again.
	done, _, err = proc.ProcessPending(10, "")
	require.NoError(t, err)
	assert.Equal(t, 0, done)
}
