package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"kabs/internal"
	"kabs/internal/storage"
)

// ErrEmptyMessage is returned for a fetched message without raw content.
var ErrEmptyMessage = errors.New("empty message")

// MailStoreService keeps each raw message once on disk, named by its sha256,
// and records it as a fetched quote request.
type MailStoreService struct {
	db         *storage.DB
	rawMailDir string
}

func NewMailStoreService(db *storage.DB, rawMailDir string) *MailStoreService {
	return &MailStoreService{db: db, rawMailDir: rawMailDir}
}

func (s *MailStoreService) Store(msg internal.FetchedMailMessage) (internal.QuoteRequestRow, error) {
	if len(msg.Raw) == 0 {
		return internal.QuoteRequestRow{}, fmt.Errorf("%s message %s: %w", msg.Provider, msg.MessageID, ErrEmptyMessage)
	}
	if msg.MessageID == "" {
		return internal.QuoteRequestRow{}, fmt.Errorf("%s message without message-id", msg.Provider)
	}

	hashBytes := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.rawMailDir, 0o755); err != nil {
		return internal.QuoteRequestRow{}, err
	}

	rawPath := filepath.Join(s.rawMailDir, hash+".eml")
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
			return internal.QuoteRequestRow{}, err
		}
	}

	return s.db.UpsertQuoteRequest(msg.Provider, msg.MessageID, msg.Subject, msg.From, msg.ReceivedAt, hash, rawPath, "fetched")
}
