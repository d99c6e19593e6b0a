package connectors

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"kabs/internal/logging"
	"kabs/internal/storage"
)

type FetchService struct {
	db        *storage.DB
	connector MailConnector
	store     *MailStoreService
	logger    *zap.Logger
}

type FetchResult struct {
	Fetched int
	Stored  int
	New     int
	Skipped int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector, logger *zap.Logger) *FetchService {
	return &FetchService{
		db:        db,
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
		logger:    logging.OrNop(logger),
	}
}

func (s *FetchService) FetchAndStore(ctx context.Context, label, query string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, query, max)
	if err != nil {
		return FetchResult{}, err
	}

	res := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		existing, err := s.db.GetQuoteRequestByProviderMessageID(msg.Provider, msg.MessageID)
		if err != nil {
			return res, err
		}
		if _, err := s.store.Store(msg); errors.Is(err, ErrEmptyMessage) {
			s.logger.Warn("skipping empty message", zap.String("provider", msg.Provider), zap.String("messageId", msg.MessageID))
			res.Skipped++
			continue
		} else if err != nil {
			return res, err
		}
		res.Stored++
		if existing == nil {
			res.New++
		}
	}

	s.logger.Info("mail fetched", zap.String("label", label), zap.Int("fetched", res.Fetched), zap.Int("new", res.New), zap.Int("skipped", res.Skipped))
	return res, nil
}
