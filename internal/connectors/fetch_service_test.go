package connectors

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kabs/internal"
	"kabs/internal/storage"
)

type stubConnector struct {
	messages []internal.FetchedMailMessage
	err      error
	gotQuery string
}

func (s *stubConnector) FetchInbox(_ context.Context, _, query string, max int) ([]internal.FetchedMailMessage, error) {
	s.gotQuery = query
	if s.err != nil {
		return nil, s.err
	}
	if max < len(s.messages) {
		return s.messages[:max], nil
	}
	return s.messages, nil
}

func TestFetchAndStore(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	conn := &stubConnector{messages: []internal.FetchedMailMessage{
		{Provider: "imap", MessageID: "<a@x>", Subject: "Quote", From: "a@x", Raw: []byte("Subject: Quote\r\n\r\n2x B30\r\n")},
		{Provider: "imap", MessageID: "<b@x>", Subject: "Quote 2", From: "b@x", Raw: []byte("Subject: Quote 2\r\n\r\nW3030\r\n")},
	}}
	rawDir := filepath.Join(tmp, "raw")
	svc := NewFetchService(db, rawDir, conn, nil)

	res, err := svc.FetchAndStore(context.Background(), "INBOX", "SUBJECT quote", 10)
	require.NoError(t, err)
	assert.Equal(t, FetchResult{Fetched: 2, Stored: 2, New: 2}, res)
	assert.Equal(t, "SUBJECT quote", conn.gotQuery)

	entries, err := os.ReadDir(rawDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	res, err = svc.FetchAndStore(context.Background(), "INBOX", "", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, res.New, "messages already stored are not new")

	pending, err := db.ListQuoteRequestsByStatus("fetched", 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestFetchAndStoreConnectorError(t *testing.T) {
	db, err := storage.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	svc := NewFetchService(db, t.TempDir(), &stubConnector{err: errors.New("auth failed")}, nil)
	_, err = svc.FetchAndStore(context.Background(), "INBOX", "", 5)
	assert.Error(t, err)
}

func TestFetchAndStoreSkipsEmptyMessages(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "app.db"))
	require.NoError(t, err)
	defer db.Close()

	conn := &stubConnector{messages: []internal.FetchedMailMessage{
		{Provider: "gmail", MessageID: "<empty@x>", Subject: "Quote"},
		{Provider: "gmail", MessageID: "<ok@x>", Subject: "Quote", Raw: []byte("Subject: Quote\r\n\r\nB30\r\n")},
	}}
	svc := NewFetchService(db, filepath.Join(tmp, "raw"), conn, nil)

	res, err := svc.FetchAndStore(context.Background(), "INBOX", "", 10)
	require.NoError(t, err)
	assert.Equal(t, FetchResult{Fetched: 2, Stored: 1, New: 1, Skipped: 1}, res)

	missing, err := db.GetQuoteRequestByProviderMessageID("gmail", "<empty@x>")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
