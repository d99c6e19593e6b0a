package connectors

import (
	"context"

	"kabs/internal"
)

// MailConnector fetches raw quote request messages from a mailbox. query is
// provider specific search syntax and may be empty.
type MailConnector interface {
	FetchInbox(ctx context.Context, label, query string, max int) ([]internal.FetchedMailMessage, error)
}
