package pipeline

import (
	"bytes"
	"testing"

	"github.com/jhillyerd/enmime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kabs/internal"
)

func buildEmail(t *testing.T, b enmime.MailBuilder) []byte {
	t.Helper()
	part, err := b.Build()
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	require.NoError(t, part.Encode(buf))
	return buf.Bytes()
}

func TestExtractFromEmailRawAttachments(t *testing.T) {
	sheet := mkXLSX([][]any{
		{"SKU", "Qty"},
		{"W3630", 2},
	})
	raw := buildEmail(t, enmime.Builder().
		From("Dana", "dana@example.com").
		To("Quotes", "quotes@example.com").
		Subject("Quote request").
		Text([]byte("Please price:\n2x B30\n")).
		AddAttachment(sheet, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "bom.xlsx").
		AddAttachment(sheet, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "bom (1).xlsx").
		AddAttachment([]byte("hello"), "text/plain", "notes.txt"))

	got, err := ExtractFromEmailRaw(raw)
	require.NoError(t, err)

	assert.Equal(t, "Quote request", got.Subject)
	assert.Equal(t, []string{"bom.xlsx", "bom (1).xlsx", "notes.txt"}, got.AttachmentNames)

	codes, qty := codesAndQty(got.Records)
	assert.Equal(t, []string{"B30", "W3630"}, codes, "a repeated attachment is read once")
	assert.Equal(t, []int{2, 2}, qty)
	assert.Equal(t, internal.SourceXLSX, got.Records[1].Source)
	assert.Equal(t, "bom.xlsx", got.Records[1].Meta["attachment"])
}

func TestExtractFromEmailRawPrefersHTMLTables(t *testing.T) {
	raw := buildEmail(t, enmime.Builder().
		From("Dana", "dana@example.com").
		To("Quotes", "quotes@example.com").
		Subject("Cabinets").
		Text([]byte("Code Qty\nB30 2\n")).
		HTML([]byte(`<table><tr><th>Code</th><th>Qty</th></tr><tr><td>B30</td><td>2</td></tr></table>`)))

	got, err := ExtractFromEmailRaw(raw)
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
	assert.Equal(t, internal.SourceHTMLTable, got.Records[0].Source)
	assert.Equal(t, 2, got.Records[0].Quantity)
}
