package gmail

import (
	"encoding/base64"
	"testing"
)

func TestReceivedAt(t *testing.T) {
	cases := []struct {
		header   string
		internal int64
		want     string
	}{
		{"Sun, 08 Feb 2026 10:00:00 +0000", 0, "2026-02-08T10:00:00Z"},
		{"Sun, 8 Feb 2026 05:00:00 -0500 (EST)", 0, "2026-02-08T10:00:00Z"},
		{"not a date", 1770544800000, "2026-02-08T10:00:00Z"},
		{"", 1770544800000, "2026-02-08T10:00:00Z"},
	}
	for _, tc := range cases {
		if got := receivedAt(tc.header, tc.internal); got != tc.want {
			t.Errorf("receivedAt(%q, %d)=%s want %s", tc.header, tc.internal, got, tc.want)
		}
	}
}

func TestDecodeBase64URL(t *testing.T) {
	raw := []byte("Subject: Quote\r\n\r\n2x B30?>")
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding} {
		got, err := decodeBase64URL(enc.EncodeToString(raw))
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != string(raw) {
			t.Fatalf("got %q", got)
		}
	}
	if _, err := decodeBase64URL("%%%"); err == nil {
		t.Fatal("expected error")
	}
}
