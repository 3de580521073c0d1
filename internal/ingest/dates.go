package ingest

import (
	"time"

	"github.com/araddon/dateparse"
)

// SanitizeDateString converts the varied date text scraped from listing
// sites ("Aug 18, 2025", "08/18/2025 5:00 PM", ISO timestamps) into an
// ISO-8601 string. Unparseable input yields "" — callers treat that as
// "no date" rather than an error. Sanitizing an already-ISO string is
// idempotent up to the instant it denotes.
func SanitizeDateString(raw string) string {
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// parseISO parses a sanitized date string. Empty or malformed input is
// reported through ok=false.
func parseISO(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// stored records may predate sanitization
		t, err = dateparse.ParseAny(s)
		if err != nil {
			return time.Time{}, false
		}
	}
	return t, true
}
