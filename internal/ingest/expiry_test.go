package ingest

import (
	"testing"
	"time"

	"github.com/bidwatch/bidwatch/models"
)

func TestNotExpiredAbsentClosingDate(t *testing.T) {
	sol := models.Solicitation{Site: "x", SiteID: "1", Title: "t"}
	if NotExpired(sol, time.Now(), 0) {
		t.Fatal("record without closing date should not pass the expiry filter")
	}
}

func TestNotExpiredBoundary(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	grace := 72 * time.Hour

	cases := []struct {
		name    string
		closing time.Time
		want    bool
	}{
		{"well in the future", now.Add(30 * 24 * time.Hour), true},
		{"just over the grace window", now.Add(grace + time.Minute), true},
		{"exactly at the grace window", now.Add(grace), false},
		{"inside the grace window", now.Add(24 * time.Hour), false},
		{"already past", now.Add(-10 * 24 * time.Hour), false},
	}
	for _, tc := range cases {
		sol := models.Solicitation{ClosingDate: tc.closing.Format(time.RFC3339)}
		if got := NotExpired(sol, now, grace); got != tc.want {
			t.Errorf("%s: NotExpired = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNotExpiredUnparseableClosingDate(t *testing.T) {
	sol := models.Solicitation{ClosingDate: "whenever"}
	if NotExpired(sol, time.Now(), 0) {
		t.Fatal("unparseable closing date should be treated as no closing date")
	}
}
