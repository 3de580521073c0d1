package server

import (
	"testing"
	"time"

	"github.com/bidwatch/bidwatch/config"
)

func TestLockTTLCoversWorstCaseRun(t *testing.T) {
	// defaults: 20 pages at a 90s timeout each, doubled, plus slack
	ttl := lockTTL(config.ScraperConfig{MaxPages: 20, PageTimeout: 90 * time.Second})
	if ttl < 70*time.Minute {
		t.Fatalf("ttl = %s, must cover a run where every page hits its timeout", ttl)
	}

	// zero config picks up the normalized defaults, not a zero TTL
	if got := lockTTL(config.ScraperConfig{}); got != ttl {
		t.Fatalf("zero config ttl = %s, want %s", got, ttl)
	}

	// tiny configs still keep the floor
	if got := lockTTL(config.ScraperConfig{MaxPages: 2, PageTimeout: time.Second}); got < 30*time.Minute {
		t.Fatalf("ttl = %s, want the 30m floor", got)
	}
}

func TestIsDueNeverRan(t *testing.T) {
	for _, spec := range []string{"", "@hourly", "@daily", "0 6 * * *", "not a cron spec"} {
		if !isDue(spec, nil) {
			t.Errorf("spec %q: a vendor that never ran is always due", spec)
		}
	}
}

func TestIsDueHourly(t *testing.T) {
	recent := time.Now().Add(-10 * time.Minute)
	if isDue("@hourly", &recent) {
		t.Error("ran 10 minutes ago, should not be due")
	}
	stale := time.Now().Add(-2 * time.Hour)
	if !isDue("@hourly", &stale) {
		t.Error("ran 2 hours ago, should be due")
	}
}

func TestIsDueDaily(t *testing.T) {
	recent := time.Now().Add(-3 * time.Hour)
	if isDue("@daily", &recent) {
		t.Error("ran 3 hours ago, should not be due")
	}
	stale := time.Now().Add(-25 * time.Hour)
	if !isDue("@daily", &stale) {
		t.Error("ran 25 hours ago, should be due")
	}
}

func TestIsDueCronExpression(t *testing.T) {
	// daily at 06:00; last run two days ago means at least one firing passed
	stale := time.Now().Add(-48 * time.Hour)
	if !isDue("0 6 * * *", &stale) {
		t.Error("a firing has passed since the last run, should be due")
	}
	// just ran; next 06:00 firing is still in the future
	now := time.Now()
	if isDue("0 6 * * *", &now) {
		t.Error("no firing since the last run, should not be due")
	}
}
