package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/bidwatch/bidwatch/config"
	"github.com/bidwatch/bidwatch/internal/scraper"
	"github.com/bidwatch/bidwatch/internal/store"
)

// Scheduler fires vendor runs on their configured cron specs. The tick is
// hourly; a vendor is due when its cron spec has a firing between the last
// run (latest ScriptLog) and now.
type Scheduler struct {
	Cfg        *config.Config
	Store      *store.Store
	Rdb        *redis.Client
	Dispatcher *scraper.Dispatcher
	Stop       chan struct{}
}

func (s *Scheduler) Start() {
	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	for _, v := range s.Cfg.Vendors {
		if !v.Enabled {
			continue
		}
		var last *time.Time
		if latest, found, err := s.Store.LatestScriptLog(ctx, v.Name); err == nil && found {
			t := latest.CreatedAt
			last = &t
		}
		if !isDue(v.CronSpec, last) {
			continue
		}

		// distributed lock to avoid duplicate runs across replicas; the
		// TTL must outlive the slowest possible run or a second replica
		// starts a duplicate while the first is still going
		if s.Rdb != nil {
			lockKey := "sched:lock:" + v.Name
			ok, _ := s.Rdb.SetNX(ctx, lockKey, "1", lockTTL(s.Cfg.Scraper)).Result()
			if !ok {
				continue
			}
		}

		go func(name string) {
			// jitter to avoid stampedes
			time.Sleep(time.Duration(250+time.Now().UnixNano()%250) * time.Millisecond)
			res := s.Dispatcher.RunVendor(ctx, name)
			if s.Rdb != nil {
				s.Rdb.Del(ctx, "sched:lock:"+name)
			}
			log.Printf("[SCHED] %s: %s (%s)", name, res.Status, res.Elapsed)
		}(v.Name)
	}
}

// lockTTL sizes the scheduler lock to the worst-case run: every page load
// hitting its timeout, doubled to cover per-row classifier and persist
// round-trips, plus slack. Never below 30 minutes.
func lockTTL(sc config.ScraperConfig) time.Duration {
	sc = sc.Normalize()
	ttl := 2*time.Duration(sc.MaxPages)*sc.PageTimeout + 10*time.Minute
	if ttl < 30*time.Minute {
		ttl = 30 * time.Minute
	}
	return ttl
}

// isDue determines whether a vendor with cronSpec should run now given its
// last run time. Supports "@hourly", "@daily", and 5-field cron expressions.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "", "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			// invalid spec falls back to daily
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
