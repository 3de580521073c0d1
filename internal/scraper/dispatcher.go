package scraper

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bidwatch/bidwatch/config"
	"github.com/bidwatch/bidwatch/internal/ingest"
	"github.com/bidwatch/bidwatch/models"
)

// AdapterFactory builds the adapter for a named vendor. Wired from the
// vendor registry at startup; kept as a function so the dispatcher does not
// depend on the vendor library.
type AdapterFactory func(name string, vc config.VendorConfig, sc config.ScraperConfig) (VendorAdapter, error)

// VendorResult is the per-vendor outcome of a dispatched run.
type VendorResult struct {
	Vendor  string          `json:"vendor"`
	Status  string          `json:"status"`
	Stats   ingest.RunStats `json:"stats"`
	Elapsed string          `json:"elapsed"`
	Error   string          `json:"error,omitempty"`
}

// Dispatcher launches vendor runs and guarantees each one writes exactly one
// ScriptLog, whatever happens inside the vendor module.
type Dispatcher struct {
	Cfg        *config.Config
	Sink       ingest.Sink
	Classifier ingest.RelevanceClassifier
	NewAdapter AdapterFactory
	Logger     *log.Logger
}

// RunVendor executes one vendor end to end. The summary log is written in a
// deferred path so a panicking or failing vendor module still produces its
// single audit record.
func (d *Dispatcher) RunVendor(ctx context.Context, name string) (result VendorResult) {
	start := time.Now()
	stats := ingest.RunStats{}
	bookmark := map[string]interface{}{}
	var runErr error

	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("vendor panic: %v", r)
		}
		elapsed := time.Since(start).Round(time.Millisecond)
		status := "succeeded"
		message := stats.Summary()
		if runErr != nil {
			status = "failed"
			message = fmt.Sprintf("%s — error: %v", stats.Summary(), runErr)
		}
		if reason, ok := bookmark["stoppedEarly"]; ok {
			message = fmt.Sprintf("%s — stopped early (%v)", message, reason)
		}

		// one log per invocation, success or failure; log writes use a
		// fresh context so cancellation cannot drop the summary
		logCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := d.Sink.WriteLog(logCtx, models.ScriptLog{
			Script:       name,
			Message:      message,
			SuccessCount: stats.Success,
			FailCount:    stats.Fail,
			DupCount:     stats.Duplicate,
			JunkCount:    stats.Junk,
			Elapsed:      elapsed.String(),
			Data:         bookmark,
		}); err != nil {
			d.logf("[DISPATCH] %s: summary log write failed: %v", name, err)
		}

		RunFinished(name, status, time.Since(start).Seconds())
		result = VendorResult{
			Vendor:  name,
			Status:  status,
			Stats:   stats,
			Elapsed: elapsed.String(),
		}
		if runErr != nil {
			result.Error = runErr.Error()
		}
		d.logf("[DISPATCH] %s %s in %s: %s", name, status, elapsed, message)
	}()

	vendorCfg, ok := d.Cfg.Vendor(name)
	if !ok {
		runErr = fmt.Errorf("unknown vendor %q", name)
		return
	}

	adapter, err := d.NewAdapter(name, vendorCfg, d.Cfg.Scraper)
	if err != nil {
		runErr = err
		return
	}

	session, err := NewSession(vendorCfg, d.Cfg.Scraper)
	if err != nil {
		runErr = err
		return
	}
	defer session.Close()

	driver := &Driver{
		Pipeline: &ingest.Pipeline{
			Sink:        d.Sink,
			Classifier:  d.Classifier,
			ExpiryGrace: d.Cfg.Scraper.ExpiryGrace,
			ScorePursue: true,
		},
		Cfg:    d.Cfg.Scraper,
		Logger: d.Logger,
	}
	// stats and bookmark are handed in by reference so the deferred log
	// writer sees partial progress even when the adapter panics mid-page
	runErr = driver.Run(ctx, adapter, session, d.resumePage(ctx, name), &stats, bookmark)
	return
}

// resumePage picks the starting page for a run. A prior run cut off by the
// page cap left a lastPage bookmark with more data beyond it; the next run
// picks up there instead of re-walking the whole listing. Skip-streak stops
// and clean finishes restart at page 1.
func (d *Dispatcher) resumePage(ctx context.Context, name string) int {
	latest, found, err := d.Sink.LatestLog(ctx, name)
	if err != nil || !found {
		return 1
	}
	if latest.Data["stoppedEarly"] != "page cap" {
		return 1
	}
	if last, ok := pageNumber(latest.Data["lastPage"]); ok && last >= 1 {
		return last + 1
	}
	return 1
}

// pageNumber reads a page value from a bookmark bag; jsonb round-trips hand
// back float64 where in-process writes stored int.
func pageNumber(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// FanOut runs the named vendors through a bounded worker pool. Each vendor
// gets its own session and its own result; one vendor's failure never
// aborts the batch.
func (d *Dispatcher) FanOut(ctx context.Context, names []string) []VendorResult {
	workers := d.Cfg.Scraper.Concurrency
	if workers <= 0 {
		workers = 5
	}
	if workers > len(names) {
		workers = len(names)
	}

	jobs := make(chan string)
	results := make([]VendorResult, 0, len(names))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				res := d.RunVendor(ctx, name)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}

	for _, name := range names {
		jobs <- name
	}
	close(jobs)
	wg.Wait()
	return results
}

func (d *Dispatcher) logf(format string, args ...interface{}) {
	if d.Logger != nil {
		d.Logger.Printf(format, args...)
	}
}
