package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bidwatch/bidwatch/models"
)

// memSink records every call so tests can assert what the pipeline touched.
type memSink struct {
	existing map[string]bool
	created  []models.Solicitation
	logs     []models.ScriptLog

	existsCalls int
	createCalls int
	existsErr   error
	createErr   error
	// conflict simulates losing the conditional write to a concurrent run.
	conflict bool
}

func key(site, siteID string) string { return site + "/" + siteID }

func (m *memSink) Exists(ctx context.Context, site, siteID string) (bool, error) {
	m.existsCalls++
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.existing[key(site, siteID)], nil
}

func (m *memSink) Create(ctx context.Context, sol models.Solicitation) (models.Solicitation, bool, error) {
	m.createCalls++
	if m.createErr != nil {
		return models.Solicitation{}, false, m.createErr
	}
	if m.conflict {
		return sol, false, nil
	}
	m.created = append(m.created, sol)
	return sol, true, nil
}

func (m *memSink) WriteLog(ctx context.Context, l models.ScriptLog) error {
	m.logs = append(m.logs, l)
	return nil
}

func (m *memSink) LatestLog(ctx context.Context, script string) (models.ScriptLog, bool, error) {
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].Script == script {
			return m.logs[i], true, nil
		}
	}
	return models.ScriptLog{}, false, nil
}

// countingClassifier gives a fixed verdict and counts how often it is asked.
type countingClassifier struct {
	related bool
	err     error
	score   float64
	calls   int
}

func (c *countingClassifier) IsITRelated(ctx context.Context, sol models.Solicitation) (bool, error) {
	c.calls++
	return c.related, c.err
}

func (c *countingClassifier) PursueScore(ctx context.Context, sol models.Solicitation) (float64, error) {
	return c.score, nil
}

func fixedNow() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func row(siteID string, closing time.Time) models.Solicitation {
	return models.Solicitation{
		Site:        "eprocure",
		SiteID:      siteID,
		Title:       "Managed IT Services RFP " + siteID,
		ClosingDate: closing.Format(time.RFC3339),
	}
}

func TestProcessSavesFreshRelevantRow(t *testing.T) {
	sink := &memSink{existing: map[string]bool{}}
	cls := &countingClassifier{related: true}
	p := &Pipeline{Sink: sink, Classifier: cls, Now: fixedNow}

	out, err := p.Process(context.Background(), row("1001", fixedNow().Add(30*24*time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != OutcomeSaved {
		t.Fatalf("outcome = %s, want saved", out)
	}
	if len(sink.created) != 1 {
		t.Fatalf("created %d rows, want 1", len(sink.created))
	}
	if got := sink.created[0].CnStatus; got != models.StatusNew {
		t.Fatalf("cnStatus = %q, want %q", got, models.StatusNew)
	}
}

func TestProcessExpiredRowMakesNoCalls(t *testing.T) {
	sink := &memSink{existing: map[string]bool{}}
	cls := &countingClassifier{related: true}
	p := &Pipeline{Sink: sink, Classifier: cls, Now: fixedNow}

	// closes tomorrow: inside the 3-day grace window
	out, err := p.Process(context.Background(), row("1002", fixedNow().Add(24*time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != OutcomeExpired {
		t.Fatalf("outcome = %s, want expired", out)
	}
	if sink.existsCalls != 0 || sink.createCalls != 0 || cls.calls != 0 {
		t.Fatalf("expired row reached the network: exists=%d create=%d classify=%d",
			sink.existsCalls, sink.createCalls, cls.calls)
	}
}

func TestProcessDuplicateSkipsClassifier(t *testing.T) {
	sink := &memSink{existing: map[string]bool{key("eprocure", "1003"): true}}
	cls := &countingClassifier{related: true}
	p := &Pipeline{Sink: sink, Classifier: cls, Now: fixedNow}

	out, err := p.Process(context.Background(), row("1003", fixedNow().Add(30*24*time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != OutcomeDuplicate {
		t.Fatalf("outcome = %s, want duplicate", out)
	}
	if cls.calls != 0 {
		t.Fatalf("classifier called %d times for a known duplicate", cls.calls)
	}
	if sink.createCalls != 0 {
		t.Fatal("duplicate row must not be written")
	}
}

func TestProcessNonRelevantRow(t *testing.T) {
	sink := &memSink{existing: map[string]bool{}}
	p := &Pipeline{Sink: sink, Classifier: &countingClassifier{related: false}, Now: fixedNow}

	out, err := p.Process(context.Background(), row("1004", fixedNow().Add(30*24*time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != OutcomeNonRelevant {
		t.Fatalf("outcome = %s, want non_relevant", out)
	}
	if sink.createCalls != 0 {
		t.Fatal("non-relevant row must not be written")
	}
}

func TestProcessClassifierErrorIsFailure(t *testing.T) {
	sink := &memSink{existing: map[string]bool{}}
	p := &Pipeline{
		Sink:       sink,
		Classifier: &countingClassifier{err: errors.New("rate limited")},
		Now:        fixedNow,
	}

	out, err := p.Process(context.Background(), row("1005", fixedNow().Add(30*24*time.Hour)))
	if err == nil {
		t.Fatal("classifier error should surface")
	}
	if out != OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", out)
	}
}

func TestProcessConcurrentWriteLoss(t *testing.T) {
	sink := &memSink{existing: map[string]bool{}, conflict: true}
	p := &Pipeline{Sink: sink, Classifier: &countingClassifier{related: true}, Now: fixedNow}

	out, err := p.Process(context.Background(), row("1006", fixedNow().Add(30*24*time.Hour)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != OutcomeDuplicate {
		t.Fatalf("losing the conditional write should report duplicate, got %s", out)
	}
}

func TestProcessMissingIdentity(t *testing.T) {
	sink := &memSink{existing: map[string]bool{}}
	p := &Pipeline{Sink: sink, Classifier: &countingClassifier{related: true}, Now: fixedNow}

	out, err := p.Process(context.Background(), models.Solicitation{Title: "no identity"})
	if err == nil || out != OutcomeFailed {
		t.Fatalf("row without site/siteId should fail, got %s (%v)", out, err)
	}
}

func TestProcessPursueScoreBackfill(t *testing.T) {
	sink := &memSink{existing: map[string]bool{}}
	p := &Pipeline{
		Sink:        sink,
		Classifier:  &countingClassifier{related: true, score: 0.7},
		Now:         fixedNow,
		ScorePursue: true,
	}

	if _, err := p.Process(context.Background(), row("1007", fixedNow().Add(30*24*time.Hour))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.created) != 1 || sink.created[0].AiPursueScore != 0.7 {
		t.Fatalf("aiPursueScore not backfilled: %+v", sink.created)
	}
}

func TestRunStatsRecord(t *testing.T) {
	var s RunStats
	for _, o := range []Outcome{
		OutcomeSaved, OutcomeSaved,
		OutcomeDuplicate,
		OutcomeExpired, OutcomeNonRelevant,
		OutcomeFailed,
	} {
		s.Record(o)
	}
	if s.Success != 2 || s.Duplicate != 1 || s.Junk != 2 || s.Fail != 1 {
		t.Fatalf("stats = %+v", s)
	}
	if s.Total() != 6 {
		t.Fatalf("total = %d, want 6", s.Total())
	}
	if got := s.Summary(); got != "saved=2 dup=1 junk=2 fail=1" {
		t.Fatalf("summary = %q", got)
	}
}
