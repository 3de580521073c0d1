package ingest

import "fmt"

// Outcome is the terminal disposition of one scraped row.
type Outcome string

const (
	OutcomeSaved       Outcome = "saved"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeExpired     Outcome = "expired"
	OutcomeNonRelevant Outcome = "non_relevant"
	OutcomeFailed      Outcome = "failed"
)

// RunStats accumulates per-run counters. It is a plain value threaded
// through the run and returned with it, never shared module state, so a
// vendor module reused across concurrent runs cannot leak counts.
type RunStats struct {
	Success   int `json:"successCount"`
	Duplicate int `json:"dupCount"`
	Junk      int `json:"junkCount"`
	Fail      int `json:"failCount"`
}

// Record tallies one row outcome. Expired and non-relevant rows both count
// as junk in the run summary.
func (s *RunStats) Record(o Outcome) {
	switch o {
	case OutcomeSaved:
		s.Success++
	case OutcomeDuplicate:
		s.Duplicate++
	case OutcomeExpired, OutcomeNonRelevant:
		s.Junk++
	case OutcomeFailed:
		s.Fail++
	}
}

// Total returns the number of rows accounted for.
func (s RunStats) Total() int {
	return s.Success + s.Duplicate + s.Junk + s.Fail
}

// Summary renders the operator-facing one-line run message.
func (s RunStats) Summary() string {
	return fmt.Sprintf("saved=%d dup=%d junk=%d fail=%d", s.Success, s.Duplicate, s.Junk, s.Fail)
}
