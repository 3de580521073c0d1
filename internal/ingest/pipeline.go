package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/bidwatch/bidwatch/models"
)

// RelevanceClassifier is the AI gate the pipeline consults for rows that
// survive the expiry and duplicate checks.
type RelevanceClassifier interface {
	IsITRelated(ctx context.Context, sol models.Solicitation) (bool, error)
	PursueScore(ctx context.Context, sol models.Solicitation) (float64, error)
}

// Pipeline runs the filter-dedup-classify-persist sequence for one row at a
// time. Ordering matters: expired rows must make zero network calls, and
// duplicates must be dropped before the classifier is billed for them.
type Pipeline struct {
	Sink       Sink
	Classifier RelevanceClassifier
	// ExpiryGrace defaults to DefaultExpiryGrace when zero.
	ExpiryGrace time.Duration
	// Now is the evaluation clock; nil means time.Now.
	Now func() time.Time
	// ScorePursue enables the best-effort aiPursueScore backfill on accepted rows.
	ScorePursue bool
}

// Process takes one raw scraped row to its terminal outcome. Errors are
// returned alongside OutcomeFailed for logging; they never abort the batch.
func (p *Pipeline) Process(ctx context.Context, raw models.Solicitation) (Outcome, error) {
	sol, err := Normalize(raw)
	if err != nil {
		return OutcomeFailed, err
	}

	if !NotExpired(sol, p.now(), p.ExpiryGrace) {
		return OutcomeExpired, nil
	}

	exists, err := p.Sink.Exists(ctx, sol.Site, sol.SiteID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("dedup check %s/%s: %w", sol.Site, sol.SiteID, err)
	}
	if exists {
		return OutcomeDuplicate, nil
	}

	related, err := p.Classifier.IsITRelated(ctx, sol)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("classify %s/%s: %w", sol.Site, sol.SiteID, err)
	}
	if !related {
		return OutcomeNonRelevant, nil
	}

	if p.ScorePursue {
		if score, err := p.Classifier.PursueScore(ctx, sol); err == nil {
			sol.AiPursueScore = score
		}
	}

	_, created, err := p.Sink.Create(ctx, sol)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("persist %s/%s: %w", sol.Site, sol.SiteID, err)
	}
	if !created {
		// another run won the conditional write
		return OutcomeDuplicate, nil
	}
	return OutcomeSaved, nil
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
