package ingest

import (
	"context"
	"log"

	"github.com/bidwatch/bidwatch/internal/search"
	"github.com/bidwatch/bidwatch/internal/store"
	"github.com/bidwatch/bidwatch/models"
)

// Sink is where accepted records and run summaries land. Scraper runs use
// either the internal REST API (APISink) or Postgres directly (StoreSink,
// scheduled-job contexts).
type Sink interface {
	// Exists reports whether a record with the same (site, siteId) is
	// already stored. The check always includes nonRelevant records so
	// triaged-out items are not re-ingested.
	Exists(ctx context.Context, site, siteID string) (bool, error)
	// Create persists a record. created=false means the storage layer
	// saw an existing (site, siteId) row and did nothing.
	Create(ctx context.Context, sol models.Solicitation) (models.Solicitation, bool, error)
	// WriteLog appends one run-summary record.
	WriteLog(ctx context.Context, l models.ScriptLog) error
	// LatestLog returns the most recent run summary for a script. Runs use
	// it to recover the paging bookmark a capped run left behind.
	LatestLog(ctx context.Context, script string) (models.ScriptLog, bool, error)
}

// StoreSink writes straight to Postgres and mirrors creates into the local
// search index.
type StoreSink struct {
	Store  *store.Store
	Search *search.Index
}

func (s *StoreSink) Exists(ctx context.Context, site, siteID string) (bool, error) {
	return s.Store.ExistsSolicitation(ctx, site, siteID)
}

func (s *StoreSink) Create(ctx context.Context, sol models.Solicitation) (models.Solicitation, bool, error) {
	saved, created, err := s.Store.CreateSolicitation(ctx, sol)
	if err != nil {
		return models.Solicitation{}, false, err
	}
	if created && s.Search != nil {
		if err := s.Search.IndexSolicitation(saved); err != nil {
			// the row is durable; a stale mirror is repairable
			log.Printf("[SINK] search mirror index failed for %s: %v", saved.ID, err)
		}
	}
	return saved, created, nil
}

func (s *StoreSink) WriteLog(ctx context.Context, l models.ScriptLog) error {
	_, err := s.Store.CreateScriptLog(ctx, l)
	return err
}

func (s *StoreSink) LatestLog(ctx context.Context, script string) (models.ScriptLog, bool, error) {
	return s.Store.LatestScriptLog(ctx, script)
}
