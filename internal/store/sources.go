package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bidwatch/bidwatch/models"
)

// UpsertSource creates or updates a directory entry keyed by Source.Key.
// Fallback-create semantics: a PATCH against an unknown key inserts it.
func (s *Store) UpsertSource(ctx context.Context, src models.Source) (models.Source, error) {
	if strings.TrimSpace(src.Key) == "" {
		return models.Source{}, fmt.Errorf("source key required")
	}
	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	row := s.DB.QueryRowContext(ctx, `
INSERT INTO sources (id, name, key, type, site_url)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (key) DO UPDATE SET
  name = COALESCE(NULLIF(EXCLUDED.name, ''), sources.name),
  type = COALESCE(NULLIF(EXCLUDED.type, ''), sources.type),
  site_url = COALESCE(NULLIF(EXCLUDED.site_url, ''), sources.site_url),
  updated_at = now()
RETURNING id, name, key, type, COALESCE(site_url, ''), created_at, updated_at
`, src.ID, src.Name, src.Key, src.Type, nullableString(src.SiteURL))
	var out models.Source
	if err := row.Scan(&out.ID, &out.Name, &out.Key, &out.Type, &out.SiteURL, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return models.Source{}, err
	}
	return out, nil
}

// GetSourceByKey fetches one source by its unique key.
func (s *Store) GetSourceByKey(ctx context.Context, key string) (models.Source, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, name, key, type, COALESCE(site_url, ''), created_at, updated_at
FROM sources WHERE key=$1
`, key)
	var out models.Source
	if err := row.Scan(&out.ID, &out.Name, &out.Key, &out.Type, &out.SiteURL, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Source{}, false, nil
		}
		return models.Source{}, false, err
	}
	return out, true, nil
}

// ListSources returns all directory entries ordered by name.
func (s *Store) ListSources(ctx context.Context) ([]models.Source, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, name, key, type, COALESCE(site_url, ''), created_at, updated_at
FROM sources ORDER BY name
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Source
	for rows.Next() {
		var src models.Source
		if err := rows.Scan(&src.ID, &src.Name, &src.Key, &src.Type, &src.SiteURL, &src.CreatedAt, &src.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, rows.Err()
}
