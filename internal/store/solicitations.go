package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bidwatch/bidwatch/models"
)

// SolicitationFilter narrows ListSolicitations. Records with
// cnType='nonRelevant' are excluded unless IncludeNonRelevant is set;
// duplicate checks always set it to avoid re-ingesting triaged-out items.
type SolicitationFilter struct {
	Site               string
	SiteID             string
	CnStatus           string
	IncludeNonRelevant bool
	Limit              int
	Offset             int
}

// SolicitationUpdate carries a partial update; nil fields are left untouched.
type SolicitationUpdate struct {
	Title              *string
	Description        *string
	Issuer             *string
	Location           *string
	PublishDate        *string
	ClosingDate        *string
	QuestionsDueByDate *string
	CnStatus           *string
	CnType             *string
	AiPursueScore      *float64
	ContactInfo        *string
}

const solicitationColumns = `id, site, site_id, title, description, issuer, location,
publish_date, closing_date, questions_due_by_date, cn_status, cn_type,
ai_pursue_score, site_url, external_links, site_data, contact_info, created_at, updated_at`

// CreateSolicitation inserts a record, treating (site, site_id) conflicts as
// a no-op. The conditional write replaces the old read-then-create sequence
// so concurrent runs racing on the same siteId cannot produce duplicates.
// Returns the stored record and whether a new row was created.
func (s *Store) CreateSolicitation(ctx context.Context, sol models.Solicitation) (models.Solicitation, bool, error) {
	if strings.TrimSpace(sol.Site) == "" || strings.TrimSpace(sol.SiteID) == "" {
		return models.Solicitation{}, false, fmt.Errorf("site and siteId required")
	}
	if sol.ID == "" {
		sol.ID = uuid.NewString()
	}
	if sol.CnStatus == "" {
		sol.CnStatus = models.StatusNew
	}
	siteData, err := json.Marshal(sol.SiteData)
	if err != nil {
		return models.Solicitation{}, false, fmt.Errorf("marshal site data: %w", err)
	}

	row := s.DB.QueryRowContext(ctx, `
INSERT INTO solicitations (id, site, site_id, title, description, issuer, location,
  publish_date, closing_date, questions_due_by_date, cn_status, cn_type,
  ai_pursue_score, site_url, external_links, site_data, contact_info)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
ON CONFLICT (site, site_id) DO NOTHING
RETURNING id, created_at, updated_at
`, sol.ID, sol.Site, sol.SiteID, sol.Title, nullableString(sol.Description),
		nullableString(sol.Issuer), nullableString(sol.Location),
		nullableString(sol.PublishDate), nullableString(sol.ClosingDate),
		nullableString(sol.QuestionsDueByDate), sol.CnStatus, nullableString(sol.CnType),
		sol.AiPursueScore, nullableString(sol.SiteURL), pq.Array(sol.ExternalLinks),
		siteData, nullableString(sol.ContactInfo))

	if err := row.Scan(&sol.ID, &sol.CreatedAt, &sol.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			existing, found, lookupErr := s.getBySiteID(ctx, sol.Site, sol.SiteID)
			if lookupErr != nil {
				return models.Solicitation{}, false, lookupErr
			}
			if !found {
				return models.Solicitation{}, false, fmt.Errorf("conflict on (%s,%s) but row not found", sol.Site, sol.SiteID)
			}
			return existing, false, nil
		}
		return models.Solicitation{}, false, err
	}
	return sol, true, nil
}

// ExistsSolicitation reports whether any record matches site/siteId. Used by
// the pipeline's dedup pre-check to skip classifier calls for known records.
func (s *Store) ExistsSolicitation(ctx context.Context, site, siteID string) (bool, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM solicitations WHERE site=$1 AND site_id=$2`, site, siteID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) getBySiteID(ctx context.Context, site, siteID string) (models.Solicitation, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT `+solicitationColumns+`
FROM solicitations WHERE site=$1 AND site_id=$2
`, site, siteID)
	sol, err := scanSolicitation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Solicitation{}, false, nil
		}
		return models.Solicitation{}, false, err
	}
	return sol, true, nil
}

// GetSolicitation fetches one record by internal identifier.
func (s *Store) GetSolicitation(ctx context.Context, id string) (models.Solicitation, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT `+solicitationColumns+`
FROM solicitations WHERE id=$1
`, id)
	sol, err := scanSolicitation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Solicitation{}, false, nil
		}
		return models.Solicitation{}, false, err
	}
	return sol, true, nil
}

// ListSolicitations returns records matching the filter, newest first.
func (s *Store) ListSolicitations(ctx context.Context, f SolicitationFilter) ([]models.Solicitation, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Site != "" {
		add("site=$%d", f.Site)
	}
	if f.SiteID != "" {
		add("site_id=$%d", f.SiteID)
	}
	if f.CnStatus != "" {
		add("cn_status=$%d", f.CnStatus)
	}
	if !f.IncludeNonRelevant {
		add("(cn_type IS NULL OR cn_type<>$%d)", models.TypeNonRelevant)
	}
	q := `SELECT ` + solicitationColumns + ` FROM solicitations`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Solicitation
	for rows.Next() {
		sol, err := scanSolicitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sol)
	}
	return out, rows.Err()
}

// UpdateSolicitation applies a partial update and returns the stored record.
func (s *Store) UpdateSolicitation(ctx context.Context, id string, upd SolicitationUpdate) (models.Solicitation, error) {
	var (
		sets []string
		args []interface{}
	)
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if upd.Title != nil {
		set("title", *upd.Title)
	}
	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.Issuer != nil {
		set("issuer", *upd.Issuer)
	}
	if upd.Location != nil {
		set("location", *upd.Location)
	}
	if upd.PublishDate != nil {
		set("publish_date", nullableString(*upd.PublishDate))
	}
	if upd.ClosingDate != nil {
		set("closing_date", nullableString(*upd.ClosingDate))
	}
	if upd.QuestionsDueByDate != nil {
		set("questions_due_by_date", nullableString(*upd.QuestionsDueByDate))
	}
	if upd.CnStatus != nil {
		set("cn_status", *upd.CnStatus)
	}
	if upd.CnType != nil {
		set("cn_type", nullableString(*upd.CnType))
	}
	if upd.AiPursueScore != nil {
		set("ai_pursue_score", *upd.AiPursueScore)
	}
	if upd.ContactInfo != nil {
		set("contact_info", nullableString(*upd.ContactInfo))
	}
	if len(sets) == 0 {
		return models.Solicitation{}, fmt.Errorf("no fields to update")
	}
	sets = append(sets, "updated_at=now()")
	args = append(args, id)

	q := fmt.Sprintf(`UPDATE solicitations SET %s WHERE id=$%d RETURNING `+solicitationColumns,
		strings.Join(sets, ", "), len(args))
	row := s.DB.QueryRowContext(ctx, q, args...)
	sol, err := scanSolicitation(row)
	if err != nil {
		return models.Solicitation{}, err
	}
	return sol, nil
}

// DeleteSolicitation removes a record; returns false if it did not exist.
func (s *Store) DeleteSolicitation(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM solicitations WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSolicitation(r rowScanner) (models.Solicitation, error) {
	var (
		sol                           models.Solicitation
		description, issuer, location sql.NullString
		publish, closing, questions   sql.NullString
		cnType, siteURL, contact      sql.NullString
		links                         pq.StringArray
		siteData                      []byte
	)
	err := r.Scan(&sol.ID, &sol.Site, &sol.SiteID, &sol.Title, &description, &issuer, &location,
		&publish, &closing, &questions, &sol.CnStatus, &cnType,
		&sol.AiPursueScore, &siteURL, &links, &siteData, &contact, &sol.CreatedAt, &sol.UpdatedAt)
	if err != nil {
		return models.Solicitation{}, err
	}
	sol.Description = description.String
	sol.Issuer = issuer.String
	sol.Location = location.String
	sol.PublishDate = publish.String
	sol.ClosingDate = closing.String
	sol.QuestionsDueByDate = questions.String
	sol.CnType = cnType.String
	sol.SiteURL = siteURL.String
	sol.ContactInfo = contact.String
	sol.ExternalLinks = []string(links)
	if len(siteData) > 0 {
		_ = json.Unmarshal(siteData, &sol.SiteData)
	}
	return sol, nil
}
