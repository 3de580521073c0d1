package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/bidwatch/bidwatch/models"
)

var solicitationCols = []string{
	"id", "site", "site_id", "title", "description", "issuer", "location",
	"publish_date", "closing_date", "questions_due_by_date", "cn_status", "cn_type",
	"ai_pursue_score", "site_url", "external_links", "site_data", "contact_info",
	"created_at", "updated_at",
}

func solicitationRow(t time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(solicitationCols).AddRow(
		"existing-id", "eprocure", "1001", "Managed IT Services",
		nil, "City of Somewhere", nil,
		nil, "2026-09-30T00:00:00Z", nil, "new", nil,
		0.0, nil, []byte("{}"), []byte(`{"category":"it"}`), nil,
		t, t,
	)
}

func TestCreateSolicitationInserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	st := New(db)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO solicitations").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("generated-id", now, now))

	sol, created, err := st.CreateSolicitation(context.Background(), models.Solicitation{
		Site:   "eprocure",
		SiteID: "1001",
		Title:  "Managed IT Services",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("fresh insert should report created=true")
	}
	if sol.CnStatus != models.StatusNew {
		t.Fatalf("cnStatus = %q, want default %q", sol.CnStatus, models.StatusNew)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateSolicitationConflictReturnsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	st := New(db)

	// ON CONFLICT DO NOTHING yields no RETURNING row; the store then reads
	// the winner back.
	mock.ExpectQuery("INSERT INTO solicitations").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))
	mock.ExpectQuery(`FROM solicitations WHERE site=\$1 AND site_id=\$2`).
		WithArgs("eprocure", "1001").
		WillReturnRows(solicitationRow(time.Now()))

	sol, created, err := st.CreateSolicitation(context.Background(), models.Solicitation{
		Site:   "eprocure",
		SiteID: "1001",
		Title:  "Managed IT Services (rescraped)",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatal("conflicting insert should report created=false")
	}
	if sol.ID != "existing-id" {
		t.Fatalf("returned record is not the stored winner: %+v", sol)
	}
	if sol.SiteData["category"] != "it" {
		t.Fatalf("site_data not decoded: %+v", sol.SiteData)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateSolicitationRequiresIdentity(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	st := New(db)

	if _, _, err := st.CreateSolicitation(context.Background(), models.Solicitation{Title: "x"}); err == nil {
		t.Fatal("missing site/siteId should error before touching the database")
	}
}

func TestExistsSolicitation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	st := New(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("eprocure", "1001").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	ok, err := st.ExistsSolicitation(context.Background(), "eprocure", "1001")
	if err != nil || !ok {
		t.Fatalf("exists = %v (%v), want true", ok, err)
	}

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("eprocure", "9999").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	ok, err = st.ExistsSolicitation(context.Background(), "eprocure", "9999")
	if err != nil || ok {
		t.Fatalf("exists = %v (%v), want false", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListSolicitationsExcludesNonRelevantByDefault(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	st := New(db)

	mock.ExpectQuery(`FROM solicitations WHERE site=\$1 AND \(cn_type IS NULL OR cn_type<>\$2\)`).
		WithArgs("eprocure", models.TypeNonRelevant).
		WillReturnRows(solicitationRow(time.Now()))

	out, err := st.ListSolicitations(context.Background(), SolicitationFilter{Site: "eprocure"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListSolicitationsIncludeNonRelevant(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	st := New(db)

	mock.ExpectQuery(`FROM solicitations WHERE site=\$1 AND site_id=\$2 ORDER BY`).
		WithArgs("eprocure", "1001").
		WillReturnRows(solicitationRow(time.Now()))

	out, err := st.ListSolicitations(context.Background(), SolicitationFilter{
		Site: "eprocure", SiteID: "1001", IncludeNonRelevant: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteSolicitation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	st := New(db)

	mock.ExpectExec("DELETE FROM solicitations").
		WithArgs("some-id").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := st.DeleteSolicitation(context.Background(), "some-id")
	if err != nil || !ok {
		t.Fatalf("delete = %v (%v), want true", ok, err)
	}

	mock.ExpectExec("DELETE FROM solicitations").
		WithArgs("missing-id").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = st.DeleteSolicitation(context.Background(), "missing-id")
	if err != nil || ok {
		t.Fatalf("delete = %v (%v), want false", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
