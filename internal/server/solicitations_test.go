package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/bidwatch/bidwatch/internal/search"
	"github.com/bidwatch/bidwatch/internal/store"
	"github.com/bidwatch/bidwatch/models"
)

func newHandler(t *testing.T) (*SolicitationsHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	idx, err := search.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { idx.Close() })
	return &SolicitationsHandler{Store: store.New(db), Search: idx}, mock
}

var solicitationCols = []string{
	"id", "site", "site_id", "title", "description", "issuer", "location",
	"publish_date", "closing_date", "questions_due_by_date", "cn_status", "cn_type",
	"ai_pursue_score", "site_url", "external_links", "site_data", "contact_info",
	"created_at", "updated_at",
}

func storedRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(solicitationCols).AddRow(
		"existing-id", "eprocure", "1001", "Managed IT Services",
		nil, "City of Somewhere", nil,
		nil, "2026-09-30T00:00:00Z", nil, "new", nil,
		0.0, nil, []byte("{}"), []byte("{}"), nil,
		now, now,
	)
}

func TestCreateSolicitationHandler(t *testing.T) {
	h, mock := newHandler(t)
	e := echo.New()

	mock.ExpectQuery("INSERT INTO solicitations").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("new-id", time.Now(), time.Now()))

	body := `{"site":"eprocure","siteId":"1001","title":"Managed IT Services"}`
	req := httptest.NewRequest(http.MethodPost, "/api/solicitations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var saved models.Solicitation
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatal(err)
	}
	if saved.ID != "new-id" || saved.CnStatus != models.StatusNew {
		t.Fatalf("saved = %+v", saved)
	}

	// the fresh record is searchable immediately
	hits, err := h.Search.Search("managed", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "new-id" {
		t.Fatalf("search mirror not updated: %v", hits)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateSolicitationHandlerDuplicate(t *testing.T) {
	h, mock := newHandler(t)
	e := echo.New()

	mock.ExpectQuery("INSERT INTO solicitations").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}))
	mock.ExpectQuery(`FROM solicitations WHERE site=\$1 AND site_id=\$2`).
		WithArgs("eprocure", "1001").
		WillReturnRows(storedRow())

	body := `{"site":"eprocure","siteId":"1001","title":"Managed IT Services"}`
	req := httptest.NewRequest(http.MethodPost, "/api/solicitations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.create(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate create status = %d, want 200", rec.Code)
	}
	var saved models.Solicitation
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatal(err)
	}
	if saved.ID != "existing-id" {
		t.Fatalf("duplicate create should return the stored record: %+v", saved)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListSolicitationsHandlerFilters(t *testing.T) {
	h, mock := newHandler(t)
	e := echo.New()

	mock.ExpectQuery(`FROM solicitations WHERE site=\$1 AND site_id=\$2`).
		WithArgs("eprocure", "1001").
		WillReturnRows(storedRow())

	req := httptest.NewRequest(http.MethodGet,
		"/api/solicitations?filters.site=eprocure&filters.siteId=1001&includeNonRelevant=true", nil)
	rec := httptest.NewRecorder()

	if err := h.list(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var items []models.Solicitation
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].SiteID != "1001" {
		t.Fatalf("items = %+v", items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestListSolicitationsHandlerEmptyArray(t *testing.T) {
	h, mock := newHandler(t)
	e := echo.New()

	mock.ExpectQuery("FROM solicitations").
		WillReturnRows(sqlmock.NewRows(solicitationCols))

	req := httptest.NewRequest(http.MethodGet, "/api/solicitations", nil)
	rec := httptest.NewRecorder()

	if err := h.list(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("empty list should encode as [], got %s", got)
	}
}

func TestDeleteSolicitationHandlerNotFound(t *testing.T) {
	h, mock := newHandler(t)
	e := echo.New()

	mock.ExpectExec("DELETE FROM solicitations").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := httptest.NewRequest(http.MethodDelete, "/api/solicitations/missing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	err := h.delete(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestSearchHandlerRequiresQuery(t *testing.T) {
	h, _ := newHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/solicitations/search", nil)
	rec := httptest.NewRecorder()

	err := h.search(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}
