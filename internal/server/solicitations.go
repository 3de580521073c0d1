package server

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bidwatch/bidwatch/internal/search"
	"github.com/bidwatch/bidwatch/internal/store"
	"github.com/bidwatch/bidwatch/models"
)

type SolicitationsHandler struct {
	Store  *store.Store
	Search *search.Index
}

func (h *SolicitationsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/search", h.search)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.update)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *SolicitationsHandler) list(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	f := store.SolicitationFilter{
		Site:               c.QueryParam("filters.site"),
		SiteID:             c.QueryParam("filters.siteId"),
		CnStatus:           c.QueryParam("filters.cnStatus"),
		IncludeNonRelevant: c.QueryParam("includeNonRelevant") == "true",
		Limit:              limit,
		Offset:             offset,
	}
	items, err := h.Store.ListSolicitations(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []models.Solicitation{}
	}
	return c.JSON(http.StatusOK, items)
}

// create persists a scraped or manually entered record. An existing
// (site, siteId) row is reported with 200 and the stored record, so scraper
// callers can count it as a duplicate rather than a failure.
func (h *SolicitationsHandler) create(c echo.Context) error {
	var sol models.Solicitation
	if err := c.Bind(&sol); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	saved, created, err := h.Store.CreateSolicitation(c.Request().Context(), sol)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !created {
		return c.JSON(http.StatusOK, saved)
	}
	if err := h.Search.IndexSolicitation(saved); err != nil {
		log.Printf("[HTTP] search mirror index failed for %s: %v", saved.ID, err)
	}
	return c.JSON(http.StatusCreated, saved)
}

func (h *SolicitationsHandler) get(c echo.Context) error {
	sol, found, err := h.Store.GetSolicitation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "solicitation not found")
	}
	return c.JSON(http.StatusOK, sol)
}

type solicitationUpdateRequest struct {
	Title              *string  `json:"title"`
	Description        *string  `json:"description"`
	Issuer             *string  `json:"issuer"`
	Location           *string  `json:"location"`
	PublishDate        *string  `json:"publishDate"`
	ClosingDate        *string  `json:"closingDate"`
	QuestionsDueByDate *string  `json:"questionsDueByDate"`
	CnStatus           *string  `json:"cnStatus"`
	CnType             *string  `json:"cnType"`
	AiPursueScore      *float64 `json:"aiPursueScore"`
	ContactInfo        *string  `json:"contactInfo"`
}

func (h *SolicitationsHandler) update(c echo.Context) error {
	var req solicitationUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sol, err := h.Store.UpdateSolicitation(c.Request().Context(), c.Param("id"), store.SolicitationUpdate{
		Title:              req.Title,
		Description:        req.Description,
		Issuer:             req.Issuer,
		Location:           req.Location,
		PublishDate:        req.PublishDate,
		ClosingDate:        req.ClosingDate,
		QuestionsDueByDate: req.QuestionsDueByDate,
		CnStatus:           req.CnStatus,
		CnType:             req.CnType,
		AiPursueScore:      req.AiPursueScore,
		ContactInfo:        req.ContactInfo,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.Search.IndexSolicitation(sol); err != nil {
		log.Printf("[HTTP] search mirror reindex failed for %s: %v", sol.ID, err)
	}
	return c.JSON(http.StatusOK, sol)
}

// delete removes the record and its search mirror doc.
func (h *SolicitationsHandler) delete(c echo.Context) error {
	id := c.Param("id")
	deleted, err := h.Store.DeleteSolicitation(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "solicitation not found")
	}
	if err := h.Search.DeleteSolicitation(id); err != nil {
		log.Printf("[HTTP] search mirror delete failed for %s: %v", id, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SolicitationsHandler) search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	hits, err := h.Search.Search(q, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, hits)
}
