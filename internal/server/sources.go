package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bidwatch/bidwatch/internal/store"
	"github.com/bidwatch/bidwatch/models"
)

type SourcesHandler struct {
	Store *store.Store
}

func (h *SourcesHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.upsert)
	g.GET("/:key", h.get)
	g.PATCH("/:key", h.patch)
}

func (h *SourcesHandler) list(c echo.Context) error {
	items, err := h.Store.ListSources(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []models.Source{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *SourcesHandler) get(c echo.Context) error {
	src, found, err := h.Store.GetSourceByKey(c.Request().Context(), c.Param("key"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "source not found")
	}
	return c.JSON(http.StatusOK, src)
}

func (h *SourcesHandler) upsert(c echo.Context) error {
	var src models.Source
	if err := c.Bind(&src); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	saved, err := h.Store.UpsertSource(c.Request().Context(), src)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, saved)
}

// patch updates a source by key, creating it when absent (the scraper
// agency-discovery routines rely on the fallback-create behaviour).
func (h *SourcesHandler) patch(c echo.Context) error {
	var src models.Source
	if err := c.Bind(&src); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	src.Key = c.Param("key")
	saved, err := h.Store.UpsertSource(c.Request().Context(), src)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, saved)
}
