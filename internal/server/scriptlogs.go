package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bidwatch/bidwatch/internal/store"
	"github.com/bidwatch/bidwatch/models"
)

type ScriptLogsHandler struct {
	Store *store.Store
}

func (h *ScriptLogsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.create)
}

func (h *ScriptLogsHandler) list(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := h.Store.ListScriptLogs(c.Request().Context(), c.QueryParam("script"), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []models.ScriptLog{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ScriptLogsHandler) create(c echo.Context) error {
	var l models.ScriptLog
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	saved, err := h.Store.CreateScriptLog(c.Request().Context(), l)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, saved)
}
