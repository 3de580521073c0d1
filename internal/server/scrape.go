package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bidwatch/bidwatch/config"
	"github.com/bidwatch/bidwatch/internal/scraper"
)

// ScrapeHandler is the manual run trigger. With ?vendor= it runs one vendor;
// without, it fans out across every enabled vendor with bounded concurrency.
type ScrapeHandler struct {
	Cfg        *config.Config
	Dispatcher *scraper.Dispatcher
}

func (h *ScrapeHandler) Register(g *echo.Group) {
	g.POST("", h.trigger)
}

func (h *ScrapeHandler) trigger(c echo.Context) error {
	ctx := c.Request().Context()
	if vendor := c.QueryParam("vendor"); vendor != "" {
		if _, ok := h.Cfg.Vendor(vendor); !ok {
			return echo.NewHTTPError(http.StatusNotFound, "unknown vendor: "+vendor)
		}
		res := h.Dispatcher.RunVendor(ctx, vendor)
		return c.JSON(http.StatusOK, []scraper.VendorResult{res})
	}

	names := h.Cfg.EnabledVendors()
	if len(names) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no vendors enabled")
	}
	results := h.Dispatcher.FanOut(ctx, names)
	return c.JSON(http.StatusOK, results)
}
