package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bidwatch/bidwatch/config"
	"github.com/bidwatch/bidwatch/internal/ingest"
	"github.com/bidwatch/bidwatch/internal/scraper"
	"github.com/bidwatch/bidwatch/internal/scraper/vendors"
	"github.com/bidwatch/bidwatch/internal/search"
	"github.com/bidwatch/bidwatch/internal/store"
	openai_provider "github.com/bidwatch/bidwatch/provider/openai"
)

// Run wires the service together and serves the internal REST surface.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if err := Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0); err != nil {
		baseLogger.Printf("migrate: %v (continuing; schema may already be current)", err)
	}

	ctx := context.Background()
	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return err
	}

	idx, err := search.Open(cfg.Search.IndexPath)
	if err != nil {
		return err
	}

	llm := openai_provider.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model,
		cfg.LLM.Temperature, cfg.LLM.MaxTokens, cfg.LLM.Timeout)
	classifier := ingest.NewClassifier(llm)

	sink := &ingest.StoreSink{Store: st, Search: idx}
	dispatcher := &scraper.Dispatcher{
		Cfg:        cfg,
		Sink:       sink,
		Classifier: classifier,
		NewAdapter: vendors.New,
		Logger:     log.New(log.Writer(), "[SCRAPE] ", log.LstdFlags),
	}

	api := e.Group("/api")
	api.Use(serviceTokenAuth(cfg.Server.ServiceToken))

	sh := &SolicitationsHandler{Store: st, Search: idx}
	sh.Register(api.Group("/solicitations"))

	srch := &SourcesHandler{Store: st}
	srch.Register(api.Group("/sources"))

	lh := &ScriptLogsHandler{Store: st}
	lh.Register(api.Group("/scriptlogs"))

	th := &ScrapeHandler{Cfg: cfg, Dispatcher: dispatcher}
	th.Register(api.Group("/scrape"))

	// hourly scheduler with redis locks
	var rdb *redis.Client
	if cfg.Storage.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr(),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Storage.Redis.Addr(), err)
		}
	}
	sched := &Scheduler{
		Cfg:        cfg,
		Store:      st,
		Rdb:        rdb,
		Dispatcher: dispatcher,
		Stop:       make(chan struct{}),
	}
	sched.Start()

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":10210"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}
