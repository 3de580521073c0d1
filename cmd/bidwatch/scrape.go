package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bidwatch/bidwatch/config"
	"github.com/bidwatch/bidwatch/internal/ingest"
	"github.com/bidwatch/bidwatch/internal/scraper"
	"github.com/bidwatch/bidwatch/internal/scraper/vendors"
	"github.com/bidwatch/bidwatch/internal/search"
	"github.com/bidwatch/bidwatch/internal/store"
	openai_provider "github.com/bidwatch/bidwatch/provider/openai"
)

// scrapeCMD runs vendors from the command line without the API server.
// SIGINT cancels mid-run; the dispatcher still writes each run's summary
// log on the way out.
func scrapeCMD() *cobra.Command {
	var cfgPath string
	var cmd = &cobra.Command{
		Use:   "scrape [vendor...]",
		Short: "Run one or more vendor scrapers (all enabled vendors when none given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			llm := openai_provider.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model,
				cfg.LLM.Temperature, cfg.LLM.MaxTokens, cfg.LLM.Timeout)
			classifier := ingest.NewClassifier(llm)

			var sink ingest.Sink
			if cfg.Server.APIBaseURL != "" {
				sink = ingest.NewAPISink(cfg.Server.APIBaseURL, cfg.Server.ServiceToken, cfg.General.DefaultTimeout)
			} else {
				st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
				if err != nil {
					return err
				}
				defer st.Close()
				idx, err := search.Open(cfg.Search.IndexPath)
				if err != nil {
					return err
				}
				defer idx.Close()
				sink = &ingest.StoreSink{Store: st, Search: idx}
			}

			dispatcher := &scraper.Dispatcher{
				Cfg:        cfg,
				Sink:       sink,
				Classifier: classifier,
				NewAdapter: vendors.New,
				Logger:     log.New(log.Writer(), "[SCRAPE] ", log.LstdFlags),
			}

			names := args
			if len(names) == 0 {
				names = cfg.EnabledVendors()
			}
			if len(names) == 0 {
				return fmt.Errorf("no vendors enabled and none given")
			}

			results := dispatcher.FanOut(ctx, names)
			failed := 0
			for _, res := range results {
				fmt.Printf("%-16s %-9s %s (%s)\n", res.Vendor, res.Status, res.Stats.Summary(), res.Elapsed)
				if res.Status != "succeeded" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d vendor runs failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return cmd
}
