package main

import (
	"github.com/spf13/cobra"

	"github.com/bidwatch/bidwatch/config"
	srv "github.com/bidwatch/bidwatch/internal/server"
)

func migrateCMD() *cobra.Command {
	var (
		cfgPath   string
		dir       string
		direction string
		steps     int
	)
	var mig = &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			return srv.Migrate(dir, cfg.Storage.Postgres.DSN(), direction, steps)
		},
	}
	mig.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	mig.Flags().StringVar(&dir, "dir", "file://migrations", "migrations source")
	mig.Flags().StringVar(&direction, "direction", "up", "up or down")
	mig.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")

	return mig
}
