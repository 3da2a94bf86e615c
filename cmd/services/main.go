// Command services runs the federated services (bootstrapper, namespace
// grant, lockbox, push mailbox, rolodex) and the location database service
// behind one HTTP endpoint, for development and tests.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"openpeer/internal/app"
)

func main() {
	if err := command().Execute(); err != nil {
		os.Exit(1)
	}
}

func command() *cobra.Command {
	var (
		configPath string
		listen     string
		public     string
		domain     string
		logLevel   string
		locationDB string
	)
	cmd := &cobra.Command{
		Use:          "services",
		Short:        "Serve the openpeer federated services over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if public != "" {
				cfg.PublicURL = public
			}
			if domain != "" {
				cfg.Domain = domain
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if locationDB != "" {
				cfg.LocationDB = locationDB
			}
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}
			log, err := app.NewLogger(cfg.LogLevel, os.Stderr)
			if err != nil {
				return err
			}

			srv, err := app.NewServer(cfg, log)
			if err != nil {
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "TOML config file")
	f.StringVar(&listen, "listen", "", "listen address (default 127.0.0.1:8480)")
	f.StringVar(&public, "public-url", "", "URL advertised by the bootstrapper")
	f.StringVar(&domain, "domain", "", "service domain")
	f.StringVar(&logLevel, "log-level", "", "log level")
	f.StringVar(&locationDB, "location-db", "", "SQLite path, or :memory:")
	return cmd
}
