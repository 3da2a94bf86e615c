package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"openpeer/internal/app"
)

type cli struct {
	configPath string
	home       string
	domain     string
	bootstrap  string
	logLevel   string
	passphrase string

	app *app.App
}

func Execute() error {
	c := &cli{}
	root := &cobra.Command{
		Use:           "openpeer",
		Short:         "Peer identity, federated login and location database CLI",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			log, err := app.NewLogger(cfg.LogLevel, os.Stderr)
			if err != nil {
				return err
			}
			c.app, err = app.New(cfg, log)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&c.configPath, "config", "", "TOML config file (default <home>/openpeer.toml)")
	f.StringVar(&c.home, "home", "", "state dir (default ~/.openpeer)")
	f.StringVar(&c.domain, "domain", "", "identity domain")
	f.StringVar(&c.bootstrap, "bootstrapper", "", "bootstrapper URL")
	f.StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVarP(&c.passphrase, "passphrase", "p", "", "passphrase protecting the identity")

	root.AddCommand(
		c.initCmd(),
		c.fingerprintCmd(),
		c.uriCmd(),
		c.signCmd(),
		c.verifyCmd(),
		c.loginCmd(),
		c.dbCmd(),
		c.configCmd(),
	)
	return root.Execute()
}

// config loads the file and lets flags override it.
func (c *cli) config() (app.Config, error) {
	path := c.configPath
	if path == "" && c.home != "" {
		path = filepath.Join(c.home, "openpeer.toml")
	}
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return app.Config{}, err
	}
	if c.home != "" {
		cfg.Home = c.home
	}
	if c.domain != "" {
		cfg.Domain = c.domain
	}
	if c.bootstrap != "" {
		cfg.Bootstrapper = c.bootstrap
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	return cfg, nil
}

func (c *cli) requirePassphrase() error {
	if c.passphrase == "" {
		return errPassphrase
	}
	return nil
}
