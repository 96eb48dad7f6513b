package main

import (
	"context"
	"fmt"
	"os"

	"github.com/qolzam/mailer/internal/pkg/log"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "mailer",
		Usage: "mailing campaign service",
		Commands: []*cli.Command{
			serveCommand(),
			sendMailingCommand(),
			migrateCommand(),
		},
	}
}

// loadConfig reads the environment and applies the debug switch.
func loadConfig() (*platformconfig.Config, error) {
	cfg, err := platformconfig.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.SetDebug(cfg.Server.Debug)
	return cfg, nil
}

func contextOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
