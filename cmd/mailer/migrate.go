package main

import (
	"github.com/qolzam/mailer/internal/database/postgres"
	"github.com/qolzam/mailer/internal/pkg/log"
	"github.com/urfave/cli/v2"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply pending database migrations",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := contextOf(c)
			client, err := postgres.NewClient(ctx, cfg.Database.Postgres)
			if err != nil {
				return err
			}
			defer client.Close()

			applied, err := client.Migrate(ctx)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				log.Info("Schema is up to date")
				return nil
			}
			for _, name := range applied {
				log.Info("Applied %s", name)
			}
			return nil
		},
	}
}
