package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	uuid "github.com/gofrs/uuid"
	attemptModels "github.com/qolzam/mailer/attempts/models"
	attemptRepository "github.com/qolzam/mailer/attempts/repository"
	"github.com/qolzam/mailer/internal/database/postgres"
	"github.com/qolzam/mailer/internal/pkg/log"
	"github.com/qolzam/mailer/mailings/dispatch"
	mailingRepository "github.com/qolzam/mailer/mailings/repository"
	"github.com/urfave/cli/v2"
)

func sendMailingCommand() *cli.Command {
	return &cli.Command{
		Name:      "send-mailing",
		Usage:     "send a mailing once to every recipient and finish it",
		ArgsUsage: "<mailing id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "dump the mailing before sending"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("send-mailing takes exactly one mailing id", 2)
			}
			id, err := uuid.FromString(c.Args().First())
			if err != nil {
				return cli.Exit(fmt.Sprintf("invalid mailing id %q", c.Args().First()), 2)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sender, err := newSender(cfg)
			if err != nil {
				return err
			}

			ctx := contextOf(c)
			client, err := postgres.NewClient(ctx, cfg.Database.Postgres)
			if err != nil {
				return err
			}
			defer client.Close()

			mailings := mailingRepository.NewPostgresRepository(client)
			if c.Bool("verbose") {
				delivery, err := mailings.FindDelivery(ctx, id)
				if err != nil {
					return err
				}
				log.InfoStruct(delivery)
			}

			dispatcher := dispatch.New(mailings, attemptRepository.NewPostgresRepository(client), sender, dispatch.Config{
				MaxConcurrent: cfg.Mailing.MaxConcurrent,
				From:          cfg.Email.SMTPEmail,
				FromName:      cfg.Email.FromName,
			})
			outcomes, err := dispatcher.SendOnce(ctx, id)
			printOutcomes(outcomes)
			return err
		},
	}
}

func printOutcomes(outcomes []dispatch.Outcome) {
	ok := color.New(color.FgGreen).SprintFunc()
	failed := color.New(color.FgRed).SprintFunc()

	var failures int
	for _, o := range outcomes {
		status := ok(o.Status)
		if o.Status != attemptModels.StatusSuccess {
			status = failed(o.Status)
			failures++
		}
		fmt.Fprintf(os.Stdout, "%-40s %s %s\n", o.Email, status, o.Response)
	}
	fmt.Fprintf(os.Stdout, "%d sent, %d failed\n", len(outcomes)-failures, failures)
}
