package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/qolzam/mailer/auth/security"
	"github.com/qolzam/mailer/internal/pkg/log"
	"github.com/qolzam/mailer/internal/platform"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
	"github.com/qolzam/mailer/internal/platform/email"
	"github.com/qolzam/mailer/internal/scheduler"
	"github.com/qolzam/mailer/internal/server"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API, the send loop and the scheduler",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			auditLogger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("failed to create audit logger: %w", err)
			}
			defer auditLogger.Sync() //nolint:errcheck
			security.SetLogger(auditLogger.Named("audit"))

			cronCfg, err := scheduler.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load cron config: %w", err)
			}
			sender, err := newSender(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(contextOf(c), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			base, err := platform.NewBaseService(ctx, cfg)
			if err != nil {
				return err
			}
			srv, err := server.New(cfg, base, sender, cronCfg)
			if err != nil {
				base.Close()
				return err
			}

			log.Info("Starting %s (debug=%t)", cfg.App.Name, cfg.Server.Debug)
			return srv.Run(ctx)
		},
	}
}

func newSender(cfg *platformconfig.Config) (*email.SMTPSender, error) {
	sender, err := email.NewSMTPSender(cfg.Email.SMTPHost, strconv.Itoa(cfg.Email.SMTPPort), cfg.Email.SMTPUser, cfg.Email.SMTPPass)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SMTP sender: %w", err)
	}
	return sender, nil
}
