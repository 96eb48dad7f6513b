// Package server assembles the HTTP application and the background workers.
package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/mailer/attempts"
	attemptHandlers "github.com/qolzam/mailer/attempts/handlers"
	attemptRepository "github.com/qolzam/mailer/attempts/repository"
	attemptServices "github.com/qolzam/mailer/attempts/services"
	"github.com/qolzam/mailer/auth"
	"github.com/qolzam/mailer/auth/jwks"
	"github.com/qolzam/mailer/auth/login"
	"github.com/qolzam/mailer/auth/management"
	"github.com/qolzam/mailer/auth/notify"
	"github.com/qolzam/mailer/auth/password"
	authRepository "github.com/qolzam/mailer/auth/repository"
	"github.com/qolzam/mailer/auth/signup"
	"github.com/qolzam/mailer/internal/auth/tokens"
	"github.com/qolzam/mailer/internal/cache"
	"github.com/qolzam/mailer/internal/pkg/log"
	"github.com/qolzam/mailer/internal/platform"
	platformconfig "github.com/qolzam/mailer/internal/platform/config"
	"github.com/qolzam/mailer/internal/platform/email"
	"github.com/qolzam/mailer/internal/scheduler"
	"github.com/qolzam/mailer/internal/validation"
	"github.com/qolzam/mailer/mailings"
	"github.com/qolzam/mailer/mailings/dispatch"
	mailingHandlers "github.com/qolzam/mailer/mailings/handlers"
	mailingRepository "github.com/qolzam/mailer/mailings/repository"
	mailingServices "github.com/qolzam/mailer/mailings/services"
	"github.com/qolzam/mailer/messages"
	messageHandlers "github.com/qolzam/mailer/messages/handlers"
	messageRepository "github.com/qolzam/mailer/messages/repository"
	messageServices "github.com/qolzam/mailer/messages/services"
	"github.com/qolzam/mailer/profile"
	profileHandlers "github.com/qolzam/mailer/profile/handlers"
	profileServices "github.com/qolzam/mailer/profile/services"
	"github.com/qolzam/mailer/recipients"
	recipientHandlers "github.com/qolzam/mailer/recipients/handlers"
	recipientRepository "github.com/qolzam/mailer/recipients/repository"
	recipientServices "github.com/qolzam/mailer/recipients/services"
)

// Server owns the fiber app, the send dispatcher and the scheduler of one process.
type Server struct {
	App        *fiber.App
	Dispatcher *dispatch.Dispatcher
	Scheduler  *scheduler.Scheduler

	cfg  *platformconfig.Config
	base *platform.BaseService
}

// New wires every feature on top of base. sender delivers both mailings and account emails.
func New(cfg *platformconfig.Config, base *platform.BaseService, sender email.Sender, cronCfg scheduler.Config) (*Server, error) {
	words, err := validation.LoadWordFilter(cfg.Mailing.ForbiddenWordsFile, cfg.Mailing.ForbiddenWords)
	if err != nil {
		return nil, err
	}

	db, cacheService := base.DB, base.Cache
	mailingKeys := cache.NewScopedKeys(cacheService, cfg.Cache.Keys.Mailings)
	attemptKeys := cache.NewScopedKeys(cacheService, cfg.Cache.Keys.Attempts)

	// Repositories
	recipientRepo := recipientRepository.NewPostgresRepository(db)
	messageRepo := messageRepository.NewPostgresRepository(db)
	mailingRepo := mailingRepository.NewPostgresRepository(db)
	attemptRepo := attemptRepository.NewPostgresRepository(db)
	userRepo := authRepository.NewPostgresUserRepository(db)

	dispatcher := dispatch.New(mailingRepo, attemptRepo, sender, dispatch.Config{
		Interval:      cfg.Mailing.SendInterval,
		MaxCycles:     cfg.Mailing.MaxCycles,
		MaxConcurrent: cfg.Mailing.MaxConcurrent,
		From:          cfg.Email.SMTPEmail,
		FromName:      cfg.Email.FromName,
		Invalidators:  []dispatch.Invalidator{mailingKeys, attemptKeys},
	})

	// Services
	recipientService := recipientServices.NewService(recipientRepo, recipientServices.ServiceConfig{
		Words:     words,
		Cache:     cacheService,
		KeyPrefix: cfg.Cache.Keys.Recipients,
		ListTTL:   cfg.Cache.TTL,
		DetailTTL: cfg.Cache.DetailTTL,
	})
	messageService := messageServices.NewService(messageRepo, messageServices.ServiceConfig{
		Words:     words,
		Cache:     cacheService,
		KeyPrefix: cfg.Cache.Keys.Messages,
		ListTTL:   cfg.Cache.TTL,
		DetailTTL: cfg.Cache.DetailTTL,
	})
	mailingService := mailingServices.NewService(mailingRepo, dispatcher, mailingServices.ServiceConfig{
		Cache:     cacheService,
		KeyPrefix: cfg.Cache.Keys.Mailings,
		ListTTL:   cfg.Cache.TTL,
		DetailTTL: cfg.Cache.DetailTTL,
		Related:   []*cache.ScopedKeys{attemptKeys},
	})
	attemptService := attemptServices.NewService(attemptRepo, attemptKeys, cfg.Cache.StatisticsTTL)
	profileService := profileServices.NewService(recipientService, messageService, mailingService)

	mailer := notify.NewMailer(sender, cfg.App, cfg.Email)

	app := NewApp(cfg, base)

	auth.RegisterRoutes(app, &auth.AuthHandlers{
		SignupHandler: signup.NewHandler(signup.NewService(userRepo, mailer)),
		LoginHandler: login.NewHandler(
			login.NewService(userRepo, &login.ServiceConfig{JWTConfig: cfg.JWT, AppConfig: cfg.App, TokenTTL: tokens.DefaultTTL}),
			&login.HandlerConfig{WebDomain: cfg.App.WebDomain, Revoked: cacheService},
		),
		PasswordHandler:   password.NewPasswordHandler(password.NewService(userRepo, mailer)),
		ManagementHandler: management.NewManagementHandler(management.NewUserManagementService(userRepo, cacheService, tokens.DefaultTTL)),
		JWKSHandler:       jwks.NewHandler(cfg.JWT.PublicKey, tokens.KeyID),
		Revoked:           cacheService,
	}, cfg)
	profile.RegisterRoutes(app, &profile.Handlers{
		ProfileHandler: profileHandlers.NewProfileHandler(profileService),
		Revoked:        cacheService,
	}, cfg)
	recipients.RegisterRoutes(app, &recipients.Handlers{
		RecipientHandler: recipientHandlers.NewRecipientHandler(recipientService),
		Revoked:          cacheService,
	}, cfg)
	messages.RegisterRoutes(app, &messages.Handlers{
		MessageHandler: messageHandlers.NewMessageHandler(messageService),
		Revoked:        cacheService,
	}, cfg)
	mailings.RegisterRoutes(app, &mailings.Handlers{
		MailingHandler: mailingHandlers.NewMailingHandler(mailingService),
		Revoked:        cacheService,
	}, cfg)
	attempts.RegisterRoutes(app, &attempts.Handlers{
		AttemptHandler: attemptHandlers.NewAttemptHandler(attemptService),
		Revoked:        cacheService,
	}, cfg)

	return &Server{
		App:        app,
		Dispatcher: dispatcher,
		Scheduler:  scheduler.New(cronCfg, mailingRepo, dispatcher, mailingKeys, attemptKeys),
		cfg:        cfg,
		base:       base,
	}, nil
}

// Run resumes interrupted mailings, starts the scheduler and serves HTTP until ctx is done,
// then shuts everything down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Scheduler.RunOnce(ctx); err != nil {
		log.Warn("[Server] initial scheduler pass: %v", err)
	}
	if err := s.Scheduler.Start(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	listenErr := make(chan error, 1)
	go func() {
		log.Info("[Server] listening on %s", addr)
		listenErr <- s.App.Listen(addr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-listenErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return errors.Join(runErr, s.Shutdown(shutdownCtx))
}

// Shutdown stops accepting requests, stops the scheduler and the send tasks, then closes the
// database and cache. Mailings keep their status and are resumed by the next process.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("[Server] shutting down")
	var errs []error
	if err := s.App.ShutdownWithContext(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	if err := s.Scheduler.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}
	if err := s.Dispatcher.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("dispatcher: %w", err))
	}
	if err := s.base.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close: %w", err))
	}
	return errors.Join(errs...)
}
