package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"taskhub/internal/auth"
	"taskhub/internal/config"
	"taskhub/internal/database"
	"taskhub/internal/logging"
	"taskhub/internal/mailer"
	"taskhub/internal/repositories/tasks"
	"taskhub/internal/repositories/users"
	"taskhub/internal/server"
	"taskhub/internal/services"
	"taskhub/internal/telemetry"
	"taskhub/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.IsDev())
	if err != nil {
		logrus.Fatalf("log level: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "taskhub-api", cfg.OTELEndpoint)
	if err != nil {
		log.Fatalf("telemetry error: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.WithError(err).Warn("telemetry shutdown")
		}
	}()

	db, err := database.Connect(ctx, cfg.DBDriver, cfg.DSN)
	if err != nil {
		log.Fatalf("DB connect error: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, cfg.DBDriver); err != nil {
		log.Fatalf("migrations error: %v", err)
	}

	var mail mailer.Mailer = &mailer.LogMailer{Log: log}
	if cfg.SMTPAddr != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPAddr, cfg.MailFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	}

	hub := ws.NewHub(log)
	go hub.Run(ctx)

	accounts := services.NewAccountService(
		users.NewSQLRepository(db),
		auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		auth.NewResetTokenGenerator(cfg.JWTSecret, cfg.PasswordResetTimeout),
		mail, log,
		services.AccountConfig{FrontendURL: cfg.FrontendURL, ReverifyOnEmailChange: cfg.ReverifyOnEmailChange},
	)
	taskService := services.NewTaskService(tasks.NewSQLRepository(db), hub, log)

	srv := &server.Server{
		Addr:           cfg.Addr(),
		DB:             db,
		Accounts:       accounts,
		Tasks:          taskService,
		Hub:            hub,
		Log:            log,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
