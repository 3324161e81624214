package main

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dmitriyvasukov/crazy-hamburg/internal/auth"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/bootstrap"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/config"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/database"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/handlers"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/payment"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/routes"
	"github.com/dmitriyvasukov/crazy-hamburg/internal/sms"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
	})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("connect to database")
	}
	defer db.Close()

	log.Info("connected to database")

	if err := database.Migrate(db, "migrations", "up"); err != nil {
		log.WithError(err).Fatal("run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := bootstrap.Run(ctx, db, cfg, log); err != nil {
		cancel()
		log.WithError(err).Fatal("bootstrap initial data")
	}
	cancel()

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	provider := payment.NewYooKassaClient(cfg.Payment)
	coordinator := payment.NewCoordinator(db, provider, cfg.Payment.WebhookSecret, log)
	sender := sms.NewSender(cfg.SMS, log)
	h := handlers.New(db, cfg, tokens, coordinator, sender, log)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      routes.New(h, db, cfg, tokens),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.WithField("port", cfg.Server.Port).Info("server starting")
	if err := server.ListenAndServe(); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
