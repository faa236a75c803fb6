package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/TimurManjosov/odegate/internal/analytics"
	"github.com/TimurManjosov/odegate/internal/api"
	"github.com/TimurManjosov/odegate/internal/auth"
	"github.com/TimurManjosov/odegate/internal/config"
	"github.com/TimurManjosov/odegate/internal/gate"
	"github.com/TimurManjosov/odegate/internal/logging"
	"github.com/TimurManjosov/odegate/internal/store"
	"github.com/TimurManjosov/odegate/internal/telemetry"
	"github.com/TimurManjosov/odegate/internal/unlock"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	telemetry.Init()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal().Err(err).Msg("tracing")
	}

	st, err := store.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.StoreType).Msg("store")
	}
	logger.Info().Str("store", cfg.StoreType).Str("env", cfg.Env).Msg("store ready")

	hub := analytics.NewHub()
	pub := analytics.MultiPublisher{hub}
	var kafkaPub *analytics.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub, err = analytics.NewKafkaPublisher(analytics.KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("kafka")
		}
		pub = append(pub, kafkaPub)
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("analytics to kafka")
	}

	g := gate.New(cfg.Rollouts(), pub, logger)
	for _, f := range g.Features() {
		logger.Info().Str("feature", f).Msg("rollout configured")
	}

	srvAPI := api.NewServer(api.Deps{
		Store:          st,
		Evaluator:      unlock.Evaluator{Policy: unlock.ParsePolicy(cfg.UnlockUnknownPolicy)},
		Gate:           g,
		Sessions:       auth.NewJWTResolver(cfg.SessionSecret),
		Admin:          auth.NewAdminVerifier(cfg.AdminAPIKey, cfg.AdminAPIKeyHash),
		Publisher:      pub,
		Hub:            hub,
		Logger:         logger,
		Env:            cfg.Env,
		RolloutSalt:    cfg.RolloutSalt,
		ButtonFeature:  config.ButtonSystemFeature,
		RateLimitPerIP: cfg.RateLimitPerIP,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0, // analytics stream stays open
		IdleTimeout:  60 * time.Second,
	}
	// Shutdown waits for handlers but does not cancel them, so end the
	// analytics streams explicitly.
	srv.RegisterOnShutdown(hub.Close)

	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server")
		}
	}()
	go func() {
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShut); err != nil {
		logger.Warn().Err(err).Msg("server shutdown")
	}
	if err := metricsSrv.Shutdown(ctxShut); err != nil {
		logger.Warn().Err(err).Msg("metrics shutdown")
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Warn().Err(err).Msg("kafka close")
		}
	}
	if err := shutdownTracing(ctxShut); err != nil {
		logger.Warn().Err(err).Msg("tracing shutdown")
	}
	if err := st.Close(); err != nil {
		logger.Warn().Err(err).Msg("store close")
	}
	logger.Info().Msg("stopped")
}
