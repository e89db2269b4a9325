package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mdevara/quizshow/internal/cluebank"
	"github.com/mdevara/quizshow/internal/config"
	"github.com/mdevara/quizshow/internal/events"
	"github.com/mdevara/quizshow/internal/game"
	"github.com/mdevara/quizshow/internal/gateway"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	setupLogging()

	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	bank, err := cluebank.Load(cfg.Data.Questions)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Data.Questions).Msg("failed to load question bank")
	}

	timings := game.Timings{
		BuzzWindow:   time.Duration(cfg.Game.BuzzWindowSec) * time.Second,
		AnswerWindow: time.Duration(cfg.Game.AnswerWindowSec) * time.Second,
		FinalWindow:  time.Duration(cfg.Game.FinalWindowSec) * time.Second,
		RevealDelay:  time.Duration(cfg.Game.RevealDelaySec) * time.Second,
	}

	// The hub is the controller's broadcast sink and the controller is the
	// hub's command target, so they are wired in two steps.
	hub := gateway.NewHub(gateway.DefaultConnectionConfig())
	sink := events.Fanout{hub}

	if cfg.NATS.URL != "" {
		natsSink, err := events.NewNATSSink(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect NATS sink")
		}
		defer natsSink.Close()
		sink = append(sink, natsSink)
	}

	controller := game.New(bank, sink, clockwork.NewRealClock(), timings)
	hub.AttachGame(controller)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go hub.Start(ctx)

	mux := http.NewServeMux()
	gateway.NewHandler(hub).RegisterRoutes(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet, http.MethodPost},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(c.Handler(mux), &http2.Server{}),
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}

func configPath() string {
	if path := os.Getenv("QUIZSHOW_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}

func setupLogging() {
	level, err := zerolog.ParseLevel(os.Getenv("QUIZSHOW_LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
