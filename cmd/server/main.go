package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/edulive/classroom/internal/adapters/http"
	ws "github.com/edulive/classroom/internal/adapters/signal"
	"github.com/edulive/classroom/internal/adapters/store"
	"github.com/edulive/classroom/internal/app"
	"github.com/edulive/classroom/internal/auth"
	"github.com/edulive/classroom/internal/config"
	"github.com/edulive/classroom/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("failed to open database")
	}
	defer db.Close()

	sessions := store.NewSessions(db)
	messages := store.NewMessages(db)
	verifier := auth.NewVerifier(cfg.Secret)

	conns := app.NewConnRegistry()
	rooms := core.NewRoomRegistry()
	presence := app.NewPresence(rooms, messages, cfg.StoreTimeout)
	history := app.NewHistory(messages, cfg.HistoryLimit, cfg.HistoryRequestLimit, cfg.StoreTimeout)
	gateway := app.NewGateway(conns, rooms, sessions, history, presence, cfg.StoreTimeout)
	reaper := app.NewReaper(conns, rooms, presence)
	chat := app.NewRouter(conns, rooms, messages, cfg.RateLimitWindow, cfg.MaxMessageLen, cfg.PersistGuestMessages, cfg.StoreTimeout)
	chat.SetPolicy(app.DropPolicy{}, func(id core.ConnID) {
		go reaper.OnDisconnect(context.Background(), id)
	})

	controller := &ws.Controller{
		Conns:   conns,
		Gateway: gateway,
		Router:  chat,
		History: history,
		Reaper:  reaper,
		Opts: ws.Options{
			ReadLimit:  cfg.ReadLimit,
			PingPeriod: cfg.PingPeriod,
			SendBuffer: cfg.SendBuffer,
		},
	}

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Controller: controller,
		Conns:      conns,
		Rooms:      rooms,
		Sessions:   sessions,
		Reaper:     reaper,
		Verifier:   verifier,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Classroom live server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
