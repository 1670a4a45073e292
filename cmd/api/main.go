package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/krishimitra/krishi-mitra/backend/internal/config"
	"github.com/krishimitra/krishi-mitra/backend/internal/handler"
	"github.com/krishimitra/krishi-mitra/backend/internal/model/persona"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/ai"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/chat"
	"github.com/krishimitra/krishi-mitra/backend/internal/service/diagnosis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())
	deps := handler.Dependencies{
		Personas:       personaStore,
		MaxImageBytes:  cfg.Diagnosis.MaxImageBytes,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	// One backend for the whole process; sessions and diagnosis share it.
	if cfg.AI.Enabled() {
		backend, err := ai.NewBackend(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI backend: %v", err)
			log.Println("continuing without AI functionality")
		} else {
			deps.Sessions = chat.NewService(backend, personaStore)
			deps.Diagnosis = diagnosis.NewEngine(backend, cfg.Diagnosis.MaxImageBytes)
			log.Printf("AI backend initialized provider=%s", cfg.AI.Provider)
		}
	} else {
		log.Printf("AI provider %q has no credentials, chat and diagnosis disabled", cfg.AI.Provider)
	}

	startServer(ctx, cfg.Server, handler.NewRouter(deps))
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Krishi Mitra backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
