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

	"github.com/vishnusiva/callmate/backend/internal/config"
	"github.com/vishnusiva/callmate/backend/internal/handler"
	"github.com/vishnusiva/callmate/backend/internal/service/ai"
	callsvc "github.com/vishnusiva/callmate/backend/internal/service/call"
	"github.com/vishnusiva/callmate/backend/internal/service/speech"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// The three speech/AI services are all required for a voice turn,
	// so missing credentials fail fast instead of degrading silently.
	generator, err := ai.NewGenerator(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize reply generator: %v", err)
	}

	transcriber, err := speech.NewTranscriber(cfg.Speech)
	if err != nil {
		log.Fatalf("failed to initialize transcriber: %v", err)
	}

	synthesizer, err := speech.NewSynthesizer(ctx, cfg.Speech)
	if err != nil {
		log.Fatalf("failed to initialize synthesizer: %v", err)
	}
	defer synthesizer.Close()

	store := callsvc.NewStore()
	orchestrator := callsvc.NewOrchestrator(store, transcriber, generator, synthesizer, callsvc.Timeouts{
		Transcribe: cfg.Speech.Timeout,
		Generate:   cfg.AI.Timeout,
		Synthesize: cfg.Speech.Timeout,
	})

	router := handler.NewRouter(orchestrator)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("CallMate backend listening on %s", serverCfg.Addr)
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
