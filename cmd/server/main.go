package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"drivetime/internal/api"
	"drivetime/internal/config"
	"drivetime/internal/engine"
	"drivetime/internal/mcp"
	"drivetime/internal/store"
	"drivetime/internal/worker"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	cfg := config.Load()

	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	s, err := store.New(db)
	if err != nil {
		slog.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Artifacts stuck in processing from a previous run go back to pending
	// so the worker picks them up again.
	if n, err := s.ResetStaleProcessing(ctx); err != nil {
		slog.Error("failed to reset stale artifacts", "error", err)
	} else if n > 0 {
		slog.Info("reset stale processing artifacts", "count", n)
	}

	var (
		modelClient engine.ModelClient
		extractor   engine.ContentExtractor
		synth       engine.Synthesizer
	)
	if cfg.UseStubs() {
		slog.Warn("no API key configured, using stub engine", "provider", cfg.LLMProvider)
		modelClient = &engine.StubModelClient{}
		extractor = &engine.StubExtractor{}
		synth = &engine.StubSynthesizer{}
	} else {
		switch cfg.LLMProvider {
		case "claude":
			modelClient = engine.NewClaudeClient(cfg.AnthropicKey,
				engine.WithClaudeModel(cfg.AnthropicModel),
				engine.WithClaudeHTTPTimeout(cfg.HTTPTimeout),
			)
		default:
			modelClient = engine.NewOpenAIClient(cfg.OpenAIKey,
				engine.WithModel(cfg.OpenAIModel),
				engine.WithHTTPTimeout(cfg.HTTPTimeout),
			)
		}
		extractor = engine.NewHTTPExtractor(
			engine.WithMaxTextLength(cfg.MaxTextLength),
			engine.WithExtractTimeout(cfg.HTTPTimeout),
		)
		// Speech always goes through the OpenAI audio endpoint.
		synth = engine.NewSpeechClient(cfg.OpenAIKey,
			engine.WithSpeechModel(cfg.TTSModel),
			engine.WithVoice(cfg.TTSVoice),
			engine.WithSpeechHTTPTimeout(cfg.HTTPTimeout),
		)
	}

	pipeline := engine.NewPipeline(s, extractor, modelClient)

	w := worker.New(s, pipeline, cfg.WorkerInterval)
	go w.Start(ctx)

	mcpSrv := mcp.New(s, pipeline, cfg.DefaultUser)
	apiSrv := api.New(s, pipeline, synth, api.Options{
		MCP:         mcpSrv,
		DefaultUser: cfg.DefaultUser,
		CORSOrigin:  cfg.CORSOrigin,
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiSrv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "port", cfg.Port, "db", cfg.DBPath, "provider", cfg.LLMProvider)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
