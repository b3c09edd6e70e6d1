// coursemindd is the coursemind daemon: it indexes course documents,
// answers questions over the REST API, and optionally bridges to chat
// connectors.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/coursemind-io/coursemind/internal/agent"
	"github.com/coursemind-io/coursemind/internal/api"
	"github.com/coursemind-io/coursemind/internal/config"
	"github.com/coursemind-io/coursemind/internal/connector"
	"github.com/coursemind-io/coursemind/internal/connector/telegram"
	"github.com/coursemind-io/coursemind/internal/ingest"
	"github.com/coursemind-io/coursemind/internal/logbuf"
	"github.com/coursemind-io/coursemind/internal/provider"
	"github.com/coursemind-io/coursemind/internal/rag"
	"github.com/coursemind-io/coursemind/internal/scheduler"
	"github.com/coursemind-io/coursemind/internal/session"
	"github.com/coursemind-io/coursemind/internal/store"
	"github.com/coursemind-io/coursemind/internal/tool"
)

func main() {
	configPath := flag.String("config", "", "Path to config JSON file")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logBuf := logbuf.New(2000)
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logbuf.NewHandler(jsonHandler, logBuf))

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("coursemindd starting", "provider", cfg.Provider.Type)

	// Model provider
	var prov provider.Provider
	switch cfg.Provider.Type {
	case "openai":
		var opts []provider.OpenAIOption
		if cfg.Provider.BaseURL != "" {
			opts = append(opts, provider.WithOpenAIBaseURL(cfg.Provider.BaseURL))
		}
		if cfg.Provider.Model != "" {
			opts = append(opts, provider.WithOpenAIModel(cfg.Provider.Model))
		}
		prov = provider.NewOpenAI(cfg.Provider.APIKey, opts...)
	default:
		var opts []provider.AnthropicOption
		if cfg.Provider.BaseURL != "" {
			opts = append(opts, provider.WithAnthropicBaseURL(cfg.Provider.BaseURL))
		}
		if cfg.Provider.Model != "" {
			opts = append(opts, provider.WithAnthropicModel(cfg.Provider.Model))
		}
		prov = provider.NewAnthropic(cfg.Provider.APIKey, opts...)
	}

	// Corpus store
	os.MkdirAll(cfg.Corpus.DataDir, 0o755)
	dbPath := filepath.Join(cfg.Corpus.DataDir, "corpus.db")
	corpus, err := store.OpenSQLite(dbPath, store.WithMaxResults(cfg.Corpus.MaxResults))
	if err != nil {
		logger.Error("failed to open corpus store", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer corpus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial document ingestion
	loader := ingest.NewLoader(corpus, logger)
	loader.ChunkSize = cfg.Corpus.ChunkSize
	loader.ChunkOverlap = cfg.Corpus.ChunkOverlap
	if cfg.Corpus.DocsDir != "" {
		courses, chunks, err := loader.LoadDir(ctx, cfg.Corpus.DocsDir)
		if err != nil {
			logger.Warn("document ingestion failed", "dir", cfg.Corpus.DocsDir, "error", err)
		} else {
			logger.Info("documents ingested", "courses", courses, "chunks", chunks)
		}
	}

	// Tools, generator, query orchestrator
	registry := tool.NewRegistry()
	registry.Register(tool.NewSearchTool(corpus))
	registry.Register(tool.NewOutlineTool(corpus))

	generator := agent.NewGenerator(prov, logger)
	sessions := session.NewManager(cfg.Session.MaxHistory)
	system := rag.New(sessions, generator, registry, corpus, logger)

	var wg sync.WaitGroup

	// Scheduled re-ingestion
	if cfg.Corpus.ReindexSchedule != "" && cfg.Corpus.DocsDir != "" {
		sched := scheduler.New(logger)
		err := sched.AddJob("reindex", cfg.Corpus.ReindexSchedule, func() {
			if _, _, err := loader.LoadDir(ctx, cfg.Corpus.DocsDir); err != nil {
				logger.Warn("scheduled re-index failed", "error", err)
			}
		})
		if err != nil {
			logger.Error("failed to schedule re-index", "error", err)
			os.Exit(1)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Start(ctx)
		}()
	}

	// Chat connectors
	var connectors []connector.Connector
	if tg := cfg.Connector.Telegram; tg != nil {
		tgConn, err := telegram.New(telegram.Config{
			Token:     tg.Token,
			AllowFrom: tg.AllowFrom,
		}, system, logger)
		if err != nil {
			logger.Error("failed to start telegram connector", "error", err)
			os.Exit(1)
		}
		connectors = append(connectors, tgConn)
	}
	for _, conn := range connectors {
		wg.Add(1)
		go func(c connector.Connector) {
			defer wg.Done()
			if err := c.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("connector stopped", "connector", c.Name(), "error", err)
			}
		}(conn)
	}

	// API server
	server := api.NewServer(system, api.Config{
		Host: cfg.API.Host,
		Port: cfg.API.Port,
		Key:  cfg.API.Key,
	}, logger, logBuf)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(ctx); err != nil {
			logger.Error("api server failed", "error", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info("shutting down", "signal", s.String())
	case <-ctx.Done():
	}
	cancel()
	for _, conn := range connectors {
		conn.Stop()
	}
	wg.Wait()
}
