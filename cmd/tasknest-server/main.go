package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"github.com/tasknest-ai/tasknest/internal/agent"
	"github.com/tasknest-ai/tasknest/internal/api"
	"github.com/tasknest-ai/tasknest/internal/auth"
	"github.com/tasknest-ai/tasknest/internal/chread"
	"github.com/tasknest-ai/tasknest/internal/llm"
	"github.com/tasknest-ai/tasknest/internal/storage"
	"github.com/tasknest-ai/tasknest/internal/taskstore"
	"github.com/tasknest-ai/tasknest/internal/tools"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Logger
	logger := mustBuildLogger(envOrDefault("TASKNEST_LOG_LEVEL", "info"))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	// Config from env
	httpPort := envOrDefault("TASKNEST_PORT", "8080")
	postgresDSN := os.Getenv("POSTGRES_DSN")
	clickhouseDSN := os.Getenv("CLICKHOUSE_DSN")
	llmAPIBase := envOrDefault("LLM_API_BASE", "https://api.openai.com/v1")
	llmAPIKey := os.Getenv("LLM_API_KEY")
	llmModel := envOrDefault("LLM_MODEL", "gpt-4o-mini")
	llmTimeoutMs := envOrDefaultInt("TASKNEST_LLM_TIMEOUT_MS", 8000)
	cacheTTL := envOrDefaultInt("TASKNEST_AUTH_CACHE_TTL_S", 30)

	logger.Info("starting tasknest server",
		zap.String("http_port", httpPort),
		zap.String("llm_model", llmModel),
		zap.Int("llm_timeout_ms", llmTimeoutMs),
	)

	// Postgres pool, task store and token auth. Without a DSN the server
	// runs with an in-memory store and dev tokens, which is enough for
	// local hacking but loses everything on restart.
	var taskStore taskstore.Store
	var authenticator auth.Authenticator
	if postgresDSN != "" {
		db, err := sql.Open("pgx", postgresDSN)
		if err != nil {
			logger.Fatal("failed to open postgres", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(context.Background()); err != nil {
			logger.Fatal("failed to ping postgres", zap.Error(err))
		}
		taskStore = taskstore.NewPostgresStore(db)
		authenticator = auth.NewPostgresAuthenticator(auth.PostgresAuthConfig{
			DB:       db,
			CacheTTL: time.Duration(cacheTTL) * time.Second,
			Logger:   logger,
		})
		logger.Info("postgres connected")
	} else {
		taskStore = taskstore.NewMemoryStore()
		authenticator = auth.NewStaticAuthenticator()
		logger.Warn("no POSTGRES_DSN set, using in-memory store and dev tokens")
	}

	// Chat audit trail, ClickHouse or LogWriter fallback
	var writer storage.EventWriter
	var reader *chread.Reader
	if clickhouseDSN != "" {
		chWriter, err := storage.NewClickHouseWriter(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err),
			)
			writer = storage.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
		chReader, err := chread.NewReader(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse reader connection failed, chat history disabled", zap.Error(err))
		} else {
			defer func() { _ = chReader.Close() }()
			reader = chReader
			logger.Info("clickhouse reader connected")
		}
	} else {
		writer = storage.NewLogWriter(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// Tool registry over the task store
	registry, err := tools.NewRegistry(taskStore, logger)
	if err != nil {
		logger.Fatal("failed to build tool registry", zap.Error(err))
	}

	// Completion client
	if llmAPIKey == "" {
		logger.Warn("LLM_API_KEY is empty, chat requests will fail against most providers")
	}
	client := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIBase: llmAPIBase,
		APIKey:  llmAPIKey,
		Model:   llmModel,
		Timeout: time.Duration(llmTimeoutMs) * time.Millisecond,
		Logger:  logger,
	})

	interpreter := agent.NewInterpreter(client, registry, logger)

	deps := &api.Dependencies{
		Auth:   authenticator,
		Agent:  interpreter,
		Tasks:  taskStore,
		Writer: writer,
		Reader: reader,
		Logger: logger,
	}
	httpServer := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("tasknest server stopped")
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
