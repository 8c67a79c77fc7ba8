// Package backend builds the configured file-store stack: the store itself,
// an optional AMQP client, and the cleanup to run at shutdown.
package backend

import (
	"fmt"
	"log/slog"

	"finsight/internal/amqp"
	"finsight/internal/config"
	"finsight/internal/store"
)

type CleanupFunc func() error

// Result is what a factory hands to the caller. AMQP is nil when no broker
// is configured or the broker is unreachable.
type Result struct {
	Store   store.FileStore
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

func (f *Factory) Create(cfg *config.Config) (*Result, error) {
	switch cfg.DataBackend {
	case "sqlite":
		return f.createSQLite(cfg)
	case "memory":
		return f.createMemory(cfg)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}

func (f *Factory) createSQLite(cfg *config.Config) (*Result, error) {
	st, err := store.NewSQLite(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite store: %w", err)
	}

	amqpClient := f.dialAMQP(cfg)

	f.logger.Info("Initialized sqlite backend",
		"db_path", cfg.SQLiteDBPath,
		"amqp_enabled", amqpClient != nil)

	return &Result{
		Store:   st,
		AMQP:    amqpClient,
		Cleanup: cleanup(st.Close, amqpClient),
	}, nil
}

func (f *Factory) createMemory(cfg *config.Config) (*Result, error) {
	st := store.NewMemory(cfg.UploadDir)
	amqpClient := f.dialAMQP(cfg)

	f.logger.Info("Initialized memory backend",
		"upload_dir", cfg.UploadDir,
		"amqp_enabled", amqpClient != nil)

	return &Result{Store: st, AMQP: amqpClient, Cleanup: cleanup(nil, amqpClient)}, nil
}

func cleanup(closeStore func() error, amqpClient *amqp.Client) CleanupFunc {
	return func() error {
		var firstErr error
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				firstErr = err
			}
		}
		if closeStore != nil {
			if err := closeStore(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
}

// dialAMQP is best-effort: a missing or unreachable broker downgrades to
// local-only operation instead of failing startup.
func (f *Factory) dialAMQP(cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}
