package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/services"
	"expensetracker/internal/store"
	"expensetracker/internal/store/memory"
	"expensetracker/internal/store/mongo"
	"expensetracker/internal/store/sqlstore"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	st, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	// AMQP is optional: a broker outage must not keep the API down.
	var publisher services.EventPublisher
	if config.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			publisher = amqpClient
		}
	}

	var (
		listCache *cache.LRUCache[[]core.Expense]
		manager   *cache.Manager
	)
	if config.CacheTTL > 0 {
		size := config.CacheSize
		if size <= 0 {
			size = defaultCacheSize
		}
		listCache = cache.NewLRUCache[[]core.Expense](size, config.CacheTTL)
		manager = cache.NewManager()
		manager.Register(listCache)
		manager.StartCleanup(config.CacheTTL)
	}

	svc := services.NewExpenseService(st, publisher, listCache)

	f.logger.Info("Initialized backend",
		"backend", config.Type,
		"amqp_enabled", publisher != nil,
		"cache_ttl", config.CacheTTL)

	return &BackendResult{
		Service: svc,
		Cleanup: func() error {
			if manager != nil {
				manager.Stop()
			}
			return svc.Close()
		},
	}, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (store.Store, error) {
	switch config.Type {
	case MongoBackend:
		uri, err := mongo.ConnInfo{
			URI:      config.MongoURI,
			User:     config.MongoUser,
			Password: config.MongoPassword,
			Host:     config.MongoHost,
			Database: config.MongoDB,
		}.Resolve()
		if err != nil {
			return nil, err
		}
		st, err := mongo.Open(ctx, mongo.Options{
			URI:        uri,
			Database:   config.MongoDB,
			Collection: config.MongoCollection,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
		}
		return st, nil

	case SQLiteBackend:
		st, err := sqlstore.OpenSQLite(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return st, nil

	case PostgresBackend:
		st, err := sqlstore.OpenPostgres(config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres store")
		return st, nil

	case MemoryBackend:
		f.logger.Info("Initialized memory store")
		return memory.New(), nil
	}

	return nil, errors.New("unsupported backend type: " + config.Type.String())
}
