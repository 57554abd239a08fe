// Package storage собирает каталог процедур и хранилище прогресса
// по режиму из конфигурации.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Procedura/internal/catalog"
	"github.com/shaiso/Procedura/internal/config"
	"github.com/shaiso/Procedura/internal/domain"
	"github.com/shaiso/Procedura/internal/progress"
	"github.com/shaiso/Procedura/internal/repo"
)

// Backend — источники данных procedure.Service.
type Backend struct {
	Catalog catalog.Source
	Store   progress.Store

	// Pool — пул PostgreSQL; nil в режиме memory.
	Pool *pgxpool.Pool
}

// Open открывает хранилище.
//
// postgres: пул, схема (при db.auto_migrate) и импорт storage.catalog,
// если он задан. memory: каталог из storage.catalog и пустой MemStore.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Storage.Mode {
	case config.StorageMemory:
		c, err := catalog.LoadFile(cfg.Storage.Catalog)
		if err != nil {
			return nil, err
		}
		logger.Info("using in-memory storage", "catalog", cfg.Storage.Catalog)
		return &Backend{Catalog: c, Store: progress.NewMemStore()}, nil

	case config.StoragePostgres:
		return openPostgres(ctx, cfg, logger)

	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.Storage.Mode)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	pool, err := repo.NewPool(ctx, cfg.DB.URL, cfg.DB.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database")

	if cfg.DB.AutoMigrate {
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("database schema applied")
	}

	flows := repo.NewFlowRepo(pool)
	if cfg.Storage.Catalog != "" {
		entries, err := catalog.ReadFile(cfg.Storage.Catalog)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := Import(ctx, flows, entries); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("catalog imported", "catalog", cfg.Storage.Catalog, "flows", len(entries))
	}

	return &Backend{Catalog: flows, Store: repo.NewProgressRepo(pool), Pool: pool}, nil
}

// Importer записывает процедуру вместе с шагами. Реализуется *repo.FlowRepo.
type Importer interface {
	Import(ctx context.Context, flow *domain.Flow, steps []domain.Step) error
}

// Import загружает записи каталога в хранилище, каждую своей транзакцией.
func Import(ctx context.Context, dst Importer, entries []catalog.Entry) error {
	for i := range entries {
		e := &entries[i]
		if err := dst.Import(ctx, &e.Flow, e.Steps); err != nil {
			return fmt.Errorf("import flow %s: %w", e.Flow.ID, err)
		}
	}
	return nil
}

// Ping проверяет доступность хранилища.
func (b *Backend) Ping(ctx context.Context) error {
	if b.Pool == nil {
		return nil
	}
	return b.Pool.Ping(ctx)
}

// Close освобождает ресурсы.
func (b *Backend) Close() {
	if b.Pool != nil {
		b.Pool.Close()
	}
}
