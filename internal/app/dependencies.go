package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
	"github.com/vladislavdragonenkov/shop/internal/storage/postgres"
)

// runtimeDependencies содержит репозитории и хэндлы, требующие закрытия.
type runtimeDependencies struct {
	orders    domain.OrderRepository
	products  domain.ProductRepository
	customers domain.CustomerRepository
	outbox    domain.OutboxRepository

	// store не nil только для postgres-драйвера.
	store *postgres.Store
}

// initRuntimeDependencies собирает слой хранения согласно конфигурации.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		logger.Info("using in-memory storage")
		return &runtimeDependencies{
			orders:    memory.NewOrderRepository(),
			products:  memory.NewProductRepository(),
			customers: memory.NewCustomerRepository(),
			outbox:    memory.NewOutboxRepository(),
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage driver requires a DSN")
		}

		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}

		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("ensure postgres schema: %w", err)
			}
		}

		logger.Info("using postgres storage")
		return &runtimeDependencies{
			orders:    postgres.NewOrderRepository(store),
			products:  postgres.NewProductRepository(store),
			customers: postgres.NewCustomerRepository(store),
			outbox:    postgres.NewOutboxRepository(store),
			store:     store,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}

// close освобождает ресурсы слоя хранения.
func (d *runtimeDependencies) close(logger *log.Entry) {
	if d.store == nil {
		return
	}
	if err := d.store.Close(); err != nil {
		logger.WithError(err).Warn("failed to close postgres store")
	}
}
