package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/carwash/internal/domain"
	"github.com/vladislavdragonenkov/carwash/internal/storage/memory"
	"github.com/vladislavdragonenkov/carwash/internal/storage/postgres"
)

// runtimeDependencies — хранилища сервиса заказов выбранного драйвера.
type runtimeDependencies struct {
	repo         domain.OrderRepository
	outboxRepo   domain.OutboxRepository
	timelineRepo domain.TimelineRepository
	// ping проверяет доступность хранилища для /healthz.
	ping  func(ctx context.Context) error
	close func() error
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	switch cfg.StorageDriver {
	case "", StorageDriverMemory:
		logger.Info("using in-memory order storage")
		return &runtimeDependencies{
			repo:         memory.NewOrderRepository(),
			outboxRepo:   memory.NewOutboxRepository(),
			timelineRepo: memory.NewTimelineRepository(),
			ping:         func(context.Context) error { return nil },
			close:        func() error { return nil },
		}, nil
	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage requires CARWASH_POSTGRES_DSN")
		}

		store, err := postgres.Open(ctx, cfg.PostgresDSN, postgres.DefaultPoolConfig())
		if err != nil {
			return nil, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("auto migrate: %w", err)
			}
			logger.Info("postgres migrations applied")
		}

		return &runtimeDependencies{
			repo:         postgres.NewOrderRepository(store),
			outboxRepo:   postgres.NewOutboxRepository(store),
			timelineRepo: postgres.NewTimelineRepository(store),
			ping:         store.Ping,
			close:        store.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
