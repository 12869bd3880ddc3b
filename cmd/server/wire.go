package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/maxviazov/convention-catalog-service/internal/catalog"
	"github.com/maxviazov/convention-catalog-service/internal/config"
	"github.com/maxviazov/convention-catalog-service/internal/model"
	"github.com/maxviazov/convention-catalog-service/internal/repository"
	"github.com/maxviazov/convention-catalog-service/internal/repository/memory"
	"github.com/maxviazov/convention-catalog-service/internal/repository/postgres"
)

// feedbackStore also moves feedback through its review states.
type feedbackStore interface {
	repository.CatalogRepository[model.Feedback]
	repository.StatusRepository[model.Feedback]
}

// stores holds one repository per catalog entity for the configured driver.
type stores struct {
	techStacks    repository.CatalogRepository[model.TechStack]
	architectures repository.CatalogRepository[model.Architecture]
	layers        repository.CatalogRepository[model.Layer]
	modules       repository.CatalogRepository[model.Module]
	codingRules   repository.CatalogRepository[model.CodingRule]
	templates     repository.CatalogRepository[model.Template]
	feedback      feedbackStore

	pinger repository.Pinger
	close  func()
}

func openStores(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		ts := memory.New(catalog.TechStacks)
		logger.Warn().Msg("memory storage driver: data is lost on restart")
		return &stores{
			techStacks:    ts,
			architectures: memory.New(catalog.Architectures),
			layers:        memory.New(catalog.Layers),
			modules:       memory.New(catalog.Modules),
			codingRules:   memory.New(catalog.CodingRules),
			templates:     memory.New(catalog.Templates),
			feedback:      memory.New(catalog.Feedback),
			pinger:        ts,
			close:         func() {},
		}, nil
	case config.DriverPostgres:
		repo, err := repository.New(ctx, &cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		pool := repo.Pool()
		if cfg.Postgres.AutoMigrate {
			if err := repository.MigratePool(ctx, pool, "up"); err != nil {
				repo.Close()
				return nil, fmt.Errorf("auto migrate: %w", err)
			}
			logger.Info().Msg("migrations applied")
		}
		return &stores{
			techStacks:    postgres.NewCatalogStore(pool, catalog.TechStacks),
			architectures: postgres.NewCatalogStore(pool, catalog.Architectures),
			layers:        postgres.NewCatalogStore(pool, catalog.Layers),
			modules:       postgres.NewCatalogStore(pool, catalog.Modules),
			codingRules:   postgres.NewCatalogStore(pool, catalog.CodingRules),
			templates:     postgres.NewCatalogStore(pool, catalog.Templates),
			feedback:      postgres.NewCatalogStore(pool, catalog.Feedback),
			pinger:        postgres.NewPinger(pool),
			close:         repo.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
