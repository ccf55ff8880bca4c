// Package app assembles the stores, clients and services shared by the
// server and the admin CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anonto42/spotlight/backend/internal/repositories"
	"github.com/anonto42/spotlight/backend/internal/services"
	"github.com/anonto42/spotlight/backend/pkg/config"
	"github.com/anonto42/spotlight/backend/pkg/events"
	"github.com/anonto42/spotlight/backend/pkg/storage"
)

// App is a fully wired backend
type App struct {
	Config    *config.Config
	DB        *config.DB
	Posts     *repositories.MongoPostRepository
	Stories   repositories.StoryRepository
	Storage   *storage.MinioStorage
	Publisher events.Publisher
	Services  *services.Registry
}

// New connects to every backing service and builds the service registry
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	store, err := storage.NewMinioStorage(storage.Config{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		UseSSL:    cfg.StorageUseSSL,
		PublicURL: cfg.StoragePublicURL,
		Region:    cfg.StorageRegion,
	})
	if err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	publisher, err := events.NewPublisher(events.Config{
		Driver:       cfg.EventsDriver,
		KafkaBrokers: cfg.KafkaBrokers,
		KafkaTopic:   cfg.KafkaTopic,
		NatsURL:      cfg.NatsURL,
	}, logger)
	if err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to initialize events publisher: %w", err)
	}

	a := &App{
		Config:    cfg,
		DB:        db,
		Posts:     repositories.NewMongoPostRepository(db.MongoDB),
		Stories:   repositories.NewMongoStoryRepository(db.MongoDB),
		Storage:   store,
		Publisher: publisher,
	}
	a.Services = services.NewRegistry(services.Backends{
		Postgres:  db.Postgres,
		Posts:     a.Posts,
		Stories:   a.Stories,
		Redis:     db.Redis,
		Storage:   store,
		Publisher: publisher,
	}, cfg)
	return a, nil
}

// Migrate applies the relational schema, the document indexes and the bucket
func (a *App) Migrate(ctx context.Context) error {
	if err := repositories.AutoMigrate(a.DB.Postgres); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := repositories.EnsureDocumentIndexes(ctx, a.Posts, a.Stories); err != nil {
		return err
	}
	return a.Storage.EnsureBucket(ctx)
}

// Close releases the publisher and database connections
func (a *App) Close() {
	if err := a.Publisher.Close(); err != nil {
		slog.Warn("events publisher close failed", "error", err)
	}
	a.DB.CloseDB()
}
