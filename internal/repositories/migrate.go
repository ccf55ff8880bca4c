package repositories

import (
	"context"
	"fmt"
	"log"

	"github.com/anonto42/spotlight/backend/internal/models"
	"gorm.io/gorm"
)

// RelationalModels are the gorm models migrated into PostgreSQL
func RelationalModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Like{},
		&models.Comment{},
		&models.Follow{},
		&models.FollowRequest{},
		&models.Bookmark{},
		&models.Notification{},
		&models.StoryView{},
	}
}

// AutoMigrate migrates the relational schema
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(RelationalModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")
	return nil
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureDocumentIndexes creates the MongoDB indexes for posts and stories
func EnsureDocumentIndexes(ctx context.Context, repos ...indexer) error {
	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}
	log.Println("MongoDB indexes ensured.")
	return nil
}
