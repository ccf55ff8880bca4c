package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// DB holds the database connections
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
	MongoDB  *mongo.Database
	Redis    *redis.Client
}

// Connection openers, replaced in tests
var (
	openPostgres = initPostgres
	openMongo    = initMongo
	openRedis    = initRedis
)

// InitDB initializes and returns the database connections. When one of them
// fails the ones already opened are closed.
func InitDB(cfg *Config) (*DB, error) {
	if cfg.PostgresURL == "" {
		return nil, fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI environment variable not set")
	}

	db := &DB{}
	var err error
	if db.Postgres, err = openPostgres(cfg.PostgresURL, cfg.IsProduction()); err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if db.Mongo, err = openMongo(cfg.MongoURI); err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if db.Redis, err = openRedis(cfg.RedisAddr, cfg.RedisPassword); err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	db.MongoDB = db.Mongo.Database(cfg.MongoDatabase)
	return db, nil
}

// initPostgres initializes the PostgreSQL database connection using GORM,
// retrying with backoff while the database comes up
func initPostgres(connStr string, production bool) (*gorm.DB, error) {
	level := logger.Info
	if production {
		level = logger.Warn
	}

	var (
		db   *gorm.DB
		last error
	)
	sleep := time.Second
	for attempt := 1; attempt <= 6; attempt++ {
		db, last = gorm.Open(postgres.Open(connStr), &gorm.Config{
			Logger: logger.Default.LogMode(level),
		})
		if last == nil {
			last = pingPostgres(db)
			if last == nil {
				break
			}
			closePostgres(db)
		}
		log.Printf("PostgreSQL not ready (attempt %d): %v", attempt, last)
		time.Sleep(sleep)
		if sleep < 8*time.Second {
			sleep *= 2
		}
	}
	if last != nil {
		return nil, last
	}

	sqlDB, err := db.DB()
	if err != nil {
		closePostgres(db)
		return nil, err
	}
	sqlDB.SetMaxOpenConns(40)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Use(tracing.NewPlugin()); err != nil {
		closePostgres(db)
		return nil, fmt.Errorf("gorm tracing plugin: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL!")
	return db, nil
}

func closePostgres(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func pingPostgres(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// initMongo initializes the MongoDB connection
func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Println("Successfully connected to MongoDB!")
	return client, nil
}

func initRedis(addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	log.Println("Successfully connected to Redis!")
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			log.Printf("Error getting SQL DB from GORM: %v\n", err)
		} else {
			if err := sqlDB.Close(); err != nil {
				log.Printf("Error closing PostgreSQL connection: %v\n", err)
			} else {
				log.Println("PostgreSQL connection closed.")
			}
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			log.Printf("Error closing MongoDB connection: %v\n", err)
		} else {
			log.Println("MongoDB connection closed.")
		}
	}

	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			log.Printf("Error closing Redis connection: %v\n", err)
		} else {
			log.Println("Redis connection closed.")
		}
	}
}
