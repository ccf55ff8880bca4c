package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	Env                     string
	MetricsPort             string
	FirebaseCredentialsPath string
	PostgresURL             string
	MongoURI                string
	MongoDatabase           string

	JWTSecret     string
	JWTTTL        time.Duration
	WebhookSecret string

	RedisAddr     string
	RedisPassword string

	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool
	StoragePublicURL string
	StorageRegion    string

	EventsDriver string
	KafkaBrokers []string
	KafkaTopic   string
	NatsURL      string

	OTLPEndpoint string
	ServiceName  string

	StoryTTL                time.Duration
	StorySweepInterval      time.Duration
	FollowCacheTTL          time.Duration
	FollowToggleLimit       int64
	FollowToggleWindow      time.Duration
	NotificationDedupWindow time.Duration
}

// Load reads the configuration from the environment, after an optional .env file
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		PostgresURL:             getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "spotlight"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTTTL:        getDuration("JWT_TTL", 72*time.Hour),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		StorageEndpoint:  getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey: getEnv("STORAGE_SECRET_KEY", ""),
		StorageBucket:    getEnv("STORAGE_BUCKET", "spotlight"),
		StorageUseSSL:    getBool("STORAGE_USE_SSL", false),
		StoragePublicURL: strings.TrimRight(getEnv("STORAGE_PUBLIC_URL", ""), "/"),
		StorageRegion:    getEnv("STORAGE_REGION", "us-east-1"),

		EventsDriver: getEnv("EVENTS_DRIVER", "log"),
		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "spotlight.events"),
		NatsURL:      getEnv("NATS_URL", "nats://localhost:4222"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "spotlight-api"),

		StoryTTL:                getDuration("STORY_TTL", 24*time.Hour),
		StorySweepInterval:      getDuration("STORY_SWEEP_INTERVAL", 5*time.Minute),
		FollowCacheTTL:          getDuration("FOLLOW_CACHE_TTL", 5*time.Minute),
		FollowToggleLimit:       int64(getInt("FOLLOW_TOGGLE_LIMIT", 10)),
		FollowToggleWindow:      getDuration("FOLLOW_TOGGLE_WINDOW", time.Minute),
		NotificationDedupWindow: getDuration("NOTIFICATION_DEDUP_WINDOW", time.Hour),
	}
}

// Validate reports the required keys that are missing
func (c *Config) Validate() error {
	var missing []string
	if c.PostgresURL == "" {
		missing = append(missing, "POSTGRES_CONN_STR")
	}
	if c.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.WebhookSecret == "" {
		missing = append(missing, "WEBHOOK_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	switch c.EventsDriver {
	case "kafka", "nats", "log":
	default:
		return fmt.Errorf("EVENTS_DRIVER must be one of kafka, nats, log (got %q)", c.EventsDriver)
	}

	var nonPositive []string
	for _, d := range []struct {
		key   string
		value time.Duration
	}{
		{"JWT_TTL", c.JWTTTL},
		{"STORY_TTL", c.StoryTTL},
		{"STORY_SWEEP_INTERVAL", c.StorySweepInterval},
		{"FOLLOW_CACHE_TTL", c.FollowCacheTTL},
		{"FOLLOW_TOGGLE_WINDOW", c.FollowToggleWindow},
		{"NOTIFICATION_DEDUP_WINDOW", c.NotificationDedupWindow},
	} {
		if d.value <= 0 {
			nonPositive = append(nonPositive, d.key)
		}
	}
	if c.FollowToggleLimit <= 0 {
		nonPositive = append(nonPositive, "FOLLOW_TOGGLE_LIMIT")
	}
	if len(nonPositive) > 0 {
		return fmt.Errorf("must be positive: %s", strings.Join(nonPositive, ", "))
	}
	return nil
}

// IsProduction reports whether the service runs with ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s (%q), using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s (%q), using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
