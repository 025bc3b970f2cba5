package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the binaries read from the environment.
type Config struct {
	HTTPAddr         string
	InventoryTable   string
	OrdersTable      string
	IdempotencyTable string
	TrackingQueueURL string
	RedisAddr        string
	MetricsNamespace string
	IdempotencyTTL   time.Duration
	RunLocal         bool
}

// Load reads the environment, with sensible defaults for local runs.
// When RUN_LOCAL=true a .env file is loaded first if present.
func Load() Config {
	runLocal := os.Getenv("RUN_LOCAL") == "true"
	if runLocal {
		_ = godotenv.Load()
	}

	return Config{
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		InventoryTable:   getenv("INVENTORY_TABLE", "wonderdoor-inventory"),
		OrdersTable:      getenv("ORDERS_TABLE", "wonderdoor-orders"),
		IdempotencyTable: getenv("IDEMPOTENCY_TABLE", "wonderdoor-idempotency"),
		TrackingQueueURL: os.Getenv("TRACKING_QUEUE_URL"),
		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		MetricsNamespace: getenv("METRICS_NAMESPACE", "WonderDoorAdmin"),
		IdempotencyTTL:   getDuration("IDEMPOTENCY_TTL", 48*time.Hour),
		RunLocal:         runLocal,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
