package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/storage"
	pkgconfig "github.com/Skotchmaster/storefront/pkg/config"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	APIURL     string
	APITimeout time.Duration

	Storage     storage.Options
	PersistCart bool

	KafkaBrokers []string

	CSRFSecure     bool
	AllowOrigins   []string
	RestoreTimeout time.Duration
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("Notice: .env file not loaded: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ListenAddr: pkgconfig.EnvDefault("SERVER_ADDR", ":"+pkgconfig.EnvDefault("SERVER_PORT", "8080")),
		LogLevel:   pkgconfig.EnvDefault("LOG_LEVEL", "info"),

		APIURL:     pkgconfig.EnvDefault("STOREFRONT_API_URL", apiclient.DefaultBaseURL),
		APITimeout: pkgconfig.EnvDurationDefault("API_TIMEOUT", 15*time.Second),

		Storage: storage.Options{
			Driver:        pkgconfig.EnvDefault("STORAGE_DRIVER", storage.DriverSQLite),
			SQLitePath:    pkgconfig.EnvDefault("STORAGE_PATH", "storefront.db"),
			DatabaseURL:   os.Getenv("DATABASE_URL"),
			RedisAddr:     pkgconfig.EnvDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       pkgconfig.EnvIntDefault("REDIS_DB", 0),
			RedisPrefix:   pkgconfig.EnvDefault("REDIS_KEY_PREFIX", "storefront:"),
		},
		PersistCart: pkgconfig.EnvBoolDefault("PERSIST_CART", false),

		KafkaBrokers: pkgconfig.CSV(os.Getenv("KAFKA_BROKERS")),

		CSRFSecure:     pkgconfig.EnvBoolDefault("CSRF_SECURE", false),
		AllowOrigins:   pkgconfig.CSV(os.Getenv("CORS_ALLOW_ORIGINS")),
		RestoreTimeout: pkgconfig.EnvDurationDefault("RESTORE_TIMEOUT", 10*time.Second),
	}

	pkgconfig.MustOneOf(cfg.Storage.Driver, "STORAGE_DRIVER",
		storage.DriverMemory, storage.DriverSQLite, storage.DriverPostgres, storage.DriverRedis, storage.DriverNone)
	if cfg.Storage.Driver == storage.DriverPostgres {
		pkgconfig.MustNonEmpty(cfg.Storage.DatabaseURL, "DATABASE_URL")
	}

	return cfg
}
