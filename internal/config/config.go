package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const devSecret = "dev-only-change-me"

type Config struct {
	Port     string
	DBDriver string // sqlite | pgx
	DBDSN    string
	LogFile  string
	LogLevel string

	JWTSecret      string
	JWTIssuer      string
	AccessTTLMin   int
	BcryptCost     int
	TrackStock     bool
	SeedDemo       bool
	CORSOrigins    string
	BodyLimitBytes int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AMQPURL    string
	OrderQueue string
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	cfg := Config{
		Port:           env("PORT", "8080"),
		DBDriver:       strings.ToLower(env("DB_DRIVER", "sqlite")),
		DBDSN:          env("DB_DSN", "storefront.db"),
		LogFile:        os.Getenv("LOG_FILE"),
		LogLevel:       env("LOG_LEVEL", "info"),
		JWTSecret:      env("JWT_SECRET", devSecret),
		JWTIssuer:      env("JWT_ISSUER", "storefront"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:     envInt("BCRYPT_COST", 12),
		TrackStock:     envBool("TRACK_STOCK", true),
		SeedDemo:       envBool("SEED_DEMO", true),
		CORSOrigins:    env("CORS_ORIGINS", "*"),
		BodyLimitBytes: envInt("BODY_LIMIT_BYTES", 1<<20),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        envInt("REDIS_DB", 0),
		AMQPURL:        os.Getenv("AMQP_URL"),
		OrderQueue:     env("ORDER_EVENTS_QUEUE", "order.placed"),
	}
	if cfg.DBDriver != "sqlite" && cfg.DBDriver != "pgx" {
		log.Printf("[config] unknown DB_DRIVER=%q, falling back to sqlite", cfg.DBDriver)
		cfg.DBDriver = "sqlite"
	}
	if cfg.JWTSecret == devSecret {
		log.Printf("[warn] JWT_SECRET not set; using development secret")
	}

	// secrets and DSNs with credentials stay out of the log
	log.Printf("[config] PORT=%s DB_DRIVER=%s LOG_FILE=%s LOG_LEVEL=%s TRACK_STOCK=%t REDIS=%t AMQP=%t",
		cfg.Port, cfg.DBDriver, cfg.LogFile, cfg.LogLevel, cfg.TrackStock, cfg.RedisAddr != "", cfg.AMQPURL != "")
	return cfg
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %t", key, v, def)
		return def
	}
	return b
}
