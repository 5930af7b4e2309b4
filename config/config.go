package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

type Config struct {
	// Server
	Addr        string
	Environment string
	CORSOrigins []string

	// Storage
	MongoURI string
	MongoDB  string
	Demo     bool
	SeedFile string

	// Redis
	RedisURL      string
	RedisPassword string
	RedisDB       int
	EventCacheTTL time.Duration

	// Sessions and tickets
	JWTSecret   []byte
	QRSecret    []byte
	TokenTTL    time.Duration
	AdminEmails []string

	// Rate limiting
	RateLimitRPS   float64
	RateLimitBurst int
}

func (c *Config) Production() bool {
	return c.Environment == "production"
}

// Load reads .env (if present), the environment and then command line
// flags; flags take precedence.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("eventgo", pflag.ContinueOnError)
	envFile := fs.String("env-file", ".env", "dotenv file to load before reading the environment")
	addr := fs.String("addr", "", "listen address, overrides PORT")
	demo := fs.Bool("demo", false, "use the in-memory store seeded with demo data")
	seed := fs.String("seed", "", "YAML seed file for the in-memory store")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(*envFile); err != nil {
		log.Println("No .env file found; using system environment")
	}

	cfg := &Config{
		Addr:        listenAddr(getEnv("PORT", ":8080")),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		MongoURI: os.Getenv("MONGODB_URI"),
		MongoDB:  getEnv("MONGODB_DB", "eventgo"),
		Demo:     *demo,
		SeedFile: *seed,

		RedisURL:      os.Getenv("REDIS_URL"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		EventCacheTTL: getEnvAsDuration("EVENT_CACHE_TTL", "60s"),

		JWTSecret:   []byte(os.Getenv("JWT_SECRET")),
		QRSecret:    []byte(os.Getenv("QR_SECRET")),
		TokenTTL:    getEnvAsDuration("TOKEN_TTL", "168h"),
		AdminEmails: splitList(strings.ToLower(os.Getenv("ADMIN_EMAILS"))),

		RateLimitRPS:   getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 10),
	}
	if *addr != "" {
		cfg.Addr = listenAddr(*addr)
	}
	if cfg.MongoURI == "" {
		cfg.Demo = true
	}

	if len(cfg.JWTSecret) == 0 {
		if !cfg.Demo {
			return nil, errors.New("JWT_SECRET is required")
		}
		log.Println("JWT_SECRET not set; using an insecure demo secret")
		cfg.JWTSecret = []byte("eventgo-demo-secret")
	}
	if len(cfg.QRSecret) == 0 {
		cfg.QRSecret = cfg.JWTSecret
	}

	return cfg, nil
}

// IsAdminEmail reports whether registrations with email get the Admin role.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

func listenAddr(port string) string {
	if port == "" {
		return ":8080"
	}
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, defaultValue)); err == nil {
		return d
	}
	d, _ := time.ParseDuration(defaultValue)
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
