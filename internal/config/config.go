package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

type Config struct {
	Port           string
	Env            string
	JWTSecret      string
	AllowedOrigins string
	RateLimit      int // requests per minute per IP on /api

	Database DatabaseConfig
	Redis    RedisConfig
	Chat     ChatConfig
}

type DatabaseConfig struct {
	Host      string
	User      string
	Password  string
	Name      string
	Port      string
	SSLMode   string
	SlowQuery time.Duration
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type ChatConfig struct {
	RelayEnabled bool
	SendBuffer   int
	PingInterval time.Duration
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 100)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "cursos")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_SLOW_QUERY_MS", 200)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("CHAT_RELAY_ENABLED", false)
	v.SetDefault("WS_SEND_BUFFER", 256)
	v.SetDefault("WS_PING_INTERVAL", 30*time.Second)
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	defaults(v)
	v.AutomaticEnv()
	return v
}

func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:           v.GetString("PORT"),
		Env:            v.GetString("APP_ENV"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		AllowedOrigins: v.GetString("ALLOWED_ORIGINS"),
		RateLimit:      v.GetInt("RATE_LIMIT_PER_MINUTE"),
		Database: DatabaseConfig{
			Host:      v.GetString("DB_HOST"),
			User:      v.GetString("DB_USER"),
			Password:  v.GetString("DB_PASSWORD"),
			Name:      v.GetString("DB_NAME"),
			Port:      v.GetString("DB_PORT"),
			SSLMode:   v.GetString("DB_SSLMODE"),
			SlowQuery: time.Duration(v.GetInt("DB_SLOW_QUERY_MS")) * time.Millisecond,
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Chat: ChatConfig{
			RelayEnabled: v.GetBool("CHAT_RELAY_ENABLED"),
			SendBuffer:   v.GetInt("WS_SEND_BUFFER"),
			PingInterval: v.GetDuration("WS_PING_INTERVAL"),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if cfg.RateLimit < 1 {
		cfg.RateLimit = 100
	}
	if cfg.Chat.SendBuffer < 1 {
		cfg.Chat.SendBuffer = 256
	}
	if cfg.Chat.PingInterval <= 0 {
		cfg.Chat.PingInterval = 30 * time.Second
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
