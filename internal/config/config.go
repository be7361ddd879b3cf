package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	MinIO    MinIOConfig
	JWT      JWTConfig
	Sweep    SweepConfig
}

type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	RateLimit       int
	RateWindow      time.Duration
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN builds the connection string for the configured driver
func (d DatabaseConfig) DSN() string {
	if d.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.DBName)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	URI          string
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type KafkaConfig struct {
	Enabled bool
	Driver  string
	Brokers []string
	Topic   string
}

type MinIOConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type JWTConfig struct {
	Secret         string
	ExpirationTime time.Duration
}

type SweepConfig struct {
	Interval time.Duration
}

// LoadConfig reads configuration from the environment, after loading a .env file when one exists
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	v := viper.New()
	v.SetDefault("HANGOUT_PORT", "8080")
	v.SetDefault("HANGOUT_READ_TIMEOUT", 30*time.Second)
	v.SetDefault("HANGOUT_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("HANGOUT_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("HANGOUT_SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("HANGOUT_ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("HANGOUT_RATE_LIMIT", 120)
	v.SetDefault("HANGOUT_RATE_WINDOW", time.Minute)
	v.SetDefault("HANGOUT_JWT_SECRET", "secret")
	v.SetDefault("HANGOUT_JWT_EXPIRE", "24h")
	v.SetDefault("HANGOUT_SWEEP_INTERVAL", time.Minute)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "hangouts")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("REDIS_URL", "redis://127.0.0.1:6379/0")
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 100)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_DRIVER", "sarama")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "plan-events")
	v.SetDefault("MINIO_ENABLED", false)
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_BUCKET", "plan-archive")
	v.SetDefault("MINIO_USE_SSL", false)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host:            v.GetString("HANGOUT_HOST"),
			Port:            v.GetString("HANGOUT_PORT"),
			ReadTimeout:     v.GetDuration("HANGOUT_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("HANGOUT_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("HANGOUT_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("HANGOUT_SHUTDOWN_TIMEOUT"),
			AllowedOrigins:  splitList(v.GetString("HANGOUT_ALLOWED_ORIGINS")),
			RateLimit:       v.GetInt("HANGOUT_RATE_LIMIT"),
			RateWindow:      v.GetDuration("HANGOUT_RATE_WINDOW"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			URI:          v.GetString("REDIS_URL"),
			MaxRetries:   v.GetInt("REDIS_MAX_RETRIES"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
		},
		Kafka: KafkaConfig{
			Enabled: v.GetBool("KAFKA_ENABLED"),
			Driver:  strings.ToLower(v.GetString("KAFKA_DRIVER")),
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		MinIO: MinIOConfig{
			Enabled:   v.GetBool("MINIO_ENABLED"),
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		JWT: JWTConfig{
			Secret:         v.GetString("HANGOUT_JWT_SECRET"),
			ExpirationTime: v.GetDuration("HANGOUT_JWT_EXPIRE"),
		},
		Sweep: SweepConfig{
			Interval: v.GetDuration("HANGOUT_SWEEP_INTERVAL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Kafka.Driver {
	case "sarama", "kafka-go":
	default:
		return fmt.Errorf("unsupported KAFKA_DRIVER %q", c.Kafka.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when kafka is enabled")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("HANGOUT_JWT_SECRET is required")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
