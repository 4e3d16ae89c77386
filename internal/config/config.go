package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPPort int `envconfig:"HTTP_PORT" default:"0"`

	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"storefront"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"storefront"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"storefront"`

	RedisHost    string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort    int    `envconfig:"REDIS_PORT" default:"6379"`
	CacheTTLSecs int    `envconfig:"CACHE_TTL_SECONDS" default:"300"`

	RabbitHost     string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	RabbitPort     int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	RabbitUser     string `envconfig:"RABBITMQ_USER" default:"guest"`
	RabbitPassword string `envconfig:"RABBITMQ_PASSWORD" default:"guest"`

	ConsulHost string `envconfig:"CONSUL_HOST" default:"localhost"`
	ConsulPort int    `envconfig:"CONSUL_PORT" default:"8500"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment, after loading a local
// .env file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
