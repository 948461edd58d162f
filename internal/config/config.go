package config

import (
	"os"
	"time"

	errorsUtils "github.com/Egor213/AuditTrack/pkg/errors"

	"github.com/ilyakaznacheev/cleanenv"
	log "github.com/sirupsen/logrus"

	"github.com/joho/godotenv"
)

type (
	Config struct {
		App        `yaml:"app"`
		Log        `yaml:"log"`
		PG         `yaml:"postgres"`
		HTTP       `yaml:"http"`
		GRPC       `yaml:"grpc"`
		Prometheus `yaml:"prometheus"`
		Kafka      `yaml:"kafka"`
		Redis      `yaml:"redis"`
		Renderer   `yaml:"renderer"`
		Viewer     `yaml:"viewer"`
		Auth       `yaml:"auth"`
	}

	App struct {
		Name    string `yaml:"name" env-required:"true"`
		Version string `yaml:"version" env-required:"true"`
	}

	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	}

	PG struct {
		MaxPoolSize int    `env-required:"true" env:"MAX_POOL_SIZE" yaml:"max_pool_size"`
		URL         string `env-required:"true" env:"PG_URL"`
	}

	HTTP struct {
		Port string `env-required:"true" yaml:"port" env:"HTTP_PORT"`
	}

	Prometheus struct {
		Port string `env-required:"true" yaml:"port" env:"PROMETHEUS_PORT"`
	}

	GRPC struct {
		Port string `env-required:"true" yaml:"port" env:"GRPC_PORT"`
	}

	// Kafka publishing is disabled when no brokers are configured.
	Kafka struct {
		Brokers      []string      `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
		Topic        string        `yaml:"topic" env:"KAFKA_TOPIC" env-default:"audit.actions"`
		WriteTimeout time.Duration `yaml:"write_timeout" env:"KAFKA_WRITE_TIMEOUT" env-default:"5s"`
	}

	Redis struct {
		Addr      string        `yaml:"addr" env:"REDIS_ADDR"`
		Password  string        `env:"REDIS_PASSWORD"`
		LookupTTL time.Duration `yaml:"lookup_ttl" env:"REDIS_LOOKUP_TTL" env-default:"5m"`
	}

	Renderer struct {
		Endpoint string        `yaml:"endpoint" env:"RENDERER_ENDPOINT"`
		Timeout  time.Duration `yaml:"timeout" env:"RENDERER_TIMEOUT" env-default:"30s"`
	}

	Viewer struct {
		PageSize     int           `yaml:"page_size" env:"VIEWER_PAGE_SIZE" env-default:"20"`
		FetchTimeout time.Duration `yaml:"fetch_timeout" env:"VIEWER_FETCH_TIMEOUT" env-default:"10s"`
		ActorJoin    bool          `yaml:"actor_join" env:"VIEWER_ACTOR_JOIN" env-default:"true"`
		SessionTTL   time.Duration `yaml:"session_ttl" env:"VIEWER_SESSION_TTL" env-default:"30m"`
		StatsBuckets int           `yaml:"stats_buckets" env:"VIEWER_STATS_BUCKETS" env-default:"30"`
		ExportLimit  int           `yaml:"export_limit" env:"VIEWER_EXPORT_LIMIT" env-default:"10"`
	}

	Auth struct {
		JWTSecret string `env:"JWT_SECRET"`
	}
)

const (
	EnvPath           = "infra/.env"
	DefaultConfigPath = "infra/config.yaml"
)

func New() (*Config, error) {
	if err := godotenv.Load(EnvPath); err != nil {
		log.WithField("path", EnvPath).Debug("No .env file loaded")
	}

	pathToConfig, ok := os.LookupEnv("APP_CONFIG_PATH")
	if !ok || pathToConfig == "" {
		log.WithField("env_var", "APP_CONFIG_PATH").
			Info("Config path is not set, using default")
		pathToConfig = DefaultConfigPath
	}

	return Load(pathToConfig)
}

func Load(path string) (*Config, error) {
	cfg := &Config{}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}

	if err := cleanenv.UpdateEnv(cfg); err != nil {
		return nil, errorsUtils.WrapPathErr(err)
	}

	return cfg, nil
}
