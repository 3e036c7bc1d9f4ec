package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Astemirdum/book-service/pkg/kafka"
	"github.com/Astemirdum/book-service/pkg/logger"
	"github.com/Astemirdum/book-service/pkg/metrics"
	"github.com/Astemirdum/book-service/pkg/pagination"
	"github.com/Astemirdum/book-service/pkg/postgres"
	"github.com/kelseyhightower/envconfig"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"BOOK_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"BOOK_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE"`
}

// CircuitBreaker guards the event publisher.
type CircuitBreaker struct {
	RecordLength     int           `envconfig:"CB_RECORD_LENGTH" default:"10"`
	Timeout          time.Duration `envconfig:"CB_TIMEOUT" default:"10s"`
	Percentile       float64       `envconfig:"CB_PERCENTILE" default:"0.5"`
	RecoveryRequests int           `envconfig:"CB_RECOVERY_REQUESTS" default:"3"`
}

type Config struct {
	Server         HTTPServer `yaml:"server"`
	Database       postgres.DB
	Kafka          kafka.Config
	CircuitBreaker CircuitBreaker
	Log            logger.Log `yaml:"log"`
	Pagination     pagination.Limits
	Metrics        metrics.Config
	// RateLimit is requests per second per client on the book API; 0 disables it.
	RateLimit float64 `envconfig:"RATE_LIMIT_RPS" default:"0"`
	AssetsDir string  `envconfig:"ASSETS_DIR"`
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment. Options set defaults that the
// environment overrides.
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		config, err := Load(ops...)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return cfg
}

// Load is NewConfig without process-wide caching.
func Load(ops ...Option) (Config, error) {
	var config Config
	for _, op := range ops {
		op(&config)
	}
	if err := envconfig.Process("", &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

func printConfig(cfg Config) {
	cfg.Database.Password = "***"
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
