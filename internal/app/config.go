package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/carwash/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/carwash/internal/portal"
)

// StorageDriver — хранилище заказов сервиса.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config описывает настройки сервиса заказов.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool

	KafkaBrokers  []string
	KafkaTopic    string
	KafkaDLQTopic string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int

	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает настройки для локального запуска.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		KafkaTopic:          kafka.TopicOrderEvents,
		KafkaDLQTopic:       kafka.TopicDeadLetterQueue,
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		ShutdownTimeout:     5 * time.Second,
	}
}

// PortalConfig описывает настройки клиентского портала.
type PortalConfig struct {
	Addr          string
	Mode          portal.Mode
	DataDir       string
	StorageKey    string
	APIBaseURL    string
	APITimeout    time.Duration
	AllowComplete bool
	AllowCancel   bool

	ShutdownTimeout time.Duration
}

// DefaultPortalConfig возвращает настройки портала по умолчанию.
func DefaultPortalConfig() PortalConfig {
	return PortalConfig{
		Addr:            ":3000",
		Mode:            portal.ModeRemote,
		DataDir:         "./data",
		APIBaseURL:      "http://localhost:8080/api",
		APITimeout:      5 * time.Second,
		AllowComplete:   true,
		AllowCancel:     true,
		ShutdownTimeout: 5 * time.Second,
	}
}

// envReader читает CARWASH_* переменные. Некорректное значение оставляет
// значение по умолчанию и попадает в warnings.
type envReader struct {
	getenv   func(string) string
	warnings []string
}

func (r *envReader) string(key string, dst *string) {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		*dst = v
	}
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		r.warnings = append(r.warnings, fmt.Sprintf("%s: invalid duration %q", key, v))
		return
	}
	*dst = d
}

func (r *envReader) int(key string, dst *int) {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		r.warnings = append(r.warnings, fmt.Sprintf("%s: invalid positive integer %q", key, v))
		return
	}
	*dst = n
}

func (r *envReader) bool(key string, dst *bool) {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.warnings = append(r.warnings, fmt.Sprintf("%s: invalid bool %q", key, v))
		return
	}
	*dst = b
}


// ConfigFromEnv накладывает переменные окружения на DefaultConfig.
func ConfigFromEnv(getenv func(string) string) (Config, []string) {
	cfg := DefaultConfig()
	r := &envReader{getenv: getenv}

	r.string("CARWASH_HTTP_ADDR", &cfg.HTTPAddr)
	r.string("CARWASH_GRPC_ADDR", &cfg.GRPCAddr)
	r.string("CARWASH_METRICS_ADDR", &cfg.MetricsAddr)

	driver := string(cfg.StorageDriver)
	r.string("CARWASH_STORAGE_DRIVER", &driver)
	switch d := StorageDriver(strings.ToLower(driver)); d {
	case StorageDriverMemory, StorageDriverPostgres:
		cfg.StorageDriver = d
	default:
		r.warnings = append(r.warnings, fmt.Sprintf("CARWASH_STORAGE_DRIVER: unsupported driver %q", driver))
	}
	r.string("CARWASH_POSTGRES_DSN", &cfg.PostgresDSN)
	r.bool("CARWASH_POSTGRES_AUTO_MIGRATE", &cfg.PostgresAutoMigrate)

	var brokers string
	r.string("CARWASH_KAFKA_BROKERS", &brokers)
	cfg.KafkaBrokers = splitList(brokers)
	r.string("CARWASH_KAFKA_TOPIC", &cfg.KafkaTopic)
	r.string("CARWASH_KAFKA_DLQ_TOPIC", &cfg.KafkaDLQTopic)

	r.duration("CARWASH_OUTBOX_POLL_INTERVAL", &cfg.OutboxPollInterval)
	r.int("CARWASH_OUTBOX_BATCH_SIZE", &cfg.OutboxBatchSize)
	r.int("CARWASH_OUTBOX_MAX_ATTEMPTS", &cfg.OutboxMaxAttempts)
	r.duration("CARWASH_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)

	return cfg, r.warnings
}

// PortalConfigFromEnv накладывает переменные окружения на DefaultPortalConfig.
func PortalConfigFromEnv(getenv func(string) string) (PortalConfig, []string) {
	cfg := DefaultPortalConfig()
	r := &envReader{getenv: getenv}

	r.string("CARWASH_PORTAL_ADDR", &cfg.Addr)

	mode := string(cfg.Mode)
	r.string("CARWASH_PORTAL_MODE", &mode)
	parsed, ok := portal.ParseMode(strings.ToLower(mode))
	if !ok {
		r.warnings = append(r.warnings, fmt.Sprintf("CARWASH_PORTAL_MODE: unsupported mode %q", mode))
	} else {
		cfg.Mode = parsed
	}

	r.string("CARWASH_PORTAL_DATA_DIR", &cfg.DataDir)
	r.string("CARWASH_PORTAL_STORAGE_KEY", &cfg.StorageKey)
	r.string("CARWASH_API_BASE_URL", &cfg.APIBaseURL)
	r.duration("CARWASH_API_TIMEOUT", &cfg.APITimeout)
	r.bool("CARWASH_PORTAL_ALLOW_COMPLETE", &cfg.AllowComplete)
	r.bool("CARWASH_PORTAL_ALLOW_CANCEL", &cfg.AllowCancel)
	r.duration("CARWASH_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)

	return cfg, r.warnings
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
