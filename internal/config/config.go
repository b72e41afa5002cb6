package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service settings, populated from environment variables
// and, when CONFIG_FILE is set, a config file whose keys use the same names.
type Config struct {
	DataDir         string
	KeyDatesFile    string
	ReportCacheSize int
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Export of aggregated tables to Kafka.
	KafkaBrokers  []string
	KafkaTopic    string
	ExportEnabled bool
}

const defaultBroker = "localhost:9092"

// Load reads configuration, applying defaults where unset.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("REPORT_CACHE_SIZE", "256")
	v.SetDefault("KAFKA_TOPIC", "epi-aggregates")

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read CONFIG_FILE %s: %w", path, err)
		}
	}

	shutdownTimeout, err := time.ParseDuration(v.GetString("SHUTDOWN_TIMEOUT"))
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	cacheSize, err := strconv.Atoi(v.GetString("REPORT_CACHE_SIZE"))
	if err != nil || cacheSize < 0 {
		return nil, fmt.Errorf("invalid REPORT_CACHE_SIZE %q", v.GetString("REPORT_CACHE_SIZE"))
	}

	brokersRaw := v.GetString("KAFKA_BROKERS")
	exportEnabled := brokersRaw != ""
	if s := v.GetString("EXPORT_ENABLED"); s != "" {
		exportEnabled, err = strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid EXPORT_ENABLED %q", s)
		}
	}
	if brokersRaw == "" {
		brokersRaw = defaultBroker
	}

	cfg := &Config{
		DataDir:         v.GetString("DATA_DIR"),
		KeyDatesFile:    v.GetString("KEY_DATES_FILE"),
		ReportCacheSize: cacheSize,
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		ShutdownTimeout: shutdownTimeout,
		KafkaBrokers:    parseBrokers(brokersRaw),
		KafkaTopic:      v.GetString("KAFKA_TOPIC"),
		ExportEnabled:   exportEnabled,
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.ExportEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("EXPORT_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.ExportEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when export is enabled")
	}

	return cfg, nil
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
