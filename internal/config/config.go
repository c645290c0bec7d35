// Package config loads server configuration from a YAML file, a .env file
// and SOCIAL_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Mirror  MirrorConfig  `yaml:"mirror"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	HTTPAddr  string `yaml:"http_addr"`
	RPCSocket string `yaml:"rpc_socket"`
}

type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

type MirrorConfig struct {
	// Ledger selects the ledger client: "local", "rpc", or "none" to
	// disable mirroring.
	Ledger         string        `yaml:"ledger"`
	RPCURL         string        `yaml:"rpc_url"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	AckWait        time.Duration `yaml:"ack_wait"`
	RatePerSecond  float64       `yaml:"rate_per_second"`
	Burst          int           `yaml:"burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			HTTPAddr:  ":8080",
			RPCSocket: "/tmp/alphasocial.sock",
		},
		Storage: StorageConfig{DBPath: "alphasocial.db"},
		Mirror: MirrorConfig{
			Ledger:         "local",
			RPCURL:         "http://127.0.0.1:9933",
			MaxAttempts:    3,
			RetryDelay:     200 * time.Millisecond,
			AttemptTimeout: 5 * time.Second,
			AckWait:        250 * time.Millisecond,
			RatePerSecond:  50,
			Burst:          10,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load builds the effective configuration. An empty path skips the YAML
// file; a missing .env file is ignored.
func Load(path string) (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Default()
	if path == "" {
		path = os.Getenv("SOCIAL_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("SOCIAL_HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := os.Getenv("SOCIAL_RPC_SOCKET"); v != "" {
		cfg.Server.RPCSocket = v
	}
	if v := os.Getenv("SOCIAL_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("SOCIAL_LEDGER"); v != "" {
		cfg.Mirror.Ledger = v
	}
	if v := os.Getenv("SOCIAL_LEDGER_RPC_URL"); v != "" {
		cfg.Mirror.RPCURL = v
	}
	if v := os.Getenv("SOCIAL_MIRROR_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SOCIAL_MIRROR_MAX_ATTEMPTS: %w", err)
		}
		cfg.Mirror.MaxAttempts = n
	}
	for name, dst := range map[string]*time.Duration{
		"SOCIAL_MIRROR_RETRY_DELAY":     &cfg.Mirror.RetryDelay,
		"SOCIAL_MIRROR_ATTEMPT_TIMEOUT": &cfg.Mirror.AttemptTimeout,
		"SOCIAL_MIRROR_ACK_WAIT":        &cfg.Mirror.AckWait,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = d
	}
	if v := os.Getenv("SOCIAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SOCIAL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.HTTPAddr) == "" {
		errs = append(errs, errors.New("server.http_addr is required"))
	}
	if strings.TrimSpace(c.Storage.DBPath) == "" {
		errs = append(errs, errors.New("storage.db_path is required"))
	}
	switch c.Mirror.Ledger {
	case "local", "none":
	case "rpc":
		if strings.TrimSpace(c.Mirror.RPCURL) == "" {
			errs = append(errs, errors.New("mirror.rpc_url is required for the rpc ledger"))
		}
	default:
		errs = append(errs, fmt.Errorf("mirror.ledger must be local, rpc or none, got %q", c.Mirror.Ledger))
	}
	if c.Mirror.MaxAttempts < 1 {
		errs = append(errs, errors.New("mirror.max_attempts must be at least 1"))
	}
	if c.Mirror.AckWait < 0 {
		errs = append(errs, errors.New("mirror.ack_wait must not be negative"))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}
