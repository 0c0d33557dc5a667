package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL     string
	TemporalAddress string
	HTTPListenAddr  string
	MetricsAddr     string
	LogLevel        string
	ServiceName     string

	TemporalTLSCert       string
	TemporalTLSKey        string
	TemporalTLSCACert     string
	TemporalTLSServerName string

	// Hypervisor control API connection.
	HypervisorURL         string
	HypervisorTokenID     string
	HypervisorTokenSecret string

	// DemoMode selects degraded fallbacks when the hypervisor is
	// unreachable: mock resource listings and synthesized VMIDs. A
	// production deployment must leave this off so outages fail loudly.
	DemoMode bool
}

// HypervisorFile is the optional YAML overlay for hypervisor connection
// settings, pointed to by CONFIG_FILE. File values override environment
// values when non-empty.
type HypervisorFile struct {
	Hypervisor struct {
		URL         string `yaml:"url"`
		TokenID     string `yaml:"token_id"`
		TokenSecret string `yaml:"token_secret"`
	} `yaml:"hypervisor"`
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		TemporalAddress:       getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		HTTPListenAddr:        getEnv("HTTP_LISTEN_ADDR", ":8090"),
		MetricsAddr:           getEnv("METRICS_ADDR", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		ServiceName:           getEnv("SERVICE_NAME", ""),
		TemporalTLSCert:       getEnv("TEMPORAL_TLS_CERT", ""),
		TemporalTLSKey:        getEnv("TEMPORAL_TLS_KEY", ""),
		TemporalTLSCACert:     getEnv("TEMPORAL_TLS_CA_CERT", ""),
		TemporalTLSServerName: getEnv("TEMPORAL_TLS_SERVER_NAME", ""),
		HypervisorURL:         getEnv("HYPERVISOR_URL", ""),
		HypervisorTokenID:     getEnv("HYPERVISOR_TOKEN_ID", ""),
		HypervisorTokenSecret: getEnv("HYPERVISOR_TOKEN_SECRET", ""),
		DemoMode:              getEnvBool("DEMO_MODE", false),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var file HypervisorFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if file.Hypervisor.URL != "" {
		c.HypervisorURL = file.Hypervisor.URL
	}
	if file.Hypervisor.TokenID != "" {
		c.HypervisorTokenID = file.Hypervisor.TokenID
	}
	if file.Hypervisor.TokenSecret != "" {
		c.HypervisorTokenSecret = file.Hypervisor.TokenSecret
	}

	return nil
}

// Validate checks the fields required by the given service.
func (c *Config) Validate(service string) error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s: DATABASE_URL is required", service)
	}
	if c.TemporalAddress == "" {
		return fmt.Errorf("%s: TEMPORAL_ADDRESS is required", service)
	}
	if !c.DemoMode && c.HypervisorURL == "" {
		return fmt.Errorf("%s: HYPERVISOR_URL is required outside demo mode", service)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
