// Package config loads and validates application configuration from YAML
// files and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig             `yaml:"server"`
	Identity      IdentityConfig           `yaml:"identity"`
	Services      map[string]ServiceConfig `yaml:"services"`
	Catalogs      CatalogsConfig           `yaml:"catalogs"`
	Report        ReportConfig             `yaml:"report"`
	Sessions      SessionsConfig           `yaml:"sessions"`
	Contract      ContractConfig           `yaml:"contract"`
	Observability ObservabilityConfig      `yaml:"observability"`
}

// ServerConfig describes HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	HandlerTimeout  time.Duration `yaml:"handler_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORS            CORSConfig    `yaml:"cors"`
}

// CORSConfig describes Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// IdentityConfig describes JWT and identity provider settings.
type IdentityConfig struct {
	Issuer       string        `yaml:"issuer"`
	Audience     string        `yaml:"audience"`
	JWKSURL      string        `yaml:"jwks_url"`
	JWKSCacheTTL time.Duration `yaml:"jwks_cache_ttl"`
	Algorithms   []string      `yaml:"algorithms"`
}

// ServiceConfig describes a backend service.
type ServiceConfig struct {
	BaseURL        string               `yaml:"base_url"`
	Timeout        time.Duration        `yaml:"timeout"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig describes circuit breaker settings per service.
type CircuitBreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold"`
	Timeout          time.Duration `yaml:"timeout"`
}

// CatalogsConfig describes where the reference catalogs live on the backend.
type CatalogsConfig struct {
	ServiceID  string              `yaml:"service_id"`
	Countries  CatalogSourceConfig `yaml:"countries"`
	Vendors    CatalogSourceConfig `yaml:"vendors"`
	Categories CatalogSourceConfig `yaml:"categories"`
}

// CatalogSourceConfig maps a catalog to its listing endpoint and the fields
// that carry option values and labels.
type CatalogSourceConfig struct {
	Path       string `yaml:"path"`
	ValueField string `yaml:"value_field"`
	LabelField string `yaml:"label_field"`
}

// ReportConfig describes the remote aggregation endpoint.
type ReportConfig struct {
	ServiceID string `yaml:"service_id"`
	Path      string `yaml:"path"`
}

// SessionsConfig describes filter-session persistence.
type SessionsConfig struct {
	Store SessionStoreConfig `yaml:"store"`
	TTL   time.Duration      `yaml:"ttl"`
}

// SessionStoreConfig describes the session store driver.
type SessionStoreConfig struct {
	Driver          string        `yaml:"driver"`
	DSNEnv          string        `yaml:"dsn_env"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// ContractConfig describes the optional startup check of the administration
// API's OpenAPI document against the operations this BFF depends on.
type ContractConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SpecFile string `yaml:"spec_file"`
}

// ObservabilityConfig describes logging, tracing, and metrics settings.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	Tracing  TracingConfig `yaml:"tracing"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// TracingConfig describes distributed tracing settings.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// MetricsConfig describes Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultServiceID is the backend service hosting both the catalogs and the
// aggregation endpoint.
const DefaultServiceID = "administracion"

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			HandlerTimeout:  25 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORS: CORSConfig{
				AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
				AllowedHeaders: []string{"Authorization", "Content-Type", "X-Correlation-Id", "X-Viewport"},
				MaxAge:         86400,
			},
		},
		Identity: IdentityConfig{
			JWKSCacheTTL: 1 * time.Hour,
			Algorithms:   []string{"RS256"},
		},
		Services: map[string]ServiceConfig{
			DefaultServiceID: {
				Timeout: 10 * time.Second,
				CircuitBreaker: CircuitBreakerConfig{
					FailureThreshold: 5,
					SuccessThreshold: 2,
					Timeout:          30 * time.Second,
				},
			},
		},
		Catalogs: CatalogsConfig{
			ServiceID:  DefaultServiceID,
			Countries:  CatalogSourceConfig{Path: "/paises", ValueField: "id", LabelField: "nombre"},
			Vendors:    CatalogSourceConfig{Path: "/vendedores", ValueField: "id", LabelField: "nombre"},
			Categories: CatalogSourceConfig{Path: "/categorias-suministros", ValueField: "id", LabelField: "nombre"},
		},
		Report: ReportConfig{
			ServiceID: DefaultServiceID,
			Path:      "/reportes/",
		},
		Sessions: SessionsConfig{
			Store: SessionStoreConfig{
				Driver:          "memory",
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
			TTL: 12 * time.Hour,
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Tracing: TracingConfig{
				Exporter:     "otlp",
				SamplingRate: 0.1,
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// Load reads a YAML config file, applies environment variable overrides,
// and validates required fields.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Identity.Issuer == "" {
		errs = append(errs, "identity.issuer is required")
	}
	if c.Identity.JWKSURL == "" {
		errs = append(errs, "identity.jwks_url is required")
	}

	if svc, ok := c.Services[c.Report.ServiceID]; !ok || svc.BaseURL == "" {
		errs = append(errs, fmt.Sprintf("services.%s.base_url is required", c.Report.ServiceID))
	}
	if _, ok := c.Services[c.Catalogs.ServiceID]; !ok {
		errs = append(errs, fmt.Sprintf("services.%s is required by catalogs.service_id", c.Catalogs.ServiceID))
	}

	switch c.Sessions.Store.Driver {
	case "memory":
	case "postgres":
		if c.Sessions.Store.DSNEnv == "" {
			errs = append(errs, "sessions.store.dsn_env is required for the postgres driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported sessions.store.driver %q", c.Sessions.Store.Driver))
	}

	if c.Contract.Enabled && c.Contract.SpecFile == "" {
		errs = append(errs, "contract.spec_file is required when contract.enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// applyEnvOverrides reads VENTAS_* environment variables and overrides config
// values. Only the most commonly overridden fields are supported.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VENTAS_SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("VENTAS_IDENTITY_ISSUER"); v != "" {
		cfg.Identity.Issuer = v
	}
	if v := os.Getenv("VENTAS_IDENTITY_JWKS_URL"); v != "" {
		cfg.Identity.JWKSURL = v
	}
	if v := os.Getenv("VENTAS_IDENTITY_AUDIENCE"); v != "" {
		cfg.Identity.Audience = v
	}
	if v := os.Getenv("VENTAS_OBSERVABILITY_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("VENTAS_SESSIONS_STORE_DRIVER"); v != "" {
		cfg.Sessions.Store.Driver = v
	}
	if v := os.Getenv("VENTAS_BACKEND_BASE_URL"); v != "" {
		svc := cfg.Services[DefaultServiceID]
		svc.BaseURL = v
		cfg.Services[DefaultServiceID] = svc
	}
}
