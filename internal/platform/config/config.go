package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second
	defaultTokenTTL     = 12 * time.Hour
	defaultAdminUser    = "admin"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Firestore FirestoreConfig
	Auth      AuthConfig
	Events    EventsConfig
	Orders    OrdersConfig
	Bootstrap BootstrapConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// AuthConfig holds session-token parameters for back-office endpoints.
type AuthConfig struct {
	SigningSecret string
	TokenTTL      time.Duration
}

// EventsConfig names the Pub/Sub topic for order lifecycle events. An empty
// topic disables publishing.
type EventsConfig struct {
	ProjectID string
	Topic     string
}

// OrdersConfig holds order-engine policy switches.
type OrdersConfig struct {
	// RestockOnCancel returns line-item quantities to stock when an order
	// transitions to CANCELED. Off by default: the storefront this engine
	// replaces never restocked automatically.
	RestockOnCancel bool
}

// BootstrapConfig controls the idempotent startup initialization routine.
type BootstrapConfig struct {
	AdminUsername  string
	AdminPassword  string
	SeedSampleData bool
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path consulted during loading.
func WithEnvFile(path string) Option {
	return func(opts *loaderOptions) {
		opts.envFile = path
	}
}

// WithEnvMap supplies explicit values that take precedence over file and
// system environment. Intended for tests.
func WithEnvMap(values map[string]string) Option {
	return func(opts *loaderOptions) {
		opts.envMap = values
	}
}

// WithoutSystemEnv disables fallback to the process environment.
func WithoutSystemEnv() Option {
	return func(opts *loaderOptions) {
		opts.useSystemEnv = false
	}
}

// Load assembles the configuration from the .env file and process
// environment, applying defaults and validating required fields.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	fileValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return strings.TrimSpace(value), true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				return strings.TrimSpace(value), true
			}
		}
		if value, ok := fileValues[key]; ok {
			return strings.TrimSpace(value), true
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "FIRESTORE_EMULATOR_HOST", ""),
		},
		Auth: AuthConfig{
			SigningSecret: stringWithDefault(lookup, "AUTH_SIGNING_SECRET", ""),
			TokenTTL:      durationWithDefault(lookup, "AUTH_TOKEN_TTL", defaultTokenTTL),
		},
		Events: EventsConfig{
			ProjectID: stringWithDefault(lookup, "EVENTS_PROJECT_ID", ""),
			Topic:     stringWithDefault(lookup, "EVENTS_TOPIC", ""),
		},
		Orders: OrdersConfig{
			RestockOnCancel: boolWithDefault(lookup, "ORDER_RESTOCK_ON_CANCEL", false),
		},
		Bootstrap: BootstrapConfig{
			AdminUsername:  stringWithDefault(lookup, "BOOTSTRAP_ADMIN_USERNAME", defaultAdminUser),
			AdminPassword:  stringWithDefault(lookup, "BOOTSTRAP_ADMIN_PASSWORD", ""),
			SeedSampleData: boolWithDefault(lookup, "SEED_SAMPLE_DATA", false),
		},
	}

	if cfg.Events.ProjectID == "" {
		cfg.Events.ProjectID = cfg.Firestore.ProjectID
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string
	if strings.TrimSpace(cfg.Firestore.ProjectID) == "" {
		missing = append(missing, "FIRESTORE_PROJECT_ID")
	}
	if strings.TrimSpace(cfg.Auth.SigningSecret) == "" {
		missing = append(missing, "AUTH_SIGNING_SECRET")
	}
	if cfg.Auth.TokenTTL <= 0 {
		missing = append(missing, "AUTH_TOKEN_TTL")
	}
	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"'")
		if key == "" {
			continue
		}
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
