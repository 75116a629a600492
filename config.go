package radicchio

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tibrahul/Radicchio/codec"
)

// Config is the configuration for the Manager.
//
// All duration fields accept standard Go duration strings like "500ms", "5s", "1m".
type Config struct {
	// SweepInterval is the period of the reconciliation sweeper.
	//
	// Every pass lists both registries and re-derives what is live, independent
	// of store notifications. Shorter intervals surface store failures sooner at
	// the cost of more store round trips.
	// Default: 1 second
	SweepInterval time.Duration `yaml:"sweepInterval"`

	// StartupTimeout bounds Start: minting the first generation and opening the
	// notification subscription.
	// Default: 5 seconds
	StartupTimeout time.Duration `yaml:"startupTimeout"`

	// ShutdownTimeout bounds Stop when the caller's context carries no deadline.
	// Default: 5 seconds
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// MaxConcurrentQueries caps the per-id fan-out of GetAllTimesLeft and
	// GetDataFromAllTimers. 0 means unbounded: every member is queried at once.
	MaxConcurrentQueries int `yaml:"maxConcurrentQueries"`

	// OperationTimeout is applied to each public timer operation when the caller's
	// context has no deadline. 0 disables it; the store connection then owns
	// timeouts.
	OperationTimeout time.Duration `yaml:"operationTimeout"`

	// Codec names the payload serialization: "json" or "cbor".
	// WithCodec overrides it. Every manager sharing a store must use the same codec.
	// Default: "json"
	Codec string `yaml:"codec"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		SweepInterval:        1 * time.Second,
		StartupTimeout:       5 * time.Second,
		ShutdownTimeout:      5 * time.Second,
		MaxConcurrentQueries: 0,
		OperationTimeout:     0,
		Codec:                "json",
	}
}

// SetDefaults fills in missing configuration values with production defaults.
//
// MaxConcurrentQueries and OperationTimeout keep their zero value, which is
// meaningful for both.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = defaults.StartupTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if cfg.Codec == "" {
		cfg.Codec = defaults.Codec
	}
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Hard Validation Rules:
//   - SweepInterval > 0
//   - StartupTimeout, ShutdownTimeout, OperationTimeout >= 0
//   - MaxConcurrentQueries >= 0
//   - Codec is "json" or "cbor"
//
// Returns:
//   - error: Error wrapping ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("%w: SweepInterval must be > 0, got %v", ErrInvalidConfig, cfg.SweepInterval)
	}

	if cfg.StartupTimeout < 0 {
		return fmt.Errorf("%w: StartupTimeout must be >= 0, got %v", ErrInvalidConfig, cfg.StartupTimeout)
	}

	if cfg.ShutdownTimeout < 0 {
		return fmt.Errorf("%w: ShutdownTimeout must be >= 0, got %v", ErrInvalidConfig, cfg.ShutdownTimeout)
	}

	if cfg.OperationTimeout < 0 {
		return fmt.Errorf("%w: OperationTimeout must be >= 0, got %v", ErrInvalidConfig, cfg.OperationTimeout)
	}

	if cfg.MaxConcurrentQueries < 0 {
		return fmt.Errorf("%w: MaxConcurrentQueries must be >= 0, got %d", ErrInvalidConfig, cfg.MaxConcurrentQueries)
	}

	if _, err := codec.ByName(cfg.Codec); err != nil {
		return err
	}

	return nil
}

// ValidateWithWarnings logs warnings for legal but unusual values.
//
// This is called after Validate() in NewManager() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.SweepInterval < 100*time.Millisecond {
		logger.Warn(
			"SweepInterval is very short, every pass lists both registries",
			"sweepInterval", cfg.SweepInterval,
			"recommended", "1s",
		)
	}

	if cfg.OperationTimeout > 0 && cfg.OperationTimeout < 10*time.Millisecond {
		logger.Warn(
			"OperationTimeout is shorter than a typical store round trip",
			"operationTimeout", cfg.OperationTimeout,
		)
	}
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Returns:
//   - Config: Configuration with fast timings for tests
//
// Example:
//
//	cfg := radicchio.TestConfig()
//	mgr, err := radicchio.NewManager(&cfg, store.NewMemory())
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.SweepInterval = 50 * time.Millisecond
	cfg.StartupTimeout = 2 * time.Second
	cfg.ShutdownTimeout = 2 * time.Second

	return cfg
}

// ParseConfig decodes a YAML document into a Config.
//
// Missing fields are filled with defaults and the result is validated.
//
// Parameters:
//   - data: YAML document
//
// Returns:
//   - Config: Parsed configuration
//   - error: Decode or validation error
//
// Example:
//
//	cfg, err := radicchio.ParseConfig([]byte("sweepInterval: 2s\nmaxConcurrentQueries: 64\n"))
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadConfigFile reads and parses a YAML configuration file.
//
// Parameters:
//   - path: File path
//
// Returns:
//   - Config: Parsed configuration
//   - error: Read, decode or validation error
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}
