package config

import (
	"fmt"
	"time"

	"github.com/tradingstrategy-ai/reorgmon/internal/common"
	"github.com/tradingstrategy-ai/reorgmon/internal/logger"
)

// Config represents the complete configuration for the reorganisation monitor daemon.
type Config struct {
	// Monitor contains the reorganisation monitor configuration
	Monitor MonitorConfig `yaml:"monitor" json:"monitor" toml:"monitor"`

	// Archive contains the optional persistent block-header archive configuration
	Archive *ArchiveConfig `yaml:"archive,omitempty" json:"archive,omitempty" toml:"archive,omitempty"`

	// Logging contains logging configuration
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`

	// Metrics contains Prometheus metrics configuration
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty" toml:"metrics,omitempty"`
}

// ApplyDefaults sets default values for all optional configuration fields.
func (c *Config) ApplyDefaults() {
	c.Monitor.ApplyDefaults()

	if c.Archive != nil {
		c.Archive.ApplyDefaults()
	}

	if c.Logging != nil {
		c.Logging.ApplyDefaults()
	}

	if c.Metrics != nil {
		c.Metrics.ApplyDefaults()
	}
}

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	if err := c.Monitor.Validate(); err != nil {
		return err
	}

	if c.Archive != nil {
		if err := c.Archive.Validate(); err != nil {
			return err
		}
	}

	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return err
		}
	}

	if c.Metrics != nil {
		if err := c.Metrics.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// MonitorConfig represents the configuration for the reorganisation monitor.
type MonitorConfig struct {
	// RPCURL is the Ethereum JSON-RPC endpoint URL
	RPCURL string `yaml:"rpc_url" json:"rpc_url" toml:"rpc_url"`

	// CheckDepth is the number of trailing blocks re-verified on every
	// reconciliation pass
	CheckDepth uint64 `yaml:"check_depth" json:"check_depth" toml:"check_depth"`

	// MaxCycleTries bounds the number of truncate-and-rescan cycles per
	// reconciliation call
	MaxCycleTries int `yaml:"max_cycle_tries" json:"max_cycle_tries" toml:"max_cycle_tries"`

	// InitialBlockCount is how many trailing blocks to backfill on startup.
	// Defaults to CheckDepth.
	InitialBlockCount uint64 `yaml:"initial_block_count" json:"initial_block_count" toml:"initial_block_count"`

	// PollInterval is the delay between reconciliation passes in daemon mode
	PollInterval common.Duration `yaml:"poll_interval" json:"poll_interval" toml:"poll_interval"`

	// Retry contains RPC retry configuration with exponential backoff
	Retry *RetryConfig `yaml:"retry,omitempty" json:"retry,omitempty" toml:"retry,omitempty"`
}

// ApplyDefaults sets default values for optional monitor configuration fields.
func (m *MonitorConfig) ApplyDefaults() {
	if m.CheckDepth == 0 {
		m.CheckDepth = 200
	}
	if m.MaxCycleTries == 0 {
		m.MaxCycleTries = 10
	}
	if m.InitialBlockCount == 0 {
		m.InitialBlockCount = m.CheckDepth
	}
	if m.PollInterval.Duration == 0 {
		m.PollInterval = common.NewDuration(2 * time.Second) //nolint:mnd
	}

	if m.Retry != nil {
		m.Retry.ApplyDefaults()
	}
}

// Validate checks if the monitor configuration is valid.
func (m *MonitorConfig) Validate() error {
	if m.RPCURL == "" {
		return fmt.Errorf("monitor.rpc_url: cannot be empty")
	}
	if m.PollInterval.Duration < 0 {
		return fmt.Errorf("monitor.poll_interval: cannot be negative")
	}
	return nil
}

// RetryConfig represents RPC retry configuration with exponential backoff.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial request)
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" toml:"max_attempts"`

	// InitialBackoff is the initial backoff duration before first retry
	InitialBackoff common.Duration `yaml:"initial_backoff" json:"initial_backoff" toml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration
	MaxBackoff common.Duration `yaml:"max_backoff" json:"max_backoff" toml:"max_backoff"`

	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" toml:"backoff_multiplier"`
}

// ApplyDefaults sets default values for retry configuration.
func (r *RetryConfig) ApplyDefaults() {
	if r.MaxAttempts == 0 {
		r.MaxAttempts = 5
	}
	if r.InitialBackoff.Duration == 0 {
		r.InitialBackoff = common.NewDuration(1 * time.Second)
	}
	if r.MaxBackoff.Duration == 0 {
		r.MaxBackoff = common.NewDuration(30 * time.Second) //nolint:mnd
	}
	if r.BackoffMultiplier == 0 {
		r.BackoffMultiplier = 2.0
	}
}

// ArchiveConfig configures the persistent block-header archive.
type ArchiveConfig struct {
	// Enabled controls whether reconciled headers are mirrored to SQLite
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// DB contains database configuration for the archive
	DB DatabaseConfig `yaml:"db" json:"db" toml:"db"`

	// RetentionBlocks is how many trailing blocks to keep; headers deeper
	// below the head are pruned. 0 keeps everything.
	RetentionBlocks uint64 `yaml:"retention_blocks" json:"retention_blocks" toml:"retention_blocks"`
}

// ApplyDefaults sets default values for optional archive configuration fields.
func (a *ArchiveConfig) ApplyDefaults() {
	a.DB.ApplyDefaults()
}

// Validate checks if the archive configuration is valid.
func (a *ArchiveConfig) Validate() error {
	if !a.Enabled {
		return nil
	}
	if a.DB.Path == "" {
		return fmt.Errorf("archive.db.path: cannot be empty when the archive is enabled")
	}
	return a.DB.Validate()
}

// DatabaseConfig represents SQLite database configuration.
type DatabaseConfig struct {
	// Path is the file path to the SQLite database
	Path string `yaml:"path" json:"path" toml:"path"`

	// JournalMode sets the SQLite journal mode (e.g., "WAL", "DELETE")
	// WAL mode is recommended for better concurrency
	JournalMode string `yaml:"journal_mode" json:"journal_mode" toml:"journal_mode"`

	// Synchronous sets the synchronization level ("FULL", "NORMAL", "OFF")
	// NORMAL provides a good balance between safety and performance
	Synchronous string `yaml:"synchronous" json:"synchronous" toml:"synchronous"`

	// BusyTimeout is the SQLite busy timeout in milliseconds
	BusyTimeout int `yaml:"busy_timeout" json:"busy_timeout" toml:"busy_timeout"`

	// CacheSize is the SQLite page cache size in pages
	CacheSize int `yaml:"cache_size" json:"cache_size" toml:"cache_size"`

	// MaxOpenConnections limits the connection pool size
	MaxOpenConnections int `yaml:"max_open_connections" json:"max_open_connections" toml:"max_open_connections"`

	// MaxIdleConnections limits idle connections in the pool
	MaxIdleConnections int `yaml:"max_idle_connections" json:"max_idle_connections" toml:"max_idle_connections"`

	// EnableForeignKeys turns on SQLite foreign key enforcement
	EnableForeignKeys bool `yaml:"enable_foreign_keys" json:"enable_foreign_keys" toml:"enable_foreign_keys"`
}

// ApplyDefaults sets default values for database configuration.
func (d *DatabaseConfig) ApplyDefaults() {
	if d.JournalMode == "" {
		d.JournalMode = "WAL"
	}
	if d.Synchronous == "" {
		d.Synchronous = "NORMAL"
	}
	if d.BusyTimeout == 0 {
		d.BusyTimeout = 30000
	}
	if d.CacheSize == 0 {
		d.CacheSize = 10000
	}
	if d.MaxOpenConnections == 0 {
		d.MaxOpenConnections = 10
	}
	if d.MaxIdleConnections == 0 {
		d.MaxIdleConnections = 5
	}
}

// Validate checks if the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	validJournalModes := map[string]struct{}{
		"DELETE": {}, "TRUNCATE": {}, "PERSIST": {}, "MEMORY": {}, "WAL": {}, "OFF": {},
	}
	if _, ok := validJournalModes[d.JournalMode]; !ok {
		return fmt.Errorf("db.journal_mode: must be one of: DELETE, TRUNCATE, PERSIST, MEMORY, WAL, OFF")
	}

	validSynchronous := map[string]struct{}{
		"OFF": {}, "NORMAL": {}, "FULL": {}, "EXTRA": {},
	}
	if _, ok := validSynchronous[d.Synchronous]; !ok {
		return fmt.Errorf("db.synchronous: must be one of: OFF, NORMAL, FULL, EXTRA")
	}

	return nil
}

// LoggingConfig configures logging behavior with per-component log levels.
type LoggingConfig struct {
	// DefaultLevel is the default log level for all components
	// Options: "debug", "info", "warn", "error"
	DefaultLevel string `yaml:"default_level" json:"default_level" toml:"default_level"`

	// Development enables development mode (stack traces, console encoder)
	Development bool `yaml:"development" json:"development" toml:"development"`

	// ComponentLevels sets log levels for specific components
	// Available components:
	//   - reorg-monitor: Ledger reconciliation engine
	//   - block-source: Live chain data source
	//   - block-archive: Persistent header archive
	//   - runner: Daemon poll loop
	ComponentLevels map[string]string `yaml:"component_levels,omitempty" json:"component_levels,omitempty" toml:"component_levels,omitempty"` //nolint:lll
}

// ApplyDefaults sets default values for optional logging configuration fields.
func (l *LoggingConfig) ApplyDefaults() {
	if l.DefaultLevel == "" {
		l.DefaultLevel = "info"
	}
	// Development defaults to false (zero value)
	if l.ComponentLevels == nil {
		l.ComponentLevels = make(map[string]string)
	}
}

// Validate checks if the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	// Validate default level
	if l.DefaultLevel != "" {
		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(l.DefaultLevel)]; !valid {
			return fmt.Errorf("logging.default_level: must be one of: debug, info, warn, error")
		}
	}

	for component, level := range l.ComponentLevels {
		// Check if component is valid
		if _, validComponent := common.AllComponents[common.ToLowerWithTrim(component)]; !validComponent {
			return fmt.Errorf("logging.component_levels: unknown component '%s'", component)
		}

		// Check if level is valid
		if _, valid := logger.ValidLogLevels[common.ToLowerWithTrim(level)]; !valid {
			return fmt.Errorf("logging.component_levels[%s]: must be one of: debug, info, warn, error", component)
		}
	}

	return nil
}

// GetComponentLevel returns the log level for a specific component.
// Falls back to DefaultLevel if no component-specific level is set.
// A nil receiver yields "info" so a config without a logging section works.
func (l *LoggingConfig) GetComponentLevel(component string) string {
	if l == nil {
		return "info"
	}
	if level, ok := l.ComponentLevels[component]; ok {
		return common.ToLowerWithTrim(level)
	}
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// GetDefaultLevel returns the default log level.
func (l *LoggingConfig) GetDefaultLevel() string {
	return common.ToLowerWithTrim(l.DefaultLevel)
}

// IsDevelopment returns whether development mode is enabled.
func (l *LoggingConfig) IsDevelopment() bool {
	return l != nil && l.Development
}

// MetricsConfig configures Prometheus metrics exposition.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP endpoint are active
	Enabled bool `yaml:"enabled" json:"enabled" toml:"enabled"`

	// ListenAddress is the address to bind the metrics HTTP server to
	// Format: "host:port" or ":port"
	ListenAddress string `yaml:"listen_address" json:"listen_address" toml:"listen_address"`

	// Path is the HTTP path where metrics are exposed
	Path string `yaml:"path" json:"path" toml:"path"`
}

// ApplyDefaults sets default values for metrics configuration.
func (m *MetricsConfig) ApplyDefaults() {
	if m.ListenAddress == "" {
		m.ListenAddress = ":9090"
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// Validate checks if the metrics configuration is valid.
func (m *MetricsConfig) Validate() error {
	if m.Enabled && m.ListenAddress == "" {
		return fmt.Errorf("metrics.listen_address: cannot be empty when metrics are enabled")
	}
	return nil
}
