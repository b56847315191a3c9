// Package config provides Viper-based configuration loading for the battle server.
package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Mode selects which front ends run: "standalone" (telnet and HTTP),
	// "telnet", or "api".
	Mode string `mapstructure:"mode"`
}

// RunsTelnet reports whether the telnet front end is enabled for Mode.
func (s ServerConfig) RunsTelnet() bool { return s.Mode == "standalone" || s.Mode == "telnet" }

// RunsAPI reports whether the HTTP API is enabled for Mode.
func (s ServerConfig) RunsAPI() bool { return s.Mode == "standalone" || s.Mode == "api" }

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// TelnetConfig holds Telnet acceptor settings.
type TelnetConfig struct {
	// Host is the bind address for the Telnet listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the Telnet listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for Telnet connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for Telnet connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// HTTPConfig holds the JSON API listener settings.
type HTTPConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// GRPCConfig holds the gRPC health service listener settings.
type GRPCConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the "host:port" listen address.
func (g GRPCConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// BattleConfig holds team-building limits and presentation settings.
type BattleConfig struct {
	// Pacing is the delay the telnet renderer inserts between the player's
	// and the opponent's half of an exchange.
	Pacing time.Duration `mapstructure:"pacing"`
	// DefaultLevel is the level new team members start at.
	DefaultLevel int `mapstructure:"default_level"`
	// MaxRoster is the largest team a side may field.
	MaxRoster int `mapstructure:"max_roster"`
	// MaxMoves is the largest move set a team member may carry.
	MaxMoves int `mapstructure:"max_moves"`
	// SuggestionLimit caps species search suggestions.
	SuggestionLimit int `mapstructure:"suggestion_limit"`
}

// CatalogConfig selects where species data is read from.
type CatalogConfig struct {
	// Source is "yaml" or "postgres".
	Source string `mapstructure:"source"`
	// Dir is the species content directory used when Source is "yaml"
	// and by the catalog importer.
	Dir string `mapstructure:"dir"`
}

// AIConfig holds the opponent move-selection scripts.
type AIConfig struct {
	// Scripts maps a difficulty name to a Lua script path. Difficulties
	// without a script choose moves uniformly at random.
	Scripts map[string]string `mapstructure:"scripts"`
	// InstructionLimit bounds the VM instructions a single hook call may execute.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// TelemetryConfig holds OpenTelemetry trace export settings.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	// Endpoint is the OTLP/HTTP collector host:port. Empty uses the exporter default.
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telnet    TelnetConfig    `mapstructure:"telnet"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Battle    BattleConfig    `mapstructure:"battle"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	AI        AIConfig        `mapstructure:"ai"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, err := range []error{
		validateServer(c.Server),
		validateDatabase(c.Database),
		validateTelnet(c.Telnet),
		validateHTTP(c.HTTP),
		validateGRPC(c.GRPC),
		validateLogging(c.Logging),
		validateBattle(c.Battle),
		validateCatalog(c.Catalog),
		validateAI(c.AI),
		validateTelemetry(c.Telemetry),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validPort(p int) bool { return p >= 1 && p <= 65535 }

func validateServer(s ServerConfig) error {
	validModes := map[string]bool{"standalone": true, "telnet": true, "api": true}
	if !validModes[s.Mode] {
		return fmt.Errorf("server.mode must be one of [standalone, telnet, api], got %q", s.Mode)
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if !validPort(d.Port) {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	return joined(errs)
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if !validPort(t.Port) {
		errs = append(errs, fmt.Sprintf("telnet.port must be 1-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	return joined(errs)
}

func validateHTTP(h HTTPConfig) error {
	var errs []string
	if !validPort(h.Port) {
		errs = append(errs, fmt.Sprintf("http.port must be 1-65535, got %d", h.Port))
	}
	if h.ReadTimeout < 0 {
		errs = append(errs, "http.read_timeout must not be negative")
	}
	if h.WriteTimeout < 0 {
		errs = append(errs, "http.write_timeout must not be negative")
	}
	return joined(errs)
}

func validateGRPC(g GRPCConfig) error {
	var errs []string
	if g.Host == "" {
		errs = append(errs, "grpc.host must not be empty")
	}
	if !validPort(g.Port) {
		errs = append(errs, fmt.Sprintf("grpc.port must be 1-65535, got %d", g.Port))
	}
	return joined(errs)
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if b.Pacing < 0 {
		errs = append(errs, "battle.pacing must not be negative")
	}
	if b.DefaultLevel < 1 || b.DefaultLevel > 100 {
		errs = append(errs, fmt.Sprintf("battle.default_level must be 1-100, got %d", b.DefaultLevel))
	}
	if b.MaxRoster < 1 || b.MaxRoster > 3 {
		errs = append(errs, fmt.Sprintf("battle.max_roster must be 1-3, got %d", b.MaxRoster))
	}
	if b.MaxMoves < 1 || b.MaxMoves > 4 {
		errs = append(errs, fmt.Sprintf("battle.max_moves must be 1-4, got %d", b.MaxMoves))
	}
	if b.SuggestionLimit < 1 {
		errs = append(errs, fmt.Sprintf("battle.suggestion_limit must be >= 1, got %d", b.SuggestionLimit))
	}
	return joined(errs)
}

func validateCatalog(c CatalogConfig) error {
	switch c.Source {
	case "yaml":
		if c.Dir == "" {
			return fmt.Errorf("catalog.dir must not be empty when catalog.source is yaml")
		}
	case "postgres":
	default:
		return fmt.Errorf("catalog.source must be one of [yaml, postgres], got %q", c.Source)
	}
	return nil
}

func validateAI(a AIConfig) error {
	var errs []string
	validDifficulties := map[string]bool{"easy": true, "medium": true, "hard": true}
	keys := make([]string, 0, len(a.Scripts))
	for k := range a.Scripts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !validDifficulties[k] {
			errs = append(errs, fmt.Sprintf("ai.scripts key must be one of [easy, medium, hard], got %q", k))
		}
	}
	if a.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("ai.instruction_limit must be >= 0, got %d", a.InstructionLimit))
	}
	return joined(errs)
}

func validateTelemetry(t TelemetryConfig) error {
	if t.Enabled && t.ServiceName == "" {
		return fmt.Errorf("telemetry.service_name must not be empty when telemetry is enabled")
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with BATTLESIM_ prefix
	v.SetEnvPrefix("BATTLESIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance carrying only the default values.
//
// Postcondition: LoadFromViper(Defaults()) succeeds.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "standalone")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "battlesim")
	v.SetDefault("database.password", "battlesim")
	v.SetDefault("database.name", "battlesim")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "10m")
	v.SetDefault("telnet.write_timeout", "30s")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "15s")

	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("battle.pacing", "1s")
	v.SetDefault("battle.default_level", 50)
	v.SetDefault("battle.max_roster", 3)
	v.SetDefault("battle.max_moves", 4)
	v.SetDefault("battle.suggestion_limit", 5)

	v.SetDefault("catalog.source", "yaml")
	v.SetDefault("catalog.dir", "content/species")

	v.SetDefault("ai.scripts", map[string]string{})
	v.SetDefault("ai.instruction_limit", 100000)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "battlesim")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", true)
}
