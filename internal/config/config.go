// Package config provides Viper-based configuration loading for the arena server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/arena/internal/game/combat"
	"github.com/cory-johannsen/arena/internal/game/input"
)

// Roster sources.
const (
	RosterSourceYAML     = "yaml"
	RosterSourcePostgres = "postgres"
)

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

// TelnetConfig holds settings for the telnet operator console.
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

// HTTPConfig holds the browser-facing HTTP server settings.
type HTTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// ReleaseMode switches gin into release mode.
	ReleaseMode bool `mapstructure:"release_mode"`
	// AllowedOrigins lists extra websocket origins; "*" allows any.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Addr returns the "host:port" listen address.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// HealthConfig holds the gRPC health-check listener settings.
type HealthConfig struct {
	GRPCHost string `mapstructure:"grpc_host"`
	GRPCPort int    `mapstructure:"grpc_port"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (h HealthConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.GRPCHost, h.GRPCPort)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ArenaConfig holds the game settings.
type ArenaConfig struct {
	// RosterSource is "yaml" (RosterDir) or "postgres" (Database).
	RosterSource string `mapstructure:"roster_source"`
	RosterDir    string `mapstructure:"roster_dir"`
	// WatchRoster reloads the YAML roster when files change.
	WatchRoster      bool          `mapstructure:"watch_roster"`
	CriticalCooldown time.Duration `mapstructure:"critical_cooldown"`
	// SimultaneousKO is "draw" or "right".
	SimultaneousKO string `mapstructure:"simultaneous_ko"`
	// Strict surfaces actions on a match that is not in progress as errors.
	Strict bool `mapstructure:"strict"`
	// ScriptDir holds announcer Lua scripts; empty disables the announcer.
	ScriptDir              string         `mapstructure:"script_dir"`
	ScriptInstructionLimit int            `mapstructure:"script_instruction_limit"`
	CommentaryLimit        int            `mapstructure:"commentary_limit"`
	Controls               input.Controls `mapstructure:"controls"`
}

// KOPolicy returns the parsed SimultaneousKO policy.
//
// Precondition: Validate has passed.
func (a ArenaConfig) KOPolicy() combat.KOPolicy {
	p, _ := combat.ParseKOPolicy(a.SimultaneousKO)
	return p
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Telnet   TelnetConfig   `mapstructure:"telnet"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Health   HealthConfig   `mapstructure:"health"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Arena    ArenaConfig    `mapstructure:"arena"`
}

// Validate checks all configuration invariants. Database settings are only
// checked when the roster is read from Postgres.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Arena.RosterSource == RosterSourcePostgres {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateTelnet(c.Telnet); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateHTTP(c.HTTP); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateHealth(c.Health); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateArena(c.Arena); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateDatabase checks only the database section. Used by the migrate and
// import tools, which always need a database.
func (c Config) ValidateDatabase() error {
	return validateDatabase(c.Database)
}

func validPort(p int) bool { return p >= 1 && p <= 65535 }

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
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
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
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateHTTP(h HTTPConfig) error {
	if !validPort(h.Port) {
		return fmt.Errorf("http.port must be 1-65535, got %d", h.Port)
	}
	return nil
}

func validateHealth(h HealthConfig) error {
	var errs []string
	if h.GRPCHost == "" {
		errs = append(errs, "health.grpc_host must not be empty")
	}
	if !validPort(h.GRPCPort) {
		errs = append(errs, fmt.Sprintf("health.grpc_port must be 1-65535, got %d", h.GRPCPort))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
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

func validateArena(a ArenaConfig) error {
	var errs []string
	switch a.RosterSource {
	case RosterSourceYAML:
		if a.RosterDir == "" {
			errs = append(errs, "arena.roster_dir must not be empty for the yaml roster")
		}
	case RosterSourcePostgres:
		if a.WatchRoster {
			errs = append(errs, "arena.watch_roster requires the yaml roster")
		}
	default:
		errs = append(errs, fmt.Sprintf("arena.roster_source must be one of [yaml, postgres], got %q", a.RosterSource))
	}
	if a.CriticalCooldown <= 0 {
		errs = append(errs, fmt.Sprintf("arena.critical_cooldown must be > 0, got %s", a.CriticalCooldown))
	}
	if _, err := combat.ParseKOPolicy(a.SimultaneousKO); err != nil {
		errs = append(errs, fmt.Sprintf("arena.simultaneous_ko must be one of [draw, right], got %q", a.SimultaneousKO))
	}
	if a.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("arena.script_instruction_limit must be >= 0, got %d", a.ScriptInstructionLimit))
	}
	if a.CommentaryLimit < 0 {
		errs = append(errs, fmt.Sprintf("arena.commentary_limit must be >= 0, got %d", a.CommentaryLimit))
	}
	if err := a.Controls.Validate(); err != nil {
		errs = append(errs, "arena."+err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
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

	// Environment variable overrides with ARENA_ prefix
	v.SetEnvPrefix("ARENA")
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
	cfg.Arena.Controls = cfg.Arena.Controls.Normalized()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewViper returns a Viper instance holding only the defaults, for tools and
// tests that build configuration programmatically.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arena")
	v.SetDefault("database.password", "arena")
	v.SetDefault("database.name", "arena")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "5m")
	v.SetDefault("telnet.write_timeout", "30s")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.release_mode", true)

	v.SetDefault("health.grpc_host", "127.0.0.1")
	v.SetDefault("health.grpc_port", 50051)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	def := input.DefaultControls()
	v.SetDefault("arena.roster_source", RosterSourceYAML)
	v.SetDefault("arena.roster_dir", "content/fighters")
	v.SetDefault("arena.watch_roster", false)
	v.SetDefault("arena.critical_cooldown", combat.DefaultCriticalCooldown.String())
	v.SetDefault("arena.simultaneous_ko", "draw")
	v.SetDefault("arena.strict", false)
	v.SetDefault("arena.script_dir", "")
	v.SetDefault("arena.script_instruction_limit", 0)
	v.SetDefault("arena.commentary_limit", 5)
	v.SetDefault("arena.controls.left.attack", def.Left.Attack)
	v.SetDefault("arena.controls.left.block", def.Left.Block)
	v.SetDefault("arena.controls.left.critical", def.Left.Critical[:])
	v.SetDefault("arena.controls.right.attack", def.Right.Attack)
	v.SetDefault("arena.controls.right.block", def.Right.Block)
	v.SetDefault("arena.controls.right.critical", def.Right.Critical[:])
}
