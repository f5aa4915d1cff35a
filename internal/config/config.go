package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/the-sms-must-flow/internal/common"
)

// Config keys.
const (
	KeyRulesPath       = "rules.path"
	KeyDatabasePath    = "database.path"
	KeyWorkers         = "classify.workers"
	KeyHeuristics      = "classify.heuristics"
	KeyTimezone        = "classify.timezone"
	KeyBlacklistTerms  = "blacklist.terms"
	KeyBanks           = "banks"
	KeyExportCurrency  = "export.currency"
	KeyLoggingLevel    = "logging.level"
	KeyLoggingFormat   = "logging.format"
	defaultCurrency    = "INR"
	defaultLogLevel    = "info"
	defaultLogFormat   = "console"
	defaultTimezoneKey = "Local"
)

// Config is the validated application configuration.
type Config struct {
	Location       *time.Location
	Banks          map[string]string
	RulesPath      string
	DatabasePath   string
	Currency       string
	LogLevel       string
	LogFormat      string
	BlacklistTerms []string
	Workers        int
	Heuristics     bool
}

// DefaultDatabasePath returns the inbox location used when none is configured.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "smspice.db")
	}
	return filepath.Join(home, ".local", "share", "smspice", "smspice.db")
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath())
	v.SetDefault(KeyWorkers, runtime.NumCPU())
	v.SetDefault(KeyHeuristics, true)
	v.SetDefault(KeyTimezone, defaultTimezoneKey)
	v.SetDefault(KeyExportCurrency, defaultCurrency)
	v.SetDefault(KeyLoggingLevel, defaultLogLevel)
	v.SetDefault(KeyLoggingFormat, defaultLogFormat)
}

// Load builds a Config from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds and validates a Config from v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		RulesPath:    ExpandPath(strings.TrimSpace(v.GetString(KeyRulesPath))),
		DatabasePath: ExpandPath(strings.TrimSpace(v.GetString(KeyDatabasePath))),
		Workers:      v.GetInt(KeyWorkers),
		Heuristics:   v.GetBool(KeyHeuristics),
		Currency:     strings.ToUpper(strings.TrimSpace(v.GetString(KeyExportCurrency))),
		LogLevel:     v.GetString(KeyLoggingLevel),
		LogFormat:    v.GetString(KeyLoggingFormat),
		Banks:        make(map[string]string),
	}

	for code, name := range v.GetStringMapString(KeyBanks) {
		cfg.Banks[strings.ToUpper(code)] = name
	}
	for _, term := range v.GetStringSlice(KeyBlacklistTerms) {
		if term = strings.TrimSpace(term); term != "" {
			cfg.BlacklistTerms = append(cfg.BlacklistTerms, term)
		}
	}

	loc, err := loadLocation(v.GetString(KeyTimezone))
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, defaultTimezoneKey) {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrInvalidConfig, KeyTimezone, err)
	}
	return loc, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: %s must be at least 1, got %d", common.ErrInvalidConfig, KeyWorkers, c.Workers)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyDatabasePath)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("%w: %s must be a 3-letter code, got %q", common.ErrInvalidConfig, KeyExportCurrency, c.Currency)
	}
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrInvalidConfig, KeyLoggingLevel, err)
	}
	return nil
}
