package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"

	"github.com/haytac/emojifix/internal/logging"
	"github.com/haytac/emojifix/internal/table"
)

// TableEntry is one configured replacement. Either Corrupted is given
// literally, or Depth > 0 asks for it to be derived from Correct.
// Correct may be a ":shortcode:".
type TableEntry struct {
	Corrupted string `mapstructure:"corrupted"`
	Correct   string `mapstructure:"correct"`
	Depth     int    `mapstructure:"depth"`
}

// AppConfig holds the application configuration.
type AppConfig struct {
	Root                string         `mapstructure:"root"`
	Pattern             string         `mapstructure:"pattern"`
	DryRun              bool           `mapstructure:"dry_run"`
	Workers             int            `mapstructure:"workers"`
	ReportFile          string         `mapstructure:"report_file"`
	MetricsFile         string         `mapstructure:"metrics_file"`
	Log                 logging.Config `mapstructure:"log"`
	Table               []TableEntry   `mapstructure:"table"`
	IncludeDefaultTable bool           `mapstructure:"include_default_table"`
}

// Defaults mirror the layout the tool was first written for: JSX sources under ./src.
const (
	DefaultRoot    = "src"
	DefaultPattern = "**/*.jsx"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", DefaultRoot)
	v.SetDefault("pattern", DefaultPattern)
	v.SetDefault("dry_run", false)
	v.SetDefault("workers", 1)
	v.SetDefault("report_file", "")
	v.SetDefault("metrics_file", "")
	v.SetDefault("include_default_table", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.time_format", time.Kitchen)
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
}

// LoadConfig loads configuration from file and environment variables.
// A missing config file is not an error; defaults apply.
func LoadConfig(configPath string) (*AppConfig, error) {
	return load(viper.New(), configPath)
}

func load(v *viper.Viper, configPath string) (*AppConfig, error) {
	var cfg AppConfig

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("emojifix")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.emojifix")
		v.AddConfigPath("/etc/emojifix/")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("EMOJIFIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the search settings.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return errors.New("root must not be empty")
	}
	if strings.TrimSpace(c.Pattern) == "" {
		return errors.New("pattern must not be empty")
	}
	if !doublestar.ValidatePattern(c.Pattern) {
		return fmt.Errorf("pattern %q is not a valid glob", c.Pattern)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// BuildTable returns the configured entries followed by the built-in table
// (unless IncludeDefaultTable is false). Configured entries win on duplicate keys.
func (c *AppConfig) BuildTable() (*table.Table, error) {
	entries := make([]table.Entry, 0, len(c.Table))
	for i, te := range c.Table {
		correct, err := table.ResolveEmoji(te.Correct)
		if err != nil {
			return nil, fmt.Errorf("table[%d]: %w", i, err)
		}
		corrupted := te.Corrupted
		if corrupted == "" {
			if te.Depth < 1 {
				return nil, fmt.Errorf("table[%d]: set either corrupted or depth", i)
			}
			corrupted, err = table.Corrupt(correct, te.Depth)
			if err != nil {
				return nil, fmt.Errorf("table[%d]: %w", i, err)
			}
		}
		entries = append(entries, table.Entry{Corrupted: corrupted, Correct: correct})
	}

	configured, err := table.New(entries...)
	if err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	if !c.IncludeDefaultTable {
		if configured.Len() == 0 {
			return nil, errors.New("table is empty: add entries or enable include_default_table")
		}
		return configured, nil
	}
	return configured.Concat(table.Default()), nil
}
