package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the config file base name searched for in each directory.
const FileName = ".codelens"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	configFile string
	searchDirs []string
}

// NewLoader creates a loader. A non-empty configFile must exist; otherwise
// .codelens.yaml is looked up in searchDirs, in order.
func NewLoader(configFile string, searchDirs ...string) Loader {
	return &loader{
		configFile: configFile,
		searchDirs: searchDirs,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CODELENS_*)
// 2. Config file
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, dir := range l.searchDirs {
			v.AddConfigPath(dir)
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("CODELENS")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., CODELENS_LOG_LEVEL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvVars(v)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Only a searched-for file may be absent
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// Analysis configuration
	v.BindEnv("analysis.max_file_size")
	v.BindEnv("analysis.workers")

	// Paths configuration
	v.BindEnv("paths.ignore")

	// Log configuration
	v.BindEnv("log.level")
	v.BindEnv("log.file")
	v.BindEnv("log.max_size")
	v.BindEnv("log.max_backups")
	v.BindEnv("log.max_age")
	v.BindEnv("log.compress")
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("analysis.max_file_size", defaults.Analysis.MaxFileSize)
	v.SetDefault("analysis.workers", defaults.Analysis.Workers)

	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.max_size", defaults.Log.MaxSize)
	v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	v.SetDefault("log.max_age", defaults.Log.MaxAge)
	v.SetDefault("log.compress", defaults.Log.Compress)
}

// LoadConfig loads configFile if set, else searches the working directory
// and then the home directory.
func LoadConfig(configFile string) (*Config, error) {
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	return NewLoader(configFile, dirs...).Load()
}
