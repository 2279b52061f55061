package app

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/pricemap/pkg/constants"
	pkgerrors "github.com/agentstation/pricemap/pkg/errors"
)

// EnvPrefix prefixes every environment variable read by pricemap.
const EnvPrefix = "PRICEMAP"

// Config holds the application configuration loaded from .env files, the
// config file, environment variables and flags.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Output  string

	ConfigFile string

	// Catalog and refresh
	DataFile        string
	HistoryDB       string
	RefreshInterval time.Duration
	AdapterTimeout  time.Duration
	HTTPRate        float64
	Providers       []string

	// Provider credentials
	GeminiAPIKey string
	RunwayAPIKey string

	// Logging
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration in order of increasing precedence:
// defaults, config file (configFile, or ~/.pricemap.yaml and ./.pricemap.yaml),
// .env files, environment variables. Flags are applied later by
// UpdateFromFlags.
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("output", "")
	v.SetDefault("data_file", constants.DefaultDataFile)
	v.SetDefault("history_db", constants.DefaultHistoryDB)
	v.SetDefault("refresh_interval", constants.DefaultRefreshInterval)
	v.SetDefault("adapter_timeout", constants.AdapterTimeout)
	v.SetDefault("http_rate", constants.DefaultRequestsPerSecond)
	v.SetDefault("providers", []string{})
	v.SetDefault("log_level", "")
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")

	if err := bindAPIKeys(v); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.DefaultConfigName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, pkgerrors.NewConfigError("config file", "failed to read", err)
		}
	}

	cfg := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Output:  v.GetString("output"),

		ConfigFile: v.ConfigFileUsed(),

		DataFile:        v.GetString("data_file"),
		HistoryDB:       v.GetString("history_db"),
		RefreshInterval: v.GetDuration("refresh_interval"),
		AdapterTimeout:  v.GetDuration("adapter_timeout"),
		HTTPRate:        v.GetFloat64("http_rate"),
		Providers:       splitList(v.GetStringSlice("providers")),

		GeminiAPIKey: v.GetString("gemini_api_key"),
		RunwayAPIKey: v.GetString("runway_api_key"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside the client.
func (c *Config) Validate() error {
	if c.RefreshInterval < constants.MinRefreshInterval {
		return &pkgerrors.ValidationError{
			Field:   "refresh_interval",
			Value:   c.RefreshInterval,
			Message: "must be at least " + constants.MinRefreshInterval.String(),
		}
	}
	if c.AdapterTimeout <= 0 {
		return &pkgerrors.ValidationError{
			Field:   "adapter_timeout",
			Value:   c.AdapterTimeout,
			Message: "must be positive",
		}
	}
	return nil
}

// UpdateFromFlags applies parsed flag values on top of the loaded config.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, output, logLevel, dataFile string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if output != "" {
		c.Output = output
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if dataFile != "" {
		c.DataFile = dataFile
	}
}

// splitList accepts both YAML lists and comma-separated environment values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// loadEnvFiles loads .env.local and .env. godotenv never overrides a
// variable already set, so the process environment wins over both and
// .env.local wins over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// bindAPIKeys lets provider keys come from their conventional variables as
// well as the prefixed ones.
func bindAPIKeys(v *viper.Viper) error {
	bindings := map[string][]string{
		"gemini_api_key": {EnvPrefix + "_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"runway_api_key": {EnvPrefix + "_RUNWAY_API_KEY", "RUNWAY_API_KEY", "RUNWAYML_API_SECRET"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return pkgerrors.NewConfigError("environment", "failed to bind "+key, err)
		}
	}
	return nil
}
