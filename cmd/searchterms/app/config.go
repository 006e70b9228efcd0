package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/searchterms/pkg/constants"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	Format  string

	// Config file
	ConfigFile string

	// Host
	CKANURL        string
	CKANAPIKey     string
	CKANAuthScheme string
	IndexAction    string
	StoragePath    string

	// Jobs
	QueueWorkers      int
	JobTimeout        time.Duration
	SerializeDatasets bool
	IndexAfterJob     bool
	TaskStore         string

	// Extension
	Extension string
	Formats   []string
	Columns   []string

	// Webhook server
	Listen        string
	WebhookAPIKey string
	RateLimit     int

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.searchterms.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".searchterms")
		// a missing default config file is fine
		_ = v.ReadInConfig()
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		CKANURL:        v.GetString("ckan_url"),
		CKANAPIKey:     v.GetString("ckan_api_key"),
		CKANAuthScheme: v.GetString("ckan_auth_scheme"),
		IndexAction:    v.GetString("index_action"),
		StoragePath:    v.GetString("storage_path"),

		QueueWorkers:      v.GetInt("queue_workers"),
		JobTimeout:        v.GetDuration("job_timeout"),
		SerializeDatasets: v.GetBool("serialize_datasets"),
		IndexAfterJob:     v.GetBool("index_after_job"),
		TaskStore:         v.GetString("task_store"),

		Extension: v.GetString("extension"),
		Formats:   stringList(v, "formats"),
		Columns:   stringList(v, "columns"),

		Listen:        v.GetString("listen"),
		WebhookAPIKey: v.GetString("webhook_api_key"),
		RateLimit:     v.GetInt("rate_limit"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}
	if config.StoragePath == "" {
		config.StoragePath = os.Getenv(constants.StorageEnvVar)
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ckan_auth_scheme", "raw")
	v.SetDefault("index_action", "xloader_submit")
	v.SetDefault("queue_workers", constants.DefaultWorkers)
	v.SetDefault("job_timeout", constants.JobTimeout)
	v.SetDefault("serialize_datasets", true)
	v.SetDefault("index_after_job", true)
	v.SetDefault("extension", "tabular")
	v.SetDefault("formats", []string{"csv", "tsv"})
	v.SetDefault("listen", "localhost:8080")
	v.SetDefault("rate_limit", 600)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// stringList reads a list from a YAML sequence or a comma-separated
// environment value.
func stringList(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for part := range strings.SplitSeq(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
