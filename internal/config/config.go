package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	AEX     AEXConfig     `yaml:"aex" mapstructure:"aex"`
	HubSpot HubSpotConfig `yaml:"hubspot" mapstructure:"hubspot"`
	Sync    SyncConfig    `yaml:"sync" mapstructure:"sync"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// AEXConfig holds AEX back-office API settings.
type AEXConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// HubSpotConfig holds HubSpot API settings.
type HubSpotConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// SyncConfig configures the extract/enrich/reconcile pipeline.
type SyncConfig struct {
	WindowHours     int    `yaml:"window_hours" mapstructure:"window_hours"`
	ServicesFile    string `yaml:"services_file" mapstructure:"services_file"`
	EnrichedFile    string `yaml:"enriched_file" mapstructure:"enriched_file"`
	SalesRepFile    string `yaml:"sales_rep_file" mapstructure:"sales_rep_file"`
	TicketTypesFile string `yaml:"ticket_types_file" mapstructure:"ticket_types_file"`
	RunDB           string `yaml:"run_db" mapstructure:"run_db"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AEXSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Tokens default to empty so AutomaticEnv can bind them
	// during Unmarshal; viper only binds keys it already knows about.
	v.SetDefault("aex.token", "")
	v.SetDefault("aex.base_url", "https://fno.national-us.aex.systems")
	v.SetDefault("hubspot.token", "")
	v.SetDefault("hubspot.base_url", "https://api.hubapi.com")
	v.SetDefault("hubspot.rate_limit", 4.0)
	v.SetDefault("sync.window_hours", 24)
	v.SetDefault("sync.services_file", "customers.json")
	v.SetDefault("sync.enriched_file", "enriched_premises_data.json")
	v.SetDefault("sync.sales_rep_file", "id.csv")
	v.SetDefault("sync.ticket_types_file", "ticket_types.json")
	v.SetDefault("sync.run_db", "aexsync.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// RequireAEXToken returns an error if the AEX API token is not configured.
func (c *Config) RequireAEXToken() error {
	if c.AEX.Token == "" {
		return eris.New("config: aex.token is not set (AEXSYNC_AEX_TOKEN)")
	}
	return nil
}

// RequireHubSpotToken returns an error if the HubSpot token is not configured.
func (c *Config) RequireHubSpotToken() error {
	if c.HubSpot.Token == "" {
		return eris.New("config: hubspot.token is not set (AEXSYNC_HUBSPOT_TOKEN)")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
