package config

import (
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Timeplus   TimeplusConfig   `mapstructure:"timeplus"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port            string `mapstructure:"port"`
	AllowedOrigins  string `mapstructure:"allowedOrigins"`
	ShutdownTimeout int    `mapstructure:"shutdownTimeout"`
}

// SimulationConfig controls the synthetic telemetry generator
type SimulationConfig struct {
	Seed                     int64         `mapstructure:"seed"` // 0 seeds from the clock
	CorrelationWindowSeconds int           `mapstructure:"correlationWindowSeconds"`
	Initial                  InitialCounts `mapstructure:"initial"`
	Feeds                    FeedsConfig   `mapstructure:"feeds"`
}

// InitialCounts is the amount of data seeded before the feeds start
type InitialCounts struct {
	Incidents int `mapstructure:"incidents"`
	Alerts    int `mapstructure:"alerts"`
	Threats   int `mapstructure:"threats"`
	Anomalies int `mapstructure:"anomalies"`
}

// FeedConfig describes one periodic generator
type FeedConfig struct {
	IntervalMs  int     `mapstructure:"intervalMs"`
	Probability float64 `mapstructure:"probability"`
	Limit       int     `mapstructure:"limit"`
}

// Interval returns the feed period as a duration
func (f FeedConfig) Interval() time.Duration {
	return time.Duration(f.IntervalMs) * time.Millisecond
}

// FeedsConfig holds the schedule of every feed
type FeedsConfig struct {
	Incidents    FeedConfig `mapstructure:"incidents"`
	Traffic      FeedConfig `mapstructure:"traffic"`
	Alerts       FeedConfig `mapstructure:"alerts"`
	Threats      FeedConfig `mapstructure:"threats"`
	Anomalies    FeedConfig `mapstructure:"anomalies"`
	SystemStatus FeedConfig `mapstructure:"systemStatus"`
}

// AuthConfig holds the demo session settings
type AuthConfig struct {
	StorageDir    string   `mapstructure:"storageDir"`
	DemoPasswords []string `mapstructure:"demoPasswords"`
	BcryptCost    int      `mapstructure:"bcryptCost"`
}

// TimeplusConfig holds the Timeplus connection configuration
type TimeplusConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	Username  string `mapstructure:"username"`
	Workspace string `mapstructure:"workspace"`
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.allowedOrigins", "*")
	viper.SetDefault("server.shutdownTimeout", 10)

	viper.SetDefault("simulation.seed", 0)
	viper.SetDefault("simulation.correlationWindowSeconds", 300)
	viper.SetDefault("simulation.initial.incidents", 10)
	viper.SetDefault("simulation.initial.alerts", 15)
	viper.SetDefault("simulation.initial.threats", 8)
	viper.SetDefault("simulation.initial.anomalies", 6)

	setFeedDefaults("incidents", 5000, 0.3, 50)
	setFeedDefaults("traffic", 1000, 1.0, 100)
	setFeedDefaults("alerts", 3000, 0.4, 100)
	setFeedDefaults("threats", 8000, 0.2, 50)
	setFeedDefaults("anomalies", 10000, 0.15, 50)
	setFeedDefaults("systemStatus", 15000, 1.0, 0)

	viper.SetDefault("auth.storageDir", "./data")
	viper.SetDefault("auth.demoPasswords", []string{"password", "admin"})
	viper.SetDefault("auth.bcryptCost", 10)

	viper.SetDefault("timeplus.enabled", false)
	viper.SetDefault("timeplus.address", "localhost:8464")
	viper.SetDefault("timeplus.username", "default")
	viper.SetDefault("timeplus.workspace", "default")
}

func setFeedDefaults(name string, intervalMs int, probability float64, limit int) {
	prefix := "simulation.feeds." + name + "."
	viper.SetDefault(prefix+"intervalMs", intervalMs)
	viper.SetDefault(prefix+"probability", probability)
	viper.SetDefault(prefix+"limit", limit)
}

// LoadConfig loads the application configuration from file or environment variables
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	setDefaults()

	// Allow environment variables to override config file
	viper.SetEnvPrefix("SOC_DASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If config file is provided, read it
	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			logrus.Warnf("Error reading config file: %v", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// WatchConfig re-reads the config file whenever it changes and hands the
// result to onChange. It is a no-op when no config file is in use.
func WatchConfig(onChange func(*Config)) {
	v := viper.GetViper()
	if v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		logrus.Infof("Config file changed: %s", e.Name)

		var config Config
		if err := v.Unmarshal(&config); err != nil {
			logrus.Errorf("Failed to reload config: %v", err)
			return
		}
		onChange(&config)
	})
	v.WatchConfig()
}
