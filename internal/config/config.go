package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the hakabot server
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Errors   ErrorsConfig   `mapstructure:"errors"`
	Widget   WidgetConfig   `mapstructure:"widget"`
	Database DatabaseConfig `mapstructure:"database"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// UpstreamConfig holds the inference service endpoint configuration
type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ChatConfig holds the retrieval tuning defaults sent with every question.
// These are per-deployment constants, never user-editable.
type ChatConfig struct {
	UseRerankOnUnknown bool    `mapstructure:"use_rerank_on_unknown"`
	TopKFirst          int     `mapstructure:"top_k_first"`
	TopKRerank1        int     `mapstructure:"top_k_rerank1"`
	TopKRerank2        int     `mapstructure:"top_k_rerank2"`
	Temperature        float64 `mapstructure:"temperature"`
}

// ErrorsConfig holds the user-facing text shown when an inference call
// fails, keyed by failure kind. Contact is shared by every template.
type ErrorsConfig struct {
	Contact       string `mapstructure:"contact"`
	Unreachable   string `mapstructure:"unreachable"`
	UpstreamFault string `mapstructure:"upstream_fault"`
	BadRequest    string `mapstructure:"bad_request"`
	Timeout       string `mapstructure:"timeout"`
	Transport     string `mapstructure:"transport"`
	System        string `mapstructure:"system"`
}

// WidgetConfig holds the widget bootstrap appearance
type WidgetConfig struct {
	Greeting     string `mapstructure:"greeting"`
	Placeholder  string `mapstructure:"placeholder"`
	Theme        string `mapstructure:"theme"`
	PrimaryColor string `mapstructure:"primary_color"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("HAKABOT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("upstream.base_url", "http://localhost:3001")
	v.SetDefault("upstream.timeout", "10s")

	v.SetDefault("chat.use_rerank_on_unknown", true)
	v.SetDefault("chat.top_k_first", 8)
	v.SetDefault("chat.top_k_rerank1", 5)
	v.SetDefault("chat.top_k_rerank2", 3)
	v.SetDefault("chat.temperature", 0.0)

	v.SetDefault("errors.contact", "If the problem persists, please contact support (1588-0000).")
	v.SetDefault("errors.unreachable", "We are having trouble reaching the server. Please try again shortly.")
	v.SetDefault("errors.upstream_fault", "The server hit a temporary error.")
	v.SetDefault("errors.bad_request", "Your request could not be processed.")
	v.SetDefault("errors.timeout", "The server is taking too long to respond. Please try again shortly.")
	v.SetDefault("errors.transport", "Please check your internet connection and try again.")
	v.SetDefault("errors.system", "A temporary system error occurred.")

	v.SetDefault("widget.greeting", "Hi! How can I help you today?")
	v.SetDefault("widget.placeholder", "Ask a question...")
	v.SetDefault("widget.theme", "light")
	v.SetDefault("widget.primary_color", "#00ACA3")

	v.SetDefault("database.path", "./data/hakabot.db")
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
