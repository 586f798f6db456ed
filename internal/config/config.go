// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr           string        `mapstructure:"HTTP_ADDR"`
	RequestTimeout     time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	GithubClientID     string        `mapstructure:"GITHUB_CLIENT_ID"`
	GithubClientSecret string        `mapstructure:"GITHUB_CLIENT_SECRET"`
	GeminiAPIKey       string        `mapstructure:"GEMINI_API_KEY"`
	GeminiModel        string        `mapstructure:"GEMINI_MODEL"`
	GeminiBaseURL      string        `mapstructure:"GEMINI_BASE_URL"`
	AWSRegion          string        `mapstructure:"AWS_REGION"`
	ReportsTable       string        `mapstructure:"REPORTS_TABLE"`
	PresetsTable       string        `mapstructure:"PRESETS_TABLE"`
	ReportBucket       string        `mapstructure:"REPORT_BUCKET"`
	SenderEmail        string        `mapstructure:"SES_SENDER_EMAIL"`
	SenderName         string        `mapstructure:"SES_SENDER_NAME"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("REQUEST_TIMEOUT", "60s")
	viper.SetDefault("GEMINI_MODEL", "gemini-2.0-flash-exp")
	viper.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("AWS_REGION", "ap-northeast-2")
	viper.SetDefault("REPORTS_TABLE", "UserReports")
	viper.SetDefault("PRESETS_TABLE", "UserPreset")
	viper.SetDefault("REPORT_BUCKET", "gitnote-report-archive")
	viper.SetDefault("SES_SENDER_NAME", "GitNote")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.GithubClientID == "" || cfg.GithubClientSecret == "" {
		return nil, errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required configuration fields")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is a required configuration field")
	}
	if cfg.SenderEmail == "" {
		return nil, errors.New("SES_SENDER_EMAIL is a required configuration field")
	}

	return &cfg, nil
}
