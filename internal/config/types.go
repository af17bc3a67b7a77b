// Package config provides configuration loading, validation, and management
// for the Bella assistant. It handles reading from YAML files, environment
// variables, default values, and validating configuration parameters.
package config

import (
	"errors"
	"time"
)

// ErrConfiguration indicates a failure to load or validate configuration.
var ErrConfiguration = errors.New("configuration error")

// Config defines the application configuration for all components of the
// Bella assistant: logging, storage, providers, connectivity probing,
// safety policy defaults, conversation pacing, speech output, and the
// task scheduler.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"logger"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Providers    ProvidersConfig    `mapstructure:"providers"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity"`
	Safety       SafetyConfig       `mapstructure:"safety"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Speech       SpeechConfig       `mapstructure:"speech"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
}

// LoggerConfig controls log verbosity and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig holds SQLite connection settings for the settings store
// and durable message log.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"              validate:"required"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"min=1m"`
}

// ProvidersConfig selects the active response provider and carries the
// per-provider credential and tuning records.
type ProvidersConfig struct {
	Active   string         `mapstructure:"active" validate:"oneof=openai gemini workflow offline"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
}

// GeminiConfig holds credentials and tuning for the Gemini provider.
type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"               validate:"required"`
	Temperature       float32 `mapstructure:"temperature"         validate:"min=0,max=2"`
	MaxRetries        int     `mapstructure:"max_retries"         validate:"min=0,max=10"`
	RetryDelaySeconds int     `mapstructure:"retry_delay_seconds" validate:"min=0,max=60"`
}

// OpenAIConfig holds credentials for an OpenAI-compatible provider.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	Model   string `mapstructure:"model"`
}

// WorkflowConfig holds the webhook endpoint for a workflow provider.
type WorkflowConfig struct {
	WebhookURL string `mapstructure:"webhook_url" validate:"omitempty,url"`
	WorkflowID string `mapstructure:"workflow_id"`
}

// ConnectivityConfig controls the periodic and on-demand network probes.
type ConnectivityConfig struct {
	ProbeURL         string        `mapstructure:"probe_url"         validate:"required,url"`
	ProbeTimeout     time.Duration `mapstructure:"probe_timeout"     validate:"min=1s,max=1m"`
	FailureThreshold int           `mapstructure:"failure_threshold" validate:"min=1,max=10"`
}

// SafetyConfig provides the initial content-safety policy. The durable
// policy in the settings store takes precedence once written.
type SafetyConfig struct {
	FilteringEnabled     bool     `mapstructure:"filtering_enabled"`
	BlockedTopics        []string `mapstructure:"blocked_topics"`
	AllowExplicitContent bool     `mapstructure:"allow_explicit_content"`
	RetentionDays        int      `mapstructure:"retention_days" validate:"min=1,max=3650"`
}

// ConversationConfig controls message pacing and canned conversation text.
type ConversationConfig struct {
	WordsPerSecond   float64       `mapstructure:"words_per_second"  validate:"gt=0"`
	PunctuationPause time.Duration `mapstructure:"punctuation_pause" validate:"min=0"`
	Greeting         string        `mapstructure:"greeting"          validate:"required"`
	HistoryLimit     int           `mapstructure:"history_limit"     validate:"min=1,max=500"`
}

// SpeechConfig is the options bundle handed to the speech output device.
type SpeechConfig struct {
	VoiceID         string  `mapstructure:"voice_id"`
	Pitch           float64 `mapstructure:"pitch"  validate:"min=0,max=2"`
	Rate            float64 `mapstructure:"rate"   validate:"min=0.1,max=4"`
	Volume          float64 `mapstructure:"volume" validate:"min=0,max=1"`
	EnhancedQuality bool    `mapstructure:"enhanced_quality"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a named scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}
