package config

import "time"

// Default values for configuration
const (
	// Logger defaults
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	// Database defaults
	DefaultDBPath          = "bella.db"
	DefaultConnMaxLifetime = 5 * time.Minute

	// Provider defaults
	DefaultActiveProvider    = "offline"
	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultGeminiTemperature = 0.7
	DefaultGeminiMaxRetries  = 2
	DefaultGeminiRetryDelay  = 2
	DefaultOpenAIBaseURL     = "https://api.openai.com/v1"
	DefaultOpenAIModel       = "gpt-4o-mini"

	// Connectivity defaults
	DefaultProbeURL         = "https://www.gstatic.com/generate_204"
	DefaultProbeTimeout     = 5 * time.Second
	DefaultFailureThreshold = 3

	// Safety defaults
	DefaultFilteringEnabled = true
	DefaultAllowExplicit    = false
	DefaultRetentionDays    = 30

	// Conversation defaults
	DefaultWordsPerSecond   = 2.5
	DefaultPunctuationPause = 200 * time.Millisecond
	DefaultHistoryLimit     = 100
	DefaultGreeting         = "Hi! I'm Bella. How can I help you today?"

	// Speech defaults
	DefaultVoiceID = "bella-en-us"
	DefaultPitch   = 1.0
	DefaultRate    = 1.0
	DefaultVolume  = 0.8
)

// DefaultSchedulerTasks enables the built-in scheduled tasks. The
// connectivity probe runs every minute; retention cleanup runs once a day.
var DefaultSchedulerTasks = map[string]TaskConfig{
	"connectivity_probe": {Enabled: true, Schedule: "0 * * * * *"},
	"retention_cleanup":  {Enabled: true, Schedule: "0 0 4 * * *"},
}
