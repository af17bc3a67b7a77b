package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load loads and validates configuration from:
// 1. Default values
// 2. The config file at configPath (optional)
// 3. BELLA_* environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BELLA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow missing config file; defaults plus environment are enough.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !strings.Contains(err.Error(), "no such file") {
				return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if len(cfg.Scheduler.Tasks) == 0 {
		cfg.Scheduler.Tasks = DefaultSchedulerTasks
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// setDefaults registers default values for optional configuration parameters.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.conn_max_lifetime", DefaultConnMaxLifetime)

	v.SetDefault("providers.active", DefaultActiveProvider)
	v.SetDefault("providers.gemini.model", DefaultGeminiModel)
	v.SetDefault("providers.gemini.temperature", DefaultGeminiTemperature)
	v.SetDefault("providers.gemini.max_retries", DefaultGeminiMaxRetries)
	v.SetDefault("providers.gemini.retry_delay_seconds", DefaultGeminiRetryDelay)
	v.SetDefault("providers.openai.base_url", DefaultOpenAIBaseURL)
	v.SetDefault("providers.openai.model", DefaultOpenAIModel)

	v.SetDefault("connectivity.probe_url", DefaultProbeURL)
	v.SetDefault("connectivity.probe_timeout", DefaultProbeTimeout)
	v.SetDefault("connectivity.failure_threshold", DefaultFailureThreshold)

	v.SetDefault("safety.filtering_enabled", DefaultFilteringEnabled)
	v.SetDefault("safety.allow_explicit_content", DefaultAllowExplicit)
	v.SetDefault("safety.retention_days", DefaultRetentionDays)

	v.SetDefault("conversation.words_per_second", DefaultWordsPerSecond)
	v.SetDefault("conversation.punctuation_pause", DefaultPunctuationPause)
	v.SetDefault("conversation.history_limit", DefaultHistoryLimit)
	v.SetDefault("conversation.greeting", DefaultGreeting)

	v.SetDefault("speech.voice_id", DefaultVoiceID)
	v.SetDefault("speech.pitch", DefaultPitch)
	v.SetDefault("speech.rate", DefaultRate)
	v.SetDefault("speech.volume", DefaultVolume)
}
