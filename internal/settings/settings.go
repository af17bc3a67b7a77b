// Package settings provides typed, durable access to user settings on top of
// the database key/value store: safety policy, provider selection and
// credentials, integration state, and speech options. Settings are loaded on
// demand and written back on every change; each change is reported to the
// notification surface.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/database"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/notify"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/provider"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/safety"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/speech"
)

// Integration names an external service the assistant can be connected to.
type Integration string

// Supported integrations.
const (
	IntegrationCalendar Integration = "google_calendar"
	IntegrationEmail    Integration = "gmail"
	IntegrationContacts Integration = "google_contacts"
)

const (
	keySafetyPolicy   = "safety_policy"
	keyActiveProvider = "active_provider"
	keySpeechOptions  = "speech_options"

	providerKeyPrefix    = "provider."
	integrationKeyPrefix = "integration."
)

// Defaults seed the values returned before anything has been written.
// Providers carries config-sourced credential records used until the user
// saves their own.
type Defaults struct {
	Safety         safety.Policy
	ActiveProvider provider.Kind
	Providers      map[provider.Kind]provider.Settings
	Speech         speech.Options
}

// Service reads and writes settings through the database store.
type Service struct {
	store    database.Store
	notifier notify.Notifier
	logger   *slog.Logger
	defaults Defaults
}

// NewService creates a settings Service.
func NewService(store database.Store, notifier notify.Notifier, defaults Defaults, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger.With("component", "settings"),
		defaults: defaults,
	}
}

// SafetyPolicy returns the durable safety policy, or the configured default
// when none has been written yet.
func (s *Service) SafetyPolicy(ctx context.Context) safety.Policy {
	var policy safety.Policy
	if ok := s.getJSON(ctx, keySafetyPolicy, &policy); !ok {
		return s.defaults.Safety
	}
	return policy
}

// SaveSafetyPolicy persists a new safety policy.
func (s *Service) SaveSafetyPolicy(ctx context.Context, policy safety.Policy) error {
	if err := s.putJSON(ctx, keySafetyPolicy, policy); err != nil {
		return err
	}
	s.notifier.Notify(ctx, notify.Notification{
		Title:       "Settings saved",
		Description: "Privacy and safety settings were updated.",
		Severity:    notify.SeverityInfo,
	})
	return nil
}

// ActiveProvider returns the selected provider kind.
func (s *Service) ActiveProvider(ctx context.Context) provider.Kind {
	value, err := s.store.GetSetting(ctx, keyActiveProvider)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to read active provider, using default", "error", err)
		}
		return s.defaults.ActiveProvider
	}
	return provider.Kind(value)
}

// SetActiveProvider persists the provider selection.
func (s *Service) SetActiveProvider(ctx context.Context, kind provider.Kind) error {
	if err := s.store.SaveSetting(ctx, keyActiveProvider, string(kind)); err != nil {
		return fmt.Errorf("failed to save active provider: %w", err)
	}
	s.notifier.Notify(ctx, notify.Notification{
		Title:       "Settings saved",
		Description: fmt.Sprintf("Active provider set to %s.", kind),
		Severity:    notify.SeverityInfo,
	})
	return nil
}

// ProviderSettings returns the stored credential record for a provider kind,
// falling back to the config-sourced default when none has been saved.
func (s *Service) ProviderSettings(ctx context.Context, kind provider.Kind) provider.Settings {
	ps := provider.Settings{Kind: kind}
	if ok := s.getJSON(ctx, providerKeyPrefix+string(kind), &ps); !ok {
		if def, found := s.defaults.Providers[kind]; found {
			ps = def
		}
	}
	ps.Kind = kind
	return ps
}

// SaveProviderSettings persists a provider credential record.
func (s *Service) SaveProviderSettings(ctx context.Context, ps provider.Settings) error {
	if err := s.putJSON(ctx, providerKeyPrefix+string(ps.Kind), ps); err != nil {
		return err
	}
	s.notifier.Notify(ctx, notify.Notification{
		Title:       "Settings saved",
		Description: fmt.Sprintf("Provider settings for %s were updated.", ps.Kind),
		Severity:    notify.SeverityInfo,
	})
	return nil
}

// IntegrationConnected reports whether an integration has been connected.
func (s *Service) IntegrationConnected(ctx context.Context, integration Integration) bool {
	value, err := s.store.GetSetting(ctx, integrationKeyPrefix+string(integration))
	if err != nil {
		return false
	}
	return value == "connected"
}

// ConnectIntegration marks an integration as connected.
func (s *Service) ConnectIntegration(ctx context.Context, integration Integration) error {
	if err := s.store.SaveSetting(ctx, integrationKeyPrefix+string(integration), "connected"); err != nil {
		s.notifier.Notify(ctx, notify.Notification{
			Title:       "Integration failed",
			Description: fmt.Sprintf("Could not connect %s.", integration),
			Severity:    notify.SeverityError,
		})
		return fmt.Errorf("failed to connect integration %s: %w", integration, err)
	}
	s.notifier.Notify(ctx, notify.Notification{
		Title:       "Integration connected",
		Description: fmt.Sprintf("%s is now connected.", integration),
		Severity:    notify.SeverityInfo,
	})
	return nil
}

// DisconnectIntegration marks an integration as disconnected.
func (s *Service) DisconnectIntegration(ctx context.Context, integration Integration) error {
	if err := s.store.SaveSetting(ctx, integrationKeyPrefix+string(integration), "disconnected"); err != nil {
		return fmt.Errorf("failed to disconnect integration %s: %w", integration, err)
	}
	s.notifier.Notify(ctx, notify.Notification{
		Title:       "Integration disconnected",
		Description: fmt.Sprintf("%s was disconnected.", integration),
		Severity:    notify.SeverityInfo,
	})
	return nil
}

// SpeechOptions returns the stored speech options bundle or the default.
func (s *Service) SpeechOptions(ctx context.Context) speech.Options {
	var opts speech.Options
	if ok := s.getJSON(ctx, keySpeechOptions, &opts); !ok {
		return s.defaults.Speech
	}
	return opts
}

// SaveSpeechOptions persists the speech options bundle.
func (s *Service) SaveSpeechOptions(ctx context.Context, opts speech.Options) error {
	if err := s.putJSON(ctx, keySpeechOptions, opts); err != nil {
		return err
	}
	s.notifier.Notify(ctx, notify.Notification{
		Title:       "Settings saved",
		Description: "Voice settings were updated.",
		Severity:    notify.SeverityInfo,
	})
	return nil
}

func (s *Service) getJSON(ctx context.Context, key string, out any) bool {
	value, err := s.store.GetSetting(ctx, key)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to read setting", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		s.logger.WarnContext(ctx, "failed to decode setting, using default", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Service) putJSON(ctx context.Context, key string, in any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode setting %q: %w", key, err)
	}
	if err := s.store.SaveSetting(ctx, key, string(data)); err != nil {
		return fmt.Errorf("failed to save setting %q: %w", key, err)
	}
	return nil
}
