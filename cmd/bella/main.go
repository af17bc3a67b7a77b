// Package main contains the entrypoint for the Bella assistant.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/agent"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/app"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/config"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/connectivity"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/conversation"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/database"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/intent"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/logger"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/notify"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/provider"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/router"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/safety"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/scheduler"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/settings"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/speech"
)

// Simulated "thinking time" profiles per response path.
const (
	agentSimBase      = 300 * time.Millisecond
	agentSimPerWord   = 40 * time.Millisecond
	agentSimJitter    = 500 * time.Millisecond
	offlineSimBase    = 200 * time.Millisecond
	offlineSimPerWord = 60 * time.Millisecond
	offlineSimJitter  = 400 * time.Millisecond
	remoteSimBase     = 150 * time.Millisecond
	remoteSimPerWord  = 10 * time.Millisecond
	remoteSimJitter   = 300 * time.Millisecond
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger, db,
// monitor, router, conversation service, scheduler), handles graceful
// shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path, cfg.Database.ConnMaxLifetime)
	if err != nil {
		log.Error("Failed to initialize database", "error", err)
		return 1
	}
	defer database.CloseDB(db)

	store := database.NewStore(db, log)
	notifier := notify.NewLogNotifier(log)

	settingsSvc := settings.NewService(store, notifier, settings.Defaults{
		Safety: safety.Policy{
			ContentFilteringEnabled: cfg.Safety.FilteringEnabled,
			BlockedTopics:           cfg.Safety.BlockedTopics,
			AllowExplicitContent:    cfg.Safety.AllowExplicitContent,
			RetentionLimitDays:      cfg.Safety.RetentionDays,
		},
		ActiveProvider: provider.Kind(cfg.Providers.Active),
		Providers: map[provider.Kind]provider.Settings{
			provider.KindGemini: {
				Kind:   provider.KindGemini,
				APIKey: cfg.Providers.Gemini.APIKey,
				Model:  cfg.Providers.Gemini.Model,
			},
			provider.KindOpenAI: {
				Kind:    provider.KindOpenAI,
				APIKey:  cfg.Providers.OpenAI.APIKey,
				BaseURL: cfg.Providers.OpenAI.BaseURL,
				Model:   cfg.Providers.OpenAI.Model,
			},
			provider.KindWorkflow: {
				Kind:       provider.KindWorkflow,
				WebhookURL: cfg.Providers.Workflow.WebhookURL,
				WorkflowID: cfg.Providers.Workflow.WorkflowID,
			},
		},
		Speech: speech.Options{
			VoiceID:         cfg.Speech.VoiceID,
			Pitch:           cfg.Speech.Pitch,
			Rate:            cfg.Speech.Rate,
			Volume:          cfg.Speech.Volume,
			EnhancedQuality: cfg.Speech.EnhancedQuality,
		},
	}, log)

	prober := connectivity.NewHTTPProber(cfg.Connectivity.ProbeURL, cfg.Connectivity.ProbeTimeout)
	monitor := connectivity.NewMonitor(prober, cfg.Connectivity.FailureThreshold, log)
	catalog := agent.NewCatalog(log)

	agentSim := provider.NewSimulator(agentSimBase, agentSimPerWord, agentSimJitter)
	offlineSim := provider.NewSimulator(offlineSimBase, offlineSimPerWord, offlineSimJitter)
	offlineSrc := provider.NewOfflineSource(offlineSim, log)

	var remoteSrc provider.ResponseSource
	if cfg.Providers.Gemini.APIKey != "" {
		remoteSim := provider.NewSimulator(remoteSimBase, remoteSimPerWord, remoteSimJitter)
		remote, remoteErr := provider.NewRemoteSource(ctx, cfg.Providers.Gemini, remoteSim, log)
		if remoteErr != nil {
			log.Warn("Failed to initialize remote provider, continuing offline", "error", remoteErr)
		} else {
			remoteSrc = remote
		}
	} else {
		log.Info("No remote provider credentials configured, offline generation only")
	}

	rt := router.New(monitor, catalog, remoteSrc, offlineSrc, agentSim, settingsSvc, notifier, log)

	conv := conversation.NewService(ctx, conversation.Config{
		WordsPerSecond:   cfg.Conversation.WordsPerSecond,
		PunctuationPause: cfg.Conversation.PunctuationPause,
		Greeting:         cfg.Conversation.Greeting,
		HistoryLimit:     cfg.Conversation.HistoryLimit,
	},
		intent.NewClassifier(log),
		safety.NewFilter(log),
		settingsSvc,
		rt,
		monitor,
		catalog,
		store,
		notifier,
		speech.NewLogOutput(log),
		log,
	)

	tasks := scheduler.RegisterAllTasks(scheduler.TaskDeps{
		Logger:   log,
		Store:    store,
		Monitor:  monitor,
		Settings: settingsSvc,
	})
	sched, err := scheduler.New(log, cfg.Scheduler, tasks)
	if err != nil {
		log.Error("Failed to initialize scheduler", "error", err)
		return 1
	}

	application := app.New(log, conv, sched, speech.NewNopInput())
	if err := application.Run(ctx, runConsole); err != nil {
		log.Error("Application stopped with error", "error", err)
		return 1
	}
	return 0
}
