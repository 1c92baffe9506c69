package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"FinSight/internal/cache"
	"FinSight/internal/collector"
	"FinSight/internal/config"
	"FinSight/internal/notifier"
	"FinSight/internal/recorder"
	"FinSight/internal/registry"
	"FinSight/internal/trainer"
)

var (
	flagConfig string
	flagFormat string

	cfg *config.Config
	log *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:          "forecaster",
	Short:        "FinSight forecasting and risk engine",
	Long:         "Train per-user income, expense and risk models and serve forecasts and insights.",
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}
		log, err = newLogger(cfg.Log.Level, cfg.Log.Format)
		return err
	},
}

func init() {
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", defaultConfig, "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "text", "Output format: text or json")
}

func newLogger(level, format string) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	l.SetLevel(lvl)
	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l, nil
}

// app holds the collaborators every data command needs.
type app struct {
	registry  *registry.Registry
	collector *collector.Collector
	closers   []func() error
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Warnf("close: %v", err)
		}
	}
}

// newApp validates the config and wires the fetcher, history, cache and notifiers.
func newApp(ctx context.Context) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	var fetcher collector.Fetcher
	if cfg.Ledger.BaseURL != "" {
		fetcher = collector.NewLedgerFetcher(cfg.Ledger.BaseURL, cfg.Ledger.APIKey, cfg.Proxy,
			time.Duration(cfg.Ledger.TimeoutSeconds)*time.Second)
	} else {
		fetcher = collector.NewCSVFetcher(cfg.Data.CSVPath)
	}
	log.Infof("data source: %s", fetcher.Name())

	a := &app{collector: collector.NewCollector(fetcher, cfg.Data.LookbackDays)}
	reg := registry.New(cfg.Model.Dir, cfg.Model.MinTrainingRows, a.collector, trainer.New(cfg.Training, log), log)

	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warnf("init sqlite recorder failed, using noop: %v", err)
		} else {
			reg.Recorder = sr
			a.closers = append(a.closers, sr.Close)
		}
	}

	ttl := time.Duration(cfg.Redis.TTLHours) * time.Hour
	if cfg.Redis.Addr != "" {
		rc := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, ttl)
		if err := rc.Ping(ctx); err != nil {
			log.Warnf("redis unavailable, using in-memory cache: %v", err)
			_ = rc.Close()
			reg.Cache = cache.NewMemory(ttl)
		} else {
			reg.Cache = rc
			a.closers = append(a.closers, rc.Close)
		}
	} else {
		reg.Cache = cache.NewMemory(ttl)
	}

	var channels notifier.Multi
	if cfg.Telegram.BotToken != "" {
		channels = append(channels, notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log))
	}
	if cfg.Email.SMTPHost != "" {
		channels = append(channels, notifier.NewEmailNotifier(notifier.EmailConfig{
			SMTPHost:     cfg.Email.SMTPHost,
			SMTPPort:     cfg.Email.SMTPPort,
			SMTPUsername: cfg.Email.SMTPUsername,
			SMTPPassword: cfg.Email.SMTPPassword,
			SenderEmail:  cfg.Email.SenderEmail,
			Recipients:   cfg.Email.Recipients,
		}, log))
	}
	if len(channels) > 0 {
		reg.Notifier = channels
	}

	a.registry = reg
	return a, nil
}

// render prints v as JSON, or text when a formatter is given and the text format is selected.
func render(v any, text func() string) error {
	if flagFormat == "json" || text == nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	fmt.Println(notifier.PlainText(text()))
	return nil
}
