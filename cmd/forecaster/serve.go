package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"FinSight/internal/notifier"
	"FinSight/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Retrain on a cron schedule and answer Telegram commands",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.Info("FinSight starting...")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.NewScheduler(ctx, a.registry, cfg.Schedule.Users, log)
	if err := sched.RegisterAll(cfg.Schedule.RetrainCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Telegram.BotToken != "" {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info("telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, executing retrain task now")
		go sched.RunRetrainNow()
	}

	log.Info("FinSight is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()
	return nil
}
