package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wowoyong/voca-app/internal/api"
	"github.com/wowoyong/voca-app/internal/config"
	"github.com/wowoyong/voca-app/internal/metrics"
	"github.com/wowoyong/voca-app/internal/notify"
	"github.com/wowoyong/voca-app/internal/quiz"
	"github.com/wowoyong/voca-app/internal/scheduler"
	"github.com/wowoyong/voca-app/internal/study"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the reminder scheduler",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	domains := make(map[string]api.Domain, len(config.Languages))
	sources := make([]scheduler.ReminderSource, 0, len(config.Languages))

	for _, lang := range config.Languages {
		h, err := openStore(ctx, cfg, lang)
		if err != nil {
			return err
		}
		defer func(lang string) {
			if err := h.close(); err != nil {
				logger.Warn("failed to close database", zap.String("lang", lang), zap.Error(err))
			}
		}(lang)

		studyCfg := study.DefaultConfig()
		studyCfg.Location = loc
		studyCfg.StreakGrace = cfg.StreakGrace
		svc := study.NewService(lang, h.store, studyCfg, logger, study.WithMetrics(m))

		domains[lang] = api.Domain{Study: svc, Quiz: quiz.NewGenerator(h.store), Ping: h.ping}
		sources = append(sources, svc)
	}

	server := api.New(domains, api.Options{
		Logger:         logger,
		Metrics:        m,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(cfg.HTTPAddr)
	})

	if cfg.EnableScheduler {
		sched := scheduler.New(newNotifier(cfg, logger), sources, logger, m)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newNotifier delivers reminders through Telegram when a token is set and
// logs them otherwise.
func newNotifier(cfg config.Config, logger *zap.Logger) scheduler.Notifier {
	if cfg.TelegramToken == "" {
		logger.Info("TELEGRAM_BOT_TOKEN not set, reminders are only logged")
		return notify.NewLog(logger)
	}
	tg, err := notify.NewTelegram(cfg.TelegramToken, logger)
	if err != nil {
		logger.Error("failed to create telegram client, reminders are only logged", zap.Error(err))
		return notify.NewLog(logger)
	}
	return tg
}
