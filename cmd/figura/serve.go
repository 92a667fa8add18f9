package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"github.com/figurabot/figura/internal/assignment"
	"github.com/figurabot/figura/internal/bot"
	"github.com/figurabot/figura/internal/config"
	"github.com/figurabot/figura/internal/db"
	"github.com/figurabot/figura/internal/gateway"
	"github.com/figurabot/figura/internal/logging"
	"github.com/figurabot/figura/internal/persona"
	"github.com/figurabot/figura/internal/queue"
	"github.com/figurabot/figura/internal/server"
	"github.com/figurabot/figura/internal/telegram"
)

// runServe wires every component and serves until SIGINT/SIGTERM.
func runServe(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer conn.Close()

	catalog := persona.NewCatalog(conn)
	if err := catalog.Seed(ctx); err != nil {
		return err
	}
	if err := catalog.Reload(ctx); err != nil {
		return err
	}
	logging.Infof("Catalog loaded with %d personas", catalog.Len())

	assignments := assignment.NewStore(conn)
	gw := gateway.New(cfg)
	tg := telegram.NewClient(cfg.TelegramToken)
	if cfg.TelegramToken == "" {
		logging.Warnf("TELEGRAM_TOKEN not set; outbound messages will be dropped")
	}

	dispatcher := bot.New(catalog, assignments, gw, tg)

	q := queue.New(dispatcher.HandleUpdate, 0)
	q.Start(ctx)

	// Personas registered via the API or directly in sqlite become
	// visible without a restart.
	refresher := cron.New()
	_, err = refresher.AddFunc("@every 5m", func() {
		if err := catalog.Reload(context.Background()); err != nil {
			logging.Errorf("Catalog refresh failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	refresher.Start()
	defer refresher.Stop()

	srv := server.New(cfg, catalog, q, tg)
	if err := srv.Run(ctx); err != nil {
		return err
	}

	stop()
	q.Wait()
	return nil
}
