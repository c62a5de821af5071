package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/happyrobot-antonio/rechazos/internal/client"
	"github.com/happyrobot-antonio/rechazos/internal/shared/config"
	"github.com/happyrobot-antonio/rechazos/internal/store"
)

func cmdWatch() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "follow the case list and log changes as they land",
		Action: func(ctx context.Context, c *cli.Command) error {
			return runWatch(ctx)
		},
	}
}

func runWatch(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.Client)
	st := store.New(api)

	if err := st.Refresh(ctx); err != nil {
		return fmt.Errorf("initial refresh: %w", err)
	}
	logWatchState(ctx, api, st)

	go st.Poll(ctx, cfg.Ingest.PollInterval)

	lastRev := st.Revision()
	ticker := time.NewTicker(cfg.Ingest.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if rev := st.Revision(); rev != lastRev {
				lastRev = rev
				logWatchState(ctx, api, st)
			}
		}
	}
}

func logWatchState(ctx context.Context, api *client.Client, st *store.Store) {
	entry := logrus.WithField("cases", st.Len())

	if stats, err := api.Stats(ctx); err == nil {
		entry = entry.WithFields(logrus.Fields{
			"inProgress":    stats.InProgress,
			"pendingAction": stats.PendingAction,
		})
	}
	entry.Info("case list updated")
}
