package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/guilherme-santos/mirrorcal/internal/config"
)

var WatchCommand = _watchCommand{}

type _watchCommand struct{}

func (_watchCommand) Name() string        { return "watch" }
func (_watchCommand) Description() string { return "Sync on the configured schedule until interrupted" }

func (w _watchCommand) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := newFlagSet(w.Name())
	schedule := fs.String("schedule", cfg.Watch.Schedule, "cron schedule")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sc, closeFn, err := newSyncer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	// A run still in progress when the next tick fires makes that tick a
	// no-op, runs never overlap on the mapping store.
	var running sync.Mutex
	run := func() {
		if !running.TryLock() {
			log.Warn("Previous sync still running, skipping this tick")
			return
		}
		defer running.Unlock()

		res, err := sc.Sync(ctx)
		if err != nil {
			log.WithError(err).Error("Sync failed")
			return
		}
		if res.HasErrors() {
			log.WithField("run", res.RunID).Warnf("%d calendar(s) failed", len(res.Errors))
		}
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, run); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", *schedule, err)
	}

	log.WithField("schedule", *schedule).Info("Watching calendars")
	run()
	c.Start()

	<-ctx.Done()
	log.Info("Stopping, waiting for the current sync to finish")
	<-c.Stop().Done()
	return nil
}
