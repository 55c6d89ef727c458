package main

import (
	"context"
	"fmt"

	"github.com/guilherme-santos/mirrorcal/internal/config"
	"github.com/guilherme-santos/mirrorcal/internal/mapping"
	"github.com/guilherme-santos/mirrorcal/internal/sqlite"
	"github.com/guilherme-santos/mirrorcal/internal/syncer"
)

var (
	ResetCommand = _resetCommand{}
	PurgeCommand = _purgeCommand{}
)

type _resetCommand struct{}

func (_resetCommand) Name() string { return "reset" }
func (_resetCommand) Description() string {
	return "Forget change tokens and mappings, the next sync is a full resync"
}

func (r _resetCommand) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if err := newFlagSet(r.Name()).Parse(args); err != nil {
		return err
	}

	// Reset only touches local state, no gateway is needed.
	storage, err := sqlite.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer storage.Close()

	return syncer.New(nil, mapping.NewStore(storage), cfg.Syncer()).Reset(ctx)
}

type _purgeCommand struct{}

func (_purgeCommand) Name() string { return "purge" }
func (_purgeCommand) Description() string {
	return "Delete every mirrored event from the destination and reset"
}

func (p _purgeCommand) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if err := newFlagSet(p.Name()).Parse(args); err != nil {
		return err
	}

	sc, closeFn, err := newSyncer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	removed, err := sc.Purge(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d mirrored event(s) from %s\n", removed, cfg.DestinationCalendarID)
	return nil
}
