package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/guilherme-santos/mirrorcal/internal/config"
	"github.com/guilherme-santos/mirrorcal/internal/syncer"
)

var SyncCommand = _syncCommand{}

type _syncCommand struct{}

func (_syncCommand) Name() string        { return "sync" }
func (_syncCommand) Description() string { return "Mirror every enabled calendar once" }

func (s _syncCommand) Run(ctx context.Context, cfg *config.Config, args []string) error {
	var calIDs Strings

	fs := newFlagSet(s.Name())
	fs.Var(&calIDs, "calendar-id", "calendar-id to be synced, can be repeated")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sc, closeFn, err := newSyncer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := sc.Sync(ctx, calIDs...)
	if err != nil {
		return err
	}
	if err := printResult(res); err != nil {
		return err
	}
	if res.HasErrors() {
		return errSyncFailed
	}
	return nil
}

func printResult(res *syncer.RunResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
