package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/time/rate"

	"github.com/guilherme-santos/mirrorcal/calendar"
	"github.com/guilherme-santos/mirrorcal/calendar/google"
	"github.com/guilherme-santos/mirrorcal/internal/config"
	"github.com/guilherme-santos/mirrorcal/internal/mapping"
	"github.com/guilherme-santos/mirrorcal/internal/sqlite"
	"github.com/guilherme-santos/mirrorcal/internal/syncer"
)

// errSyncFailed is returned once the failures were already reported.
var errSyncFailed = errors.New("sync finished with errors")

type Strings []string

func (i *Strings) String() string {
	return strings.Join(*i, ", ")
}

func (i *Strings) Set(value string) error {
	*i = append(*i, value)
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "Usage of %s %s:\n", os.Args[0], fs.Name())
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
	}
	return fs
}

func newGoogleClient(cfg *config.Config) (*google.Client, error) {
	credFile, err := os.ReadFile(cfg.Google.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}
	return google.NewClient(credFile)
}

// newMux registers one rate limited, retrying gateway per configured
// account.
func newMux(ctx context.Context, cfg *config.Config) (*calendar.Mux, error) {
	client, err := newGoogleClient(cfg)
	if err != nil {
		return nil, err
	}

	mux := calendar.NewMux()
	for _, acc := range cfg.Accounts {
		tok, err := google.LoadToken(acc.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w (run configure -account %s)", acc.Name, err, acc.Name)
		}
		gw, err := client.Gateway(ctx, tok)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", acc.Name, err)
		}

		var limiter *rate.Limiter
		if rps := cfg.Sync.RequestsPerSecond; rps > 0 {
			limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
		}
		mux.Register(acc.Name, calendar.WithRetry(gw, cfg.RetryPolicy(), limiter))
	}
	return mux, nil
}

// newSyncer wires the syncer. The returned function closes the database.
func newSyncer(ctx context.Context, cfg *config.Config) (*syncer.Syncer, func() error, error) {
	storage, err := sqlite.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	mux, err := newMux(ctx, cfg)
	if err != nil {
		storage.Close()
		return nil, nil, err
	}
	return syncer.New(mux, mapping.NewStore(storage), cfg.Syncer()), storage.Close, nil
}
