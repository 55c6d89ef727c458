package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/guilherme-santos/mirrorcal/calendar/google"
	"github.com/guilherme-santos/mirrorcal/internal/config"
)

var ConfigureCommand = _configureCommand{}

type _configureCommand struct{}

func (_configureCommand) Name() string        { return "configure" }
func (_configureCommand) Description() string { return "Give access to an account" }

func (c _configureCommand) Run(ctx context.Context, cfg *config.Config, args []string) error {
	var accountName, addr string

	fs := newFlagSet(c.Name())
	fs.StringVar(&accountName, "account", cfg.DestinationAccount, "account to authorize")
	fs.StringVar(&addr, "listen", "localhost:8080", "address of the local oauth callback server")
	if err := fs.Parse(args); err != nil {
		return err
	}

	acc, ok := cfg.Account(accountName)
	if !ok {
		return fmt.Errorf("account %q is not declared in the configuration", accountName)
	}

	client, err := newGoogleClient(cfg)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	w := flag.CommandLine.Output()
	tok, err := client.Login(ctx, addr, func(authURL string) {
		fmt.Fprintf(w, "Go to the following link in your browser\n%s\n", authURL)
	})
	if err != nil {
		return fmt.Errorf("google: logging in: %w", err)
	}

	fmt.Fprintf(w, "Saving token of account %q to %s...\n", acc.Name, acc.TokenFile)
	if err := google.SaveToken(acc.TokenFile, tok); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}
