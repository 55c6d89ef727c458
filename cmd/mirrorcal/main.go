package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/guilherme-santos/mirrorcal/internal/config"
)

type command interface {
	Name() string
	Description() string
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

var commands = []command{
	SyncCommand,
	WatchCommand,
	ResetCommand,
	PurgeCommand,
	ConfigureCommand,
}

var flags struct {
	ConfigFile string
	Verbose    bool
	LogJSON    bool
}

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "configuration file (default $"+config.EnvConfig+" or "+config.DefaultPath+")")
	flag.BoolVar(&flags.Verbose, "verbose", false, "enable debug logs")
	flag.BoolVar(&flags.LogJSON, "log-json", false, "log as JSON")

	flag.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "Usage of %s [options] <command>:\n", os.Args[0])
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Commands:")
		for _, cmd := range commands {
			fmt.Fprintf(w, "  %-10s %s\n", cmd.Name(), cmd.Description())
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	setupLogger(flags.Verbose, flags.LogJSON)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd := findCommand(flag.Arg(0))
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config.LoadEnv()
	cfg, err := config.Load(config.Path(flags.ConfigFile))
	if err != nil {
		log.WithError(err).Fatal("Unable to load configuration")
	}

	if err := cmd.Run(ctx, cfg, flag.Args()[1:]); err != nil {
		if !errors.Is(err, errSyncFailed) {
			log.WithError(err).Errorf("%s failed", cmd.Name())
		}
		os.Exit(1)
	}
}

func findCommand(name string) command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func setupLogger(verbose, asJSON bool) {
	log.SetOutput(os.Stderr)
	if asJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
}
