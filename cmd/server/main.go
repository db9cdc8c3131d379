package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "iris-api",
		Usage: "Iris classification API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/config.yml",
				Usage:   "Path to the YAML config file (defaults are used if it does not exist)",
				Sources: cli.EnvVars("IRIS_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Override the configured log level (debug, info, warn, error)",
				Sources: cli.EnvVars("IRIS_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			serveCmd(),
			predictCmd(),
			infoCmd(),
		},
		Action: runServe,
	}
}
