package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

// @title        Cartas API
// @version      1.0
// @description  Shared letters between two people. Sessions travel in an HTTP-only cookie.
// @BasePath     /
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("application failed")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "cartas",
		Usage: "Letters service for two",
		Commands: []*cli.Command{
			serveCmd(),
			hashPasswordCmd(),
		},
	}
}
