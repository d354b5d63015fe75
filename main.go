package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/joojf/passworder/internal/cmd/env"
	"github.com/joojf/passworder/internal/cmd/inject"
	"github.com/joojf/passworder/internal/cmd/run"
	"github.com/joojf/passworder/internal/cmd/vault"
	"github.com/joojf/passworder/internal/vaulterr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "passworder",
		Usage: "A local, encrypted secrets vault for developers",
		Commands: []*cli.Command{
			vault.Command(),
			env.Command(),
			run.Command(),
			inject.Command(),
		},
	}
	if err := app.Run(ctx, os.Args); err != nil {
		os.Exit(vaulterr.ExitCode(err))
	}
}
