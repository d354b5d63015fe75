// Package run implements `passworder run`: execute a child process with a
// profile's items injected into its environment alongside the caller's own.
package run

import (
	"context"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/joojf/passworder/internal/cmd/cmdutil"
	corevault "github.com/joojf/passworder/internal/vault"
	"github.com/joojf/passworder/internal/vaultcrypto"
	"github.com/joojf/passworder/internal/vaulterr"
	"github.com/joojf/passworder/internal/workflow"
)

// Command returns the `run` command.
func Command() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a command with a profile's items injected into its environment",
		ArgsUsage: "-- <command> [args...]",
		Flags: []cli.Flag{
			cmdutil.VaultPathFlag(),
			&cli.StringFlag{Name: "profile", Required: true},
			&cli.BoolFlag{Name: "unsafe", Usage: "required to run in CI, where env may be logged"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if os.Getenv("CI") != "" && !cmd.Bool("unsafe") {
				return cmdutil.Fail(vaulterr.Errorf(vaulterr.KindUsage, "run", "refusing to run in CI without --unsafe (env may be logged)"))
			}

			path, err := cmdutil.ResolveVaultPath(cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			password, err := cmdutil.PromptExisting()
			if err != nil {
				return cmdutil.Fail(err)
			}
			defer vaultcrypto.Zeroize(password)

			items, err := corevault.List(path, password)
			if err != nil {
				return cmdutil.Fail(err)
			}

			profile := cmd.String("profile")
			vars := workflow.EnvVarsForProfile(items, profile)
			if len(vars) == 0 {
				log.Warn("profile has no items", "profile", profile)
			} else {
				log.Warn("injecting env vars into child process", "count", len(vars))
			}

			argv := cmd.Args().Slice()
			if len(argv) == 0 {
				return cmdutil.Fail(vaulterr.Errorf(vaulterr.KindUsage, "run", "missing command to run (use --)"))
			}

			child := exec.CommandContext(ctx, argv[0], argv[1:]...)
			child.Env = os.Environ()
			for name, value := range vars {
				child.Env = append(child.Env, name+"="+value)
			}
			child.Stdin = os.Stdin
			child.Stdout = os.Stdout
			child.Stderr = os.Stderr

			if err := child.Run(); err != nil {
				if exitErr, ok := err.(*exec.ExitError); ok {
					os.Exit(exitErr.ExitCode())
				}
				return cmdutil.Fail(vaulterr.New(vaulterr.KindIO, "run", err))
			}
			return nil
		},
	}
}
