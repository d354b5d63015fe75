// Package env implements `passworder env`: printing a profile's items as
// shell-export or JSON output. It refuses to run without --unsafe, since
// its whole purpose is to put secrets on stdout.
package env

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/joojf/passworder/internal/cmd/cmdutil"
	corevault "github.com/joojf/passworder/internal/vault"
	"github.com/joojf/passworder/internal/vaultcrypto"
	"github.com/joojf/passworder/internal/vaulterr"
	"github.com/joojf/passworder/internal/workflow"
)

// Command returns the `env` command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "env",
		Usage: "Print a profile's items as environment variable assignments",
		Flags: []cli.Flag{
			cmdutil.VaultPathFlag(),
			&cli.StringFlag{Name: "profile", Required: true},
			&cli.StringFlag{Name: "format", Value: "bash", Usage: "bash | json"},
			&cli.BoolFlag{Name: "unsafe", Usage: "required: acknowledges that secrets are printed to stdout"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !cmd.Bool("unsafe") {
				return cmdutil.Fail(vaulterr.Errorf(vaulterr.KindUsage, "env", "`env` prints secrets; re-run with --unsafe to proceed"))
			}
			if os.Getenv("CI") != "" {
				log.Warn("CI detected; secret output may be logged")
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
			}

			switch cmd.String("format") {
			case "bash":
				out, err := workflow.BashExportLines(vars)
				if err != nil {
					return cmdutil.Fail(err)
				}
				fmt.Print(out)
			case "json":
				out, err := workflow.JSONExportLines(vars)
				if err != nil {
					return cmdutil.Fail(err)
				}
				fmt.Println(out)
			default:
				return cmdutil.Fail(vaulterr.Errorf(vaulterr.KindUsage, "env", "unsupported --format %q", cmd.String("format")))
			}
			return nil
		},
	}
}
