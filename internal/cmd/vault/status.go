package vault

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/joojf/passworder/internal/cmd/cmdutil"
	corevault "github.com/joojf/passworder/internal/vault"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Report whether a vault exists and its format version",
		Flags: []cli.Flag{cmdutil.VaultPathFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := cmdutil.ResolveVaultPath(cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}

			status, version, err := corevault.StatusOf(path)
			if err != nil {
				return cmdutil.Fail(err)
			}

			if version != nil {
				fmt.Printf("%s (v%d)\n", status, *version)
			} else {
				fmt.Println(status)
			}
			return nil
		},
	}
}

func pathCommand() *cli.Command {
	return &cli.Command{
		Name:  "path",
		Usage: "Print the resolved vault file path",
		Flags: []cli.Flag{cmdutil.VaultPathFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := cmdutil.ResolveVaultPath(cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			fmt.Println(path)
			return nil
		},
	}
}
