package vault

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/joojf/passworder/internal/cmd/cmdutil"
	corevault "github.com/joojf/passworder/internal/vault"
	"github.com/joojf/passworder/internal/vaultcrypto"
)

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create a new, empty vault",
		Flags: []cli.Flag{cmdutil.VaultPathFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := cmdutil.ResolveVaultPath(cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}

			password, err := cmdutil.PromptNew()
			if err != nil {
				return cmdutil.Fail(err)
			}
			defer vaultcrypto.Zeroize(password)

			if err := corevault.Init(path, password); err != nil {
				return cmdutil.Fail(err)
			}

			log.Info("vault initialized", "path", path)
			return nil
		},
	}
}
