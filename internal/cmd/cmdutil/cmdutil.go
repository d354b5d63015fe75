// Package cmdutil holds the bits of wiring every passworder subcommand
// needs: the --vault path flag, master-password prompting, and uniform
// error logging on the way out of an Action.
package cmdutil

import (
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/joojf/passworder/internal/prompt"
	"github.com/joojf/passworder/internal/vault"
)

// VaultPathFlagName is the flag name every subcommand registers for the
// vault file override.
const VaultPathFlagName = "vault"

// VaultPathFlag is the --vault flag shared by every subcommand that touches
// a vault file. Its value falls back through internal/config's own
// PASSWORDER_VAULT / platform-default resolution when unset.
func VaultPathFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  VaultPathFlagName,
		Usage: "path to the vault file (overrides PASSWORDER_VAULT and the default location)",
	}
}

// ResolveVaultPath resolves the effective vault path for cmd.
func ResolveVaultPath(cmd *cli.Command) (string, error) {
	return vault.Path(cmd.String(VaultPathFlagName))
}

// PromptExisting reads the master password of an already-initialised
// vault.
func PromptExisting() ([]byte, error) {
	return prompt.MasterPassword()
}

// PromptNew reads and confirms a new master password, for init.
func PromptNew() ([]byte, error) {
	return prompt.NewMasterPassword()
}

// Fail logs err and returns it unchanged. Actions call this at every
// return point so main can map the returned error's vaulterr.Kind to a
// process exit code once, after app.Run returns, instead of every Action
// computing and calling os.Exit itself.
func Fail(err error) error {
	if err == nil {
		return nil
	}
	log.Error(err.Error())
	return err
}
