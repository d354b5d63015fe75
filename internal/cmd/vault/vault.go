// Package vault assembles the `passworder vault` command group: init,
// status, path, add, get, list, search, edit, and rm.
package vault

import (
	"github.com/urfave/cli/v3"
)

// Command returns the `vault` command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "vault",
		Usage: "Manage the encrypted secrets vault",
		Commands: []*cli.Command{
			initCommand(),
			statusCommand(),
			pathCommand(),
			addCommand(),
			getCommand(),
			listCommand(),
			searchCommand(),
			editCommand(),
			rmCommand(),
		},
	}
}
