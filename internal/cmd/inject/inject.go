// Package inject implements `passworder inject`: render a template file's
// ${NAME} placeholders against a profile's items and write the result out
// atomically.
package inject

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/joojf/passworder/internal/cmd/cmdutil"
	corevault "github.com/joojf/passworder/internal/vault"
	"github.com/joojf/passworder/internal/vaultcrypto"
	"github.com/joojf/passworder/internal/vaulterr"
	"github.com/joojf/passworder/internal/workflow"
)

// Command returns the `inject` command.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "inject",
		Usage: "Render a template's ${NAME} placeholders and write the result out",
		Flags: []cli.Flag{
			cmdutil.VaultPathFlag(),
			&cli.StringFlag{Name: "profile", Required: true},
			&cli.StringFlag{Name: "in", Required: true, Usage: "template input path"},
			&cli.StringFlag{Name: "out", Required: true, Usage: "rendered output path"},
			&cli.BoolFlag{Name: "force", Usage: "overwrite the output file if it already exists"},
			&cli.BoolFlag{Name: "unsafe", Usage: "required: acknowledges that secrets are written to disk"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !cmd.Bool("unsafe") {
				return cmdutil.Fail(vaulterr.Errorf(vaulterr.KindUsage, "inject", "`inject` writes secrets to disk; re-run with --unsafe to proceed"))
			}
			if os.Getenv("CI") != "" {
				log.Warn("CI detected; written secrets may be logged or cached")
			}

			outPath := cmd.String("out")
			if _, err := os.Stat(outPath); err == nil && !cmd.Bool("force") {
				return cmdutil.Fail(vaulterr.Errorf(vaulterr.KindUsage, "inject", "output file already exists (pass --force to overwrite): %s", outPath))
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

			template, err := os.ReadFile(cmd.String("in"))
			if err != nil {
				return cmdutil.Fail(vaulterr.New(vaulterr.KindIO, "inject", err))
			}

			rendered, err := workflow.RenderTemplate(string(template), vars)
			if err != nil {
				return cmdutil.Fail(err)
			}

			if err := workflow.WriteSensitiveFileAtomic(outPath, []byte(rendered)); err != nil {
				return cmdutil.Fail(err)
			}

			log.Info("rendered template", "path", outPath)
			return nil
		},
	}
}
