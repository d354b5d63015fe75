package vault

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/joojf/passworder/internal/cmd/cmdutil"
	"github.com/joojf/passworder/internal/item"
	"github.com/joojf/passworder/internal/prompt"
	corevault "github.com/joojf/passworder/internal/vault"
	"github.com/joojf/passworder/internal/vaultcrypto"
	"github.com/joojf/passworder/internal/vaulterr"
)

// viewItem is the JSON shape printed to stdout for get/list/search. The
// secret is redacted unless the caller passed --reveal.
type viewItem struct {
	ID             uuid.UUID `json:"id"`
	Type           item.Type `json:"type"`
	Name           string    `json:"name"`
	Path           string    `json:"path,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
	Username       string    `json:"username,omitempty"`
	Secret         string    `json:"secret,omitempty"`
	SecretRedacted bool      `json:"secret_redacted"`
	URLs           []string  `json:"urls,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      int64     `json:"created_at"`
	UpdatedAt      int64     `json:"updated_at"`
}

func toView(it item.Item, reveal bool) viewItem {
	v := viewItem{
		ID:             it.ID,
		Type:           it.Type,
		Name:           it.Name,
		Path:           it.Path,
		Tags:           it.Tags,
		Username:       it.Username,
		URLs:           it.URLs,
		Notes:          it.Notes,
		CreatedAt:      it.CreatedAt,
		UpdatedAt:      it.UpdatedAt,
		SecretRedacted: !reveal,
	}
	if reveal {
		v.Secret = it.Secret
	}
	return v
}

func printItems(items []item.Item, reveal bool) error {
	views := make([]viewItem, len(items))
	for i, it := range items {
		views[i] = toView(it, reveal)
	}
	out, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a new item to the vault",
		Flags: []cli.Flag{
			cmdutil.VaultPathFlag(),
			&cli.StringFlag{Name: "type", Required: true, Usage: "login | secure-note | api-token"},
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "item-path", Usage: "profile the item belongs to"},
			&cli.StringSliceFlag{Name: "tag"},
			&cli.StringFlag{Name: "username"},
			&cli.StringFlag{Name: "secret", Usage: "omit to be prompted interactively"},
			&cli.StringSliceFlag{Name: "url"},
			&cli.StringFlag{Name: "notes"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			itemType := item.Type(cmd.String("type"))
			if !itemType.Valid() {
				return cmdutil.Fail(vaulterr.Errorf(vaulterr.KindUsage, "vault add", "invalid item type %q", itemType))
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

			secret := cmd.String("secret")
			if secret == "" {
				secret, err = prompt.Secret("Secret: ")
				if err != nil {
					return cmdutil.Fail(err)
				}
			}

			id, err := corevault.Add(path, password, corevault.AddInput{
				Type:     itemType,
				Name:     cmd.String("name"),
				Path:     cmd.String("item-path"),
				Tags:     cmd.StringSlice("tag"),
				Username: cmd.String("username"),
				Secret:   secret,
				URLs:     cmd.StringSlice("url"),
				Notes:    cmd.String("notes"),
			})
			if err != nil {
				return cmdutil.Fail(err)
			}

			fmt.Println(id.String())
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:  "get",
		Usage: "Print a single item by id",
		Flags: []cli.Flag{
			cmdutil.VaultPathFlag(),
			&cli.StringFlag{Name: "id", Required: true},
			&cli.BoolFlag{Name: "reveal", Usage: "include the plaintext secret in the output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := uuid.Parse(cmd.String("id"))
			if err != nil {
				return cmdutil.Fail(vaulterr.Errorf(vaulterr.KindUsage, "vault", "invalid id %q: %v", cmd.String("id"), err))
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

			it, err := corevault.Get(path, password, id)
			if err != nil {
				return cmdutil.Fail(err)
			}
			return printItems([]item.Item{it}, cmd.Bool("reveal"))
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List every item in the vault",
		Flags: []cli.Flag{
			cmdutil.VaultPathFlag(),
			&cli.BoolFlag{Name: "reveal", Usage: "include plaintext secrets in the output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
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
			return printItems(items, cmd.Bool("reveal"))
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search items by substring match",
		Flags: []cli.Flag{
			cmdutil.VaultPathFlag(),
			&cli.StringFlag{Name: "query", Required: true},
			&cli.BoolFlag{Name: "reveal", Usage: "include plaintext secrets in the output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := cmdutil.ResolveVaultPath(cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			password, err := cmdutil.PromptExisting()
			if err != nil {
				return cmdutil.Fail(err)
			}
			defer vaultcrypto.Zeroize(password)

			items, err := corevault.Search(path, password, cmd.String("query"))
			if err != nil {
				return cmdutil.Fail(err)
			}
			return printItems(items, cmd.Bool("reveal"))
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:  "edit",
		Usage: "Mutate fields of an existing item",
		Flags: []cli.Flag{
			cmdutil.VaultPathFlag(),
			&cli.StringFlag{Name: "id", Required: true},
			&cli.StringFlag{Name: "type"},
			&cli.StringFlag{Name: "name"},
			&cli.StringFlag{Name: "secret"},
			&cli.StringFlag{Name: "item-path"},
			&cli.BoolFlag{Name: "clear-item-path"},
			&cli.StringSliceFlag{Name: "tag"},
			&cli.BoolFlag{Name: "clear-tags"},
			&cli.StringFlag{Name: "username"},
			&cli.BoolFlag{Name: "clear-username"},
			&cli.StringSliceFlag{Name: "url"},
			&cli.BoolFlag{Name: "clear-urls"},
			&cli.StringFlag{Name: "notes"},
			&cli.BoolFlag{Name: "clear-notes"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := uuid.Parse(cmd.String("id"))
			if err != nil {
				return cmdutil.Fail(vaulterr.Errorf(vaulterr.KindUsage, "vault", "invalid id %q: %v", cmd.String("id"), err))
			}

			in := corevault.EditInput{ID: id}
			if cmd.IsSet("type") {
				t := item.Type(cmd.String("type"))
				if !t.Valid() {
					return cmdutil.Fail(vaulterr.Errorf(vaulterr.KindUsage, "vault edit", "invalid item type %q", t))
				}
				in.Type = &t
			}
			if cmd.IsSet("name") {
				v := cmd.String("name")
				in.Name = &v
			}
			if cmd.IsSet("secret") {
				v := cmd.String("secret")
				in.Secret = &v
			}
			if cmd.IsSet("item-path") {
				v := cmd.String("item-path")
				in.Path = &v
			}
			in.ClearPath = cmd.Bool("clear-item-path")
			if cmd.IsSet("tag") {
				v := cmd.StringSlice("tag")
				in.Tags = &v
			}
			in.ClearTags = cmd.Bool("clear-tags")
			if cmd.IsSet("username") {
				v := cmd.String("username")
				in.Username = &v
			}
			in.ClearUsername = cmd.Bool("clear-username")
			if cmd.IsSet("url") {
				v := cmd.StringSlice("url")
				in.URLs = &v
			}
			in.ClearURLs = cmd.Bool("clear-urls")
			if cmd.IsSet("notes") {
				v := cmd.String("notes")
				in.Notes = &v
			}
			in.ClearNotes = cmd.Bool("clear-notes")

			path, err := cmdutil.ResolveVaultPath(cmd)
			if err != nil {
				return cmdutil.Fail(err)
			}
			password, err := cmdutil.PromptExisting()
			if err != nil {
				return cmdutil.Fail(err)
			}
			defer vaultcrypto.Zeroize(password)

			if err := corevault.Edit(path, password, in); err != nil {
				return cmdutil.Fail(err)
			}
			return nil
		},
	}
}

func rmCommand() *cli.Command {
	return &cli.Command{
		Name:  "rm",
		Usage: "Remove an item by id",
		Flags: []cli.Flag{
			cmdutil.VaultPathFlag(),
			&cli.StringFlag{Name: "id", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id, err := uuid.Parse(cmd.String("id"))
			if err != nil {
				return cmdutil.Fail(vaulterr.Errorf(vaulterr.KindUsage, "vault", "invalid id %q: %v", cmd.String("id"), err))
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

			if err := corevault.Remove(path, password, id); err != nil {
				return cmdutil.Fail(err)
			}
			return nil
		},
	}
}
