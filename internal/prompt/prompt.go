// Package prompt reads the master password and other secret values from an
// interactive terminal, without echoing them, falling back to a plain line
// read when stdin is not a TTY (e.g. piped input in scripts and tests).
package prompt

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/joojf/passworder/internal/vaulterr"
)

// NewMasterPassword prompts for a master password twice and requires the
// two entries to match, for use during Init.
func NewMasterPassword() ([]byte, error) {
	first, err := readSecretLine("Master password: ")
	if err != nil {
		return nil, err
	}
	if len(first) == 0 {
		return nil, vaulterr.New(vaulterr.KindUsage, "prompt", vaulterr.ErrPromptEmpty)
	}
	confirm, err := readSecretLine("Confirm master password: ")
	if err != nil {
		return nil, err
	}
	if string(first) != string(confirm) {
		return nil, vaulterr.New(vaulterr.KindUsage, "prompt", vaulterr.ErrPromptMismatch)
	}
	return first, nil
}

// MasterPassword prompts once for the master password of an existing vault.
func MasterPassword() ([]byte, error) {
	pw, err := readSecretLine("Master password: ")
	if err != nil {
		return nil, err
	}
	if len(pw) == 0 {
		return nil, vaulterr.New(vaulterr.KindUsage, "prompt", vaulterr.ErrPromptEmpty)
	}
	return pw, nil
}

// Secret prompts once for an arbitrary secret value (e.g. an item's
// secret field) using the given label.
func Secret(label string) (string, error) {
	value, err := readSecretLine(label)
	if err != nil {
		return "", err
	}
	if len(value) == 0 {
		return "", vaulterr.New(vaulterr.KindUsage, "prompt", vaulterr.ErrPromptEmpty)
	}
	return string(value), nil
}

// stdinReader is shared by every non-TTY read so that lines buffered by
// one prompt remain available to the next.
var stdinReader = bufio.NewReader(os.Stdin)

func readSecretLine(label string) ([]byte, error) {
	fmt.Fprint(os.Stderr, label)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		line, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, vaulterr.New(vaulterr.KindIO, "prompt", err)
		}
		return line, nil
	}

	line, err := stdinReader.ReadString('\n')
	if err != nil && line == "" {
		return nil, vaulterr.New(vaulterr.KindIO, "prompt", err)
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}
