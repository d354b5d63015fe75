// Package workflow turns vault items into developer-workflow artifacts:
// an environment map scoped to a profile, shell-export lines, a JSON
// export blob, and rendered templates with ${NAME} placeholders.
package workflow

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/joojf/passworder/internal/item"
	"github.com/joojf/passworder/internal/vaulterr"
	"github.com/joojf/passworder/internal/vaultio"
)

// EnvVarsForProfile collects the items whose Path equals profile exactly
// and maps each to name -> secret. When two items in the profile share a
// name, the one that sorts last under item.Sort wins, since items are
// walked in that order.
func EnvVarsForProfile(items []item.Item, profile string) map[string]string {
	sorted := append([]item.Item(nil), items...)
	item.Sort(sorted)

	vars := make(map[string]string)
	for _, it := range sorted {
		if it.Path != profile {
			continue
		}
		vars[it.Name] = it.Secret
	}
	return vars
}

// sortedNames returns vars' keys in ascending order, so output is
// deterministic regardless of map iteration order.
func sortedNames(vars map[string]string) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsValidEnvVarName reports whether s matches [_A-Z][_A-Z0-9]*.
func IsValidEnvVarName(s string) bool {
	if s == "" {
		return false
	}
	first := s[0]
	if !(first == '_' || (first >= 'A' && first <= 'Z')) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c == '_' || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}

// BashExportLines emits one `export NAME='VALUE'` line per variable, in
// ascending name order, with single quotes escaped so the result rebinds
// NAME to exactly its value under a POSIX shell.
func BashExportLines(vars map[string]string) (string, error) {
	var out strings.Builder
	for _, name := range sortedNames(vars) {
		if !IsValidEnvVarName(name) {
			return "", vaulterr.Errorf(vaulterr.KindUsage, "workflow", "invalid environment variable name: %s", name)
		}
		out.WriteString("export ")
		out.WriteString(name)
		out.WriteByte('=')
		out.WriteString(bashSingleQuote(vars[name]))
		out.WriteByte('\n')
	}
	return out.String(), nil
}

func bashSingleQuote(s string) string {
	if s == "" {
		return "''"
	}
	var out strings.Builder
	out.Grow(len(s) + 2)
	out.WriteByte('\'')
	for _, r := range s {
		if r == '\'' {
			out.WriteString(`'\''`)
		} else {
			out.WriteRune(r)
		}
	}
	out.WriteByte('\'')
	return out.String()
}

// JSONExportLines renders vars as a single JSON object.
func JSONExportLines(vars map[string]string) (string, error) {
	b, err := json.Marshal(vars)
	if err != nil {
		return "", vaulterr.New(vaulterr.KindSoftware, "workflow", err)
	}
	return string(b), nil
}

// RenderTemplate replaces every ${NAME} in template with vars[NAME]. A `$`
// not followed by `{` is passed through literally. An unclosed `${` or a
// reference to a name absent from vars is an error; no partial output is
// produced on error.
func RenderTemplate(template string, vars map[string]string) (string, error) {
	var out strings.Builder
	out.Grow(len(template))

	i := 0
	for i < len(template) {
		if template[i] == '$' && i+1 < len(template) && template[i+1] == '{' {
			start := i + 2
			end := strings.IndexByte(template[start:], '}')
			if end < 0 {
				return "", vaulterr.New(vaulterr.KindUsage, "workflow", vaulterr.ErrUnterminatedPlaceholder)
			}
			name := template[start : start+end]
			if !IsValidEnvVarName(name) {
				return "", vaulterr.Errorf(vaulterr.KindUsage, "workflow", "invalid environment variable name: %s", name)
			}
			value, ok := vars[name]
			if !ok {
				return "", vaulterr.Errorf(vaulterr.KindUsage, "workflow", "template references unknown variable: %s", name)
			}
			out.WriteString(value)
			i = start + end + 1
			continue
		}
		out.WriteByte(template[i])
		i++
	}
	return out.String(), nil
}

// WriteSensitiveFileAtomic writes rendered output to path using the same
// atomic-write-plus-restrictive-permissions discipline as vault writes.
// The caller is assumed to already hold whatever lock, if any, applies to
// path, so the unlocked variant is used.
func WriteSensitiveFileAtomic(path string, contents []byte) error {
	return vaultio.WriteBytesAtomicUnlocked(path, contents)
}
