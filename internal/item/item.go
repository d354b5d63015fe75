// Package item defines the vault item model: its JSON schema, field
// normalisation rules, sort order, and search predicate.
package item

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Type is the kind of secret an Item holds.
type Type string

const (
	TypeLogin      Type = "login"
	TypeSecureNote Type = "secure-note"
	TypeAPIToken   Type = "api-token"
)

// Valid reports whether t is one of the known item types.
func (t Type) Valid() bool {
	switch t {
	case TypeLogin, TypeSecureNote, TypeAPIToken:
		return true
	default:
		return false
	}
}

// Item is a single vault entry: a login, secure note, or API token.
type Item struct {
	ID        uuid.UUID `json:"id"`
	Type      Type      `json:"type"`
	Name      string    `json:"name"`
	Path      string    `json:"path,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Username  string    `json:"username,omitempty"`
	Secret    string    `json:"secret"`
	URLs      []string  `json:"urls,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt int64     `json:"created_at"`
	UpdatedAt int64     `json:"updated_at"`
}

// Payload is the decrypted vault contents: a schema version and the item
// set.
type Payload struct {
	SchemaVersion uint32 `json:"schema_version"`
	Items         []Item `json:"items"`
}

// CurrentSchemaVersion is the only payload schema version this build
// understands.
const CurrentSchemaVersion = 1

// NewPayload returns an empty payload at the current schema version.
func NewPayload() Payload {
	return Payload{SchemaVersion: CurrentSchemaVersion, Items: nil}
}

// NormalizeTags trims whitespace, lowercases, deduplicates, and sorts tags.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// NormalizeURLs trims whitespace, deduplicates, and sorts URLs. Case is
// preserved, since URLs (unlike tags) are not free-form labels.
func NormalizeURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// SortKey returns the ordering key for an item: (path-or-empty, name, id).
// Items are re-sorted after every mutation so iteration order is always
// deterministic.
func SortKey(it Item) (string, string, string) {
	return it.Path, it.Name, it.ID.String()
}

// Sort orders items in place by (path, name, id).
func Sort(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		pi, ni, ii := SortKey(items[i])
		pj, nj, ij := SortKey(items[j])
		if pi != pj {
			return pi < pj
		}
		if ni != nj {
			return ni < nj
		}
		return ii < ij
	})
}

// Matches reports whether query is a case-insensitive substring of any of
// the item's name, path, username, tags, URLs, or notes. An empty query
// matches no items.
func (it Item) Matches(query string) bool {
	if query == "" {
		return false
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(it.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(it.Path), q) {
		return true
	}
	if strings.Contains(strings.ToLower(it.Username), q) {
		return true
	}
	if strings.Contains(strings.ToLower(it.Notes), q) {
		return true
	}
	for _, tag := range it.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	for _, u := range it.URLs {
		if strings.Contains(strings.ToLower(u), q) {
			return true
		}
	}
	return false
}

// Search returns the items among items matching query, in sorted order.
func Search(items []Item, query string) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Matches(query) {
			out = append(out, it)
		}
	}
	Sort(out)
	return out
}
