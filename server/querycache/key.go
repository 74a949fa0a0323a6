package querycache

import (
	"errors"
	"fmt"
	"strings"
)

// Key identifies a cached result set. Keys are compared by value.
type Key struct {
	Kind   string
	ID     string
	Scope  string
	Search string
}

func (k Key) String() string {
	parts := []string{k.Kind}
	if k.ID != "" {
		parts = append(parts, "id="+k.ID)
	}
	if k.Scope != "" {
		parts = append(parts, "scope="+k.Scope)
	}
	if k.Search != "" {
		parts = append(parts, "search="+k.Search)
	}
	return strings.Join(parts, ":")
}

// ParseKey parses the output of Key.String. The search is the last field and may contain colons.
func ParseKey(s string) (Key, error) {
	kind, rest, _ := strings.Cut(s, ":")
	if kind == "" {
		return Key{}, errors.New("key without kind")
	}

	key := Key{Kind: kind}
	for rest != "" {
		if search, ok := strings.CutPrefix(rest, "search="); ok {
			key.Search = search
			break
		}

		var part string
		part, rest, _ = strings.Cut(rest, ":")
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return Key{}, fmt.Errorf("invalid key field %q", part)
		}
		switch name {
		case "id":
			key.ID = value
		case "scope":
			key.Scope = value
		default:
			return Key{}, fmt.Errorf("unknown key field %q", name)
		}
	}
	return key, nil
}

// Matches reports whether k matches pattern. Empty pattern fields match any value.
func (k Key) Matches(pattern Key) bool {
	return match(pattern.Kind, k.Kind) &&
		match(pattern.ID, k.ID) &&
		match(pattern.Scope, k.Scope) &&
		match(pattern.Search, k.Search)
}

func match(pattern string, value string) bool {
	return pattern == "" || pattern == value
}

func matchesAny(key Key, patterns []Key) bool {
	for _, pattern := range patterns {
		if key.Matches(pattern) {
			return true
		}
	}
	return false
}
