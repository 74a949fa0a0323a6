package xquery

import (
	"net/url"
	"strings"

	"github.com/meetandfeat/web/internal/xstrconv"
)

func ParseBool(query url.Values, name string, defaultValue bool) bool {
	value := query.Get(name)
	if value == "" {
		return defaultValue
	}

	parsed, err := xstrconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func ParseString(query url.Values, name string, defaultValue string) string {
	value := strings.TrimSpace(query.Get(name))
	if value == "" {
		return defaultValue
	}
	return value
}

// ParseOneOf returns the value of name if it is one of allowed, otherwise defaultValue.
func ParseOneOf(query url.Values, name string, defaultValue string, allowed ...string) string {
	value := strings.ToLower(strings.TrimSpace(query.Get(name)))
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return defaultValue
}
