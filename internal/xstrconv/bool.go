package xstrconv

import (
	"strconv"
	"strings"
)

// ParseBool accepts the values html checkboxes and confirmation forms send on top of strconv.ParseBool.
func ParseBool(str string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	default:
		return strconv.ParseBool(str)
	}
}
