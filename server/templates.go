package server

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/meetandfeat/web/internal/xtime"
)

var templateFuncs = template.FuncMap{
	"formatDate":     formatDate,
	"formatTime":     formatTime,
	"formatDateTime": formatDateTime,
	"percent":        percent,
	"remaining":      remaining,
	"initials":       initials,
	"plural":         plural,
	"dict":           dict,
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(xtime.Location).Format("Mon, 2 Jan 2006")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(xtime.Location).Format("15:04")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(xtime.Location).Format("Mon, 2 Jan 2006 15:04")
}

// percent returns how much of limit is used, capped to 100.
func percent(cur int, limit int) int {
	if limit <= 0 {
		return 100
	}
	p := cur * 100 / limit
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

func remaining(cur int, limit int) int {
	return max(limit-cur, 0)
}

func initials(name string) string {
	var letters []rune
	for _, part := range strings.Fields(name) {
		letters = append(letters, []rune(strings.ToUpper(part))[0])
		if len(letters) == 2 {
			break
		}
	}
	return string(letters)
}

func plural(n int, singular string, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

func dict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("dict expects an even number of arguments, got %d", len(values))
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %d is %T, not a string", i/2, values[i])
		}
		m[key] = values[i+1]
	}
	return m, nil
}
