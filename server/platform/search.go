package platform

import (
	"slices"
	"strings"
	"time"

	"github.com/meetandfeat/web/internal/xtime"
)

func matches(query string, fields ...string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// FilterEvents keeps the events whose title or description contains query, ignoring case.
// An empty query keeps every event.
func FilterEvents(events []Event, query string) []Event {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return events
	}

	filtered := make([]Event, 0, len(events))
	for _, event := range events {
		if matches(query, event.Title, event.Description) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// FilterClubs keeps the clubs whose name or description contains query, ignoring case.
// An empty query keeps every club.
func FilterClubs(clubs []Club, query string) []Club {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return clubs
	}

	filtered := make([]Club, 0, len(clubs))
	for _, club := range clubs {
		if matches(query, club.Name, club.Description) {
			filtered = append(filtered, club)
		}
	}
	return filtered
}

// SortEventsByDate returns a copy of events ordered by datetime, earliest first.
func SortEventsByDate(events []Event) []Event {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a Event, b Event) int {
		return a.Datetime.Compare(b.Datetime.Time)
	})
	return sorted
}

// EventsBetween keeps the events happening within start and end. Zero bounds are open.
func EventsBetween(events []Event, start time.Time, end time.Time) []Event {
	filtered := make([]Event, 0, len(events))
	for _, event := range events {
		if xtime.InRange(event.Datetime.Time, start, end) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}
