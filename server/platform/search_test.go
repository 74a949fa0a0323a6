package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/meetandfeat/web/internal/xtime"
)

func TestFilterEvents(t *testing.T) {
	events := []Event{
		{ID: "1", Title: "Chess Night", Description: "Bring a board"},
		{ID: "2", Title: "Robotics", Description: "Build a chess robot"},
		{ID: "3", Title: "Football"},
	}

	assert.Equal(t, events, FilterEvents(events, ""))
	assert.Equal(t, events, FilterEvents(events, "   "))

	filtered := FilterEvents(events, "CHESS")
	assert.Len(t, filtered, 2)
	assert.Equal(t, ID("1"), filtered[0].ID)
	assert.Equal(t, ID("2"), filtered[1].ID)

	assert.Empty(t, FilterEvents(events, "swimming"))
}

func TestFilterClubs(t *testing.T) {
	clubs := []Club{
		{ID: "1", Name: "Chess Club"},
		{ID: "2", Name: "Drama", Description: "Stage and screen"},
	}

	assert.Equal(t, clubs, FilterClubs(clubs, ""))
	assert.Equal(t, []Club{clubs[1]}, FilterClubs(clubs, "screen"))
}

func TestSortEventsByDate(t *testing.T) {
	day := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{ID: "late", Datetime: xtime.NewDateTime(day.Add(2 * time.Hour))},
		{ID: "early", Datetime: xtime.NewDateTime(day)},
	}

	sorted := SortEventsByDate(events)
	assert.Equal(t, ID("early"), sorted[0].ID)
	assert.Equal(t, ID("late"), events[0].ID)
}

func TestEventsBetween(t *testing.T) {
	day := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	events := []Event{
		{ID: "past", Datetime: xtime.NewDateTime(day.AddDate(0, 0, -1))},
		{ID: "future", Datetime: xtime.NewDateTime(day.AddDate(0, 0, 1))},
	}

	upcoming := EventsBetween(events, day, time.Time{})
	assert.Len(t, upcoming, 1)
	assert.Equal(t, ID("future"), upcoming[0].ID)
	assert.Len(t, EventsBetween(events, time.Time{}, time.Time{}), 2)
}
