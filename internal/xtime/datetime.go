package xtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// FormLayout is the layout used by datetime-local form inputs.
const FormLayout = "2006-01-02T15:04"

var (
	// Location is used for timestamps that carry no zone, like the ones submitted by datetime-local inputs.
	Location = time.UTC

	dateTimeLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		FormLayout,
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
)

func ParseDateTime(value string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		t, err := time.ParseInLocation(layout, value, Location)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", value)
}

// DateTime is an ISO-8601 timestamp which tolerates the zone-less shapes older clients sent.
type DateTime struct {
	time.Time
}

func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t}
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(time.RFC3339))
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = DateTime{}
		return nil
	}

	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	if value == "" {
		*d = DateTime{}
		return nil
	}

	t, err := ParseDateTime(value)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// FormValue formats the timestamp for a datetime-local input.
func (d DateTime) FormValue() string {
	if d.IsZero() {
		return ""
	}
	return d.In(Location).Format(FormLayout)
}
