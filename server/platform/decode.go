package platform

import (
	"bytes"
	"encoding/json"
	"fmt"
)

var (
	listKeys = []string{"events", "clubs", "data", "items", "results"}
	itemKeys = []string{"event", "club", "data"}
)

// list decodes either a bare json array or an object wrapping one.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, key := range listKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var items list[T]
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("failed to decode %q: %w", key, err)
		}
		*l = items
		return nil
	}
	return fmt.Errorf("no list found in response")
}

// item decodes either a bare json object or an object wrapping it.
type item[T any] struct {
	Value T
}

func (i *item[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err == nil {
		for _, key := range itemKeys {
			raw, ok := fields[key]
			if !ok || len(raw) == 0 || raw[0] != '{' {
				continue
			}
			return json.Unmarshal(raw, &i.Value)
		}
	}
	return json.Unmarshal(data, &i.Value)
}
