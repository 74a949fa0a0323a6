package omit

import (
	"encoding/json"
)

// Omit is an optional value. Fields tagged with `json:",omitzero"` are left out of the payload when unset,
// which is how partial updates are expressed.
type Omit[T any] struct {
	Value T
	OK    bool
}

func New[T any](value T) Omit[T] {
	return Omit[T]{
		Value: value,
		OK:    true,
	}
}

func NewZero[T any]() Omit[T] {
	return Omit[T]{}
}

// NewIf sets the value only if ok is true.
func NewIf[T any](value T, ok bool) Omit[T] {
	if !ok {
		return NewZero[T]()
	}
	return New(value)
}

func (o Omit[T]) IsZero() bool {
	return !o.OK
}

func (o Omit[T]) Or(fallback T) T {
	if !o.OK {
		return fallback
	}
	return o.Value
}

func (o Omit[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}

func (o *Omit[T]) UnmarshalJSON(data []byte) error {
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	o.Value = value
	o.OK = true

	return nil
}
