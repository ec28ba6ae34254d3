package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnexpectedShape is returned when a list body is neither an array nor a known wrapper
var ErrUnexpectedShape = errors.New("unexpected list shape")

// listKeys are the wrapper keys a list body may nest its array under, in lookup order
var listKeys = []string{"data", "items", "collectors", "users", "tasks", "submissions"}

// Shape records how a list body was encoded
type Shape interface {
	shape()
}

// ShapeArray is a bare JSON array
type ShapeArray struct{}

// ShapeWrapped is an object holding the array under Key
type ShapeWrapped struct {
	Key string
}

// ShapeEmpty is null or an empty object
type ShapeEmpty struct{}

func (ShapeArray) shape()   {}
func (ShapeWrapped) shape() {}
func (ShapeEmpty) shape()   {}

// ListResult is a normalized list. Items is never nil.
type ListResult[T any] struct {
	Items []T
	Shape Shape
}

// NormalizeList decodes a list body that may be a bare array or an object
// wrapping the array under one of the known keys.
func NormalizeList[T any](body []byte) (ListResult[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ListResult[T]{Items: []T{}, Shape: ShapeEmpty{}}, nil
	}

	switch trimmed[0] {
	case '[':
		items, err := decodeItems[T](trimmed)
		if err != nil {
			return ListResult[T]{}, err
		}
		return ListResult[T]{Items: items, Shape: ShapeArray{}}, nil

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return ListResult[T]{}, fmt.Errorf("failed to decode list object: %w", err)
		}
		if len(obj) == 0 {
			return ListResult[T]{Items: []T{}, Shape: ShapeEmpty{}}, nil
		}
		for _, key := range listKeys {
			raw, ok := obj[key]
			if !ok {
				continue
			}
			raw = bytes.TrimSpace(raw)
			if bytes.Equal(raw, []byte("null")) {
				return ListResult[T]{Items: []T{}, Shape: ShapeWrapped{Key: key}}, nil
			}
			if len(raw) == 0 || raw[0] != '[' {
				return ListResult[T]{}, fmt.Errorf("%w: %q is not an array", ErrUnexpectedShape, key)
			}
			items, err := decodeItems[T](raw)
			if err != nil {
				return ListResult[T]{}, err
			}
			return ListResult[T]{Items: items, Shape: ShapeWrapped{Key: key}}, nil
		}
		return ListResult[T]{}, fmt.Errorf("%w: object has no list key", ErrUnexpectedShape)
	}

	return ListResult[T]{}, fmt.Errorf("%w: %s", ErrUnexpectedShape, kindOf(trimmed[0]))
}

func decodeItems[T any](raw []byte) ([]T, error) {
	items := []T{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode list items: %w", err)
	}
	return items, nil
}

func kindOf(b byte) string {
	switch {
	case b == '"':
		return "string"
	case b == 't' || b == 'f':
		return "boolean"
	default:
		return "number"
	}
}
