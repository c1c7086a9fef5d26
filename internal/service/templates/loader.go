// Package templates fetches and renders the HTML email templates.
package templates

import (
	"context"
	"errors"
)

// Template errors
var (
	ErrNotFound    = errors.New("template not found")
	ErrUnavailable = errors.New("template source unavailable")
)

// Loader fetches a template's raw HTML by name.
type Loader interface {
	Load(ctx context.Context, name string) (string, error)
}

// MapLoader serves templates from memory.
type MapLoader map[string]string

func (m MapLoader) Load(_ context.Context, name string) (string, error) {
	body, ok := m[name]
	if !ok {
		return "", ErrNotFound
	}
	return body, nil
}
