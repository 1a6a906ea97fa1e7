// Package storage defines the scene library: named scene documents kept
// outside the editor session.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrNotFound is returned by Get for names with no stored scene.
var ErrNotFound = errors.New("scene not found")

// ErrInvalidName is returned for names that cannot be used as library keys.
var ErrInvalidName = errors.New("invalid scene name")

// Library stores encoded scene documents by name.
type Library interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	// List returns stored names in ascending order.
	List(ctx context.Context) ([]string, error)
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ValidateName checks that name is a usable library key.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
