// Package scope runs work against a resource that must be released on every
// exit path.
package scope

import (
	"errors"
	"fmt"
	"os"
)

// Acquirer obtains a resource and the function that releases it.
type Acquirer[T any] func() (T, func() error, error)

// Use acquires a resource, runs fn with it and releases it afterwards, also
// when fn panics. A release error is joined with fn's error.
func Use[T any](acquire Acquirer[T], fn func(T) error) (err error) {
	res, release, err := acquire()
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()
	return fn(res)
}

// TempDir acquires a fresh temporary directory removed with all its contents on release.
func TempDir(prefix string) Acquirer[string] {
	return func() (string, func() error, error) {
		dir, err := os.MkdirTemp("", prefix)
		if err != nil {
			return "", nil, fmt.Errorf("create temp dir: %w", err)
		}
		return dir, func() error { return os.RemoveAll(dir) }, nil
	}
}
