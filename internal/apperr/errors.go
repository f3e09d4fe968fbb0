// Package apperr defines the error taxonomy for the vault pipeline.
// Only two failure classes abort a run: a bad or missing configuration
// and an unreachable root directory of a required source. Everything
// scoped to a single file or object degrades to a vault issue instead.
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups (objects, exports) that miss.
var ErrNotFound = errors.New("not found")

// ConfigError is fatal: the run cannot start without a valid
// configuration.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// SourceAccessError reports an unreachable source root directory. It is
// fatal only when the source is marked required; otherwise the loader
// downgrades it to an issue.
type SourceAccessError struct {
	SourceID string
	Path     string
	Err      error
}

func (e *SourceAccessError) Error() string {
	return fmt.Sprintf("source %s: access %s: %v", e.SourceID, e.Path, e.Err)
}

func (e *SourceAccessError) Unwrap() error { return e.Err }
