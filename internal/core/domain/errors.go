package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown connector, loader or CRS.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrReadOnly indicates a write was attempted against a read-only store.
	ErrReadOnly = errors.New("store is read-only")

	// ErrConnectorClosed indicates a connector was used after Close.
	ErrConnectorClosed = errors.New("connector is closed")

	// ErrMalformedEntry indicates a catalog row exists but cannot be decoded.
	ErrMalformedEntry = errors.New("malformed registry entry")

	// Configuration Errors.

	// ErrConfiguration indicates the import configuration is invalid.
	// Always reported before any I/O is attempted.
	ErrConfiguration = errors.New("configuration error")

	// Dependency Errors.

	// ErrDependency indicates the derived-reference dependency graph is unusable.
	ErrDependency = errors.New("dependency error")

	// ErrCircularDependency indicates derived references depend on each other.
	ErrCircularDependency = fmt.Errorf("%w: circular dependency", ErrDependency)

	// ErrSourceNotFound indicates a derived reference names an unknown source.
	ErrSourceNotFound = fmt.Errorf("%w: source not found", ErrDependency)

	// Data Errors.

	// ErrData indicates source rows cannot be imported as declared.
	ErrData = errors.New("data error")

	// ErrMissingColumn indicates a required column is absent from a source table.
	ErrMissingColumn = fmt.Errorf("%w: missing column", ErrData)

	// ErrIncompleteRow indicates a row lacks a level value under the error policy.
	ErrIncompleteRow = fmt.Errorf("%w: incomplete row", ErrData)

	// ErrIDCollision indicates two distinct hierarchy nodes received the same id.
	ErrIDCollision = fmt.Errorf("%w: id collision", ErrData)
)

// ImportError reports which phase and entity of an import failed.
type ImportError struct {
	Phase  Phase
	Entity string
	Err    error
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("%s %v", e.Phase.Tag(), e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Phase.Tag(), e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *ImportError) Unwrap() error {
	return e.Err
}

// RowError locates a data error within a source table.
type RowError struct {
	// Entity is the entity being built from the row.
	Entity string
	// Row is the zero-based index of the offending row.
	Row int
	// Column is the column that triggered the error, if any.
	Column string
	// Values holds the level values read from the row, for diagnostics.
	Values map[string]string
	Err    error
}

// Error implements the error interface.
func (e *RowError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v: entity %q row %d", e.Err, e.Entity, e.Row)
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	if len(e.Values) > 0 {
		b.WriteString(" (")
		b.WriteString(formatValues(e.Values))
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *RowError) Unwrap() error {
	return e.Err
}
