// Package file reads flat files (CSV, TSV, XLSX and JSON arrays) into tables.
package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/loam/internal/connectors/source"
	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
	"github.com/custodia-labs/loam/internal/importconfig"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Supported formats.
const (
	FormatCSV  = "csv"
	FormatTSV  = "tsv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// Connector loads one flat file.
type Connector struct {
	spec   importconfig.FileConnector
	opener *source.Opener
	mu     sync.Mutex
	closed bool
}

// New creates a file connector. opener resolves s3:// paths.
func New(spec *importconfig.FileConnector, opener *source.Opener) *Connector {
	return &Connector{spec: *spec, opener: opener}
}

// Type returns the connector type identifier.
func (c *Connector) Type() importconfig.ConnectorType {
	return importconfig.ConnectorFile
}

// Load reads every row of the file. Empty cells are returned as nil.
func (c *Connector) Load(ctx context.Context) (*domain.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrConnectorClosed
	}

	format, err := DetectFormat(c.spec.Path, c.spec.Format)
	if err != nil {
		return nil, err
	}

	local, cleanup, err := c.opener.Fetch(ctx, c.spec.Path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var t *domain.Table
	switch format {
	case FormatCSV, FormatTSV:
		delim := ','
		if format == FormatTSV {
			delim = '\t'
		}
		if c.spec.Delimiter != "" {
			delim = rune(c.spec.Delimiter[0])
		}
		t, err = readDelimited(ctx, local, delim)
	case FormatXLSX:
		t, err = readXLSX(ctx, local, c.spec.Sheet)
	case FormatJSON:
		t, err = readJSON(ctx, local)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.spec.Path, err)
	}
	return t, nil
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// DetectFormat returns the explicit format, or infers it from the extension.
func DetectFormat(path, explicit string) (string, error) {
	if explicit != "" {
		return strings.ToLower(explicit), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: cannot infer file format of %q, set format", domain.ErrUnsupportedType, path)
	}
}

// headerNames cleans header cells, naming blank ones after their position
// and suffixing duplicates.
func headerNames(cells []string) []string {
	seen := make(map[string]int, len(cells))
	out := make([]string, len(cells))
	for i, c := range cells {
		name := strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}

// stringRow converts text cells to a positional row of width n.
func stringRow(cells []string, n int) []any {
	row := make([]any, n)
	for i := 0; i < n && i < len(cells); i++ {
		if v := strings.TrimSpace(cells[i]); v != "" {
			row[i] = cells[i]
		}
	}
	return row
}
