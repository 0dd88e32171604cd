package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/custodia-labs/loam/internal/connectors/file"
	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
	"github.com/custodia-labs/loam/internal/importconfig"
	"github.com/custodia-labs/loam/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector loads JSON records from an HTTP endpoint.
type Connector struct {
	spec   importconfig.APIConnector
	client *Client
	mu     sync.Mutex
	closed bool
}

// New creates an API connector. A nil httpClient uses a default client.
func New(spec *importconfig.APIConnector, httpClient *http.Client) *Connector {
	return &Connector{spec: *spec, client: NewClient(httpClient, spec)}
}

// Type returns the connector type identifier.
func (c *Connector) Type() importconfig.ConnectorType {
	return importconfig.ConnectorAPI
}

// Load fetches every page and returns the concatenated records.
func (c *Connector) Load(ctx context.Context) (*domain.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrConnectorClosed
	}

	var records []map[string]any
	var err error
	if c.spec.Pagination != nil {
		records, err = c.loadPages(ctx)
	} else {
		records, err = c.loadLinks(ctx)
	}
	if err != nil {
		return nil, err
	}
	return file.RecordsTable(records), nil
}

// Close releases resources.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// loadPages requests numbered pages until one comes back short or empty,
// or repeats the previous page when the server ignores the page parameter.
func (c *Connector) loadPages(ctx context.Context) ([]map[string]any, error) {
	p := c.spec.Pagination
	page := p.StartPage
	if page == 0 {
		page = 1
	}

	var (
		all  []map[string]any
		prev []byte
	)
	for n := 0; p.MaxPages == 0 || n < p.MaxPages; n++ {
		params := map[string]string{p.PageParam: strconv.Itoa(page)}
		if p.SizeParam != "" && p.PageSize > 0 {
			params[p.SizeParam] = strconv.Itoa(p.PageSize)
		}
		u, err := c.pageURL(c.spec.URL, params)
		if err != nil {
			return nil, err
		}
		body, _, err := c.client.Get(ctx, u)
		if err != nil {
			return nil, err
		}
		if prev != nil && bytes.Equal(body, prev) {
			logger.Warn("%s page %d repeats page %d; stopping", c.spec.URL, page, page-1)
			break
		}
		prev = body
		records, err := c.extract(body)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		logger.Debug("%s page %d: %d records", c.spec.URL, page, len(records))
		all = append(all, records...)
		if len(records) == 0 || (p.PageSize > 0 && len(records) < p.PageSize) {
			break
		}
		page++
	}
	return all, nil
}

// loadLinks requests the configured URL and follows Link rel="next".
func (c *Connector) loadLinks(ctx context.Context) ([]map[string]any, error) {
	next, err := c.pageURL(c.spec.URL, nil)
	if err != nil {
		return nil, err
	}

	var all []map[string]any
	seen := map[string]bool{}
	for next != "" && !seen[next] {
		seen[next] = true
		body, header, err := c.client.Get(ctx, next)
		if err != nil {
			return nil, err
		}
		records, err := c.extract(body)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		next = ParseNextLink(header.Get("Link"))
	}
	return all, nil
}

// pageURL merges the configured query parameters and extra into raw.
func (c *Connector) pageURL(raw string, extra map[string]string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: url %q: %w", domain.ErrConfiguration, raw, err)
	}
	q := u.Query()
	for k, v := range c.spec.Params {
		q.Set(k, v)
	}
	for k, v := range extra {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// extract returns the objects of the array at RecordsPath, or of the
// whole body when no path is set.
func (c *Connector) extract(body []byte) ([]map[string]any, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: response is not valid JSON", domain.ErrData)
	}
	result := gjson.ParseBytes(body)
	if c.spec.RecordsPath != "" {
		result = result.Get(c.spec.RecordsPath)
	}
	if !result.Exists() || result.Type == gjson.Null {
		return nil, nil
	}
	if !result.IsArray() {
		return nil, fmt.Errorf("%w: records at %q are not an array", domain.ErrData, c.spec.RecordsPath)
	}

	var records []map[string]any
	var decodeErr error
	result.ForEach(func(_, item gjson.Result) bool {
		if !item.IsObject() {
			decodeErr = fmt.Errorf("%w: record %d is not an object", domain.ErrData, len(records))
			return false
		}
		dec := json.NewDecoder(bytes.NewReader([]byte(item.Raw)))
		dec.UseNumber()
		rec := map[string]any{}
		if err := dec.Decode(&rec); err != nil {
			decodeErr = fmt.Errorf("%w: record %d: %w", domain.ErrData, len(records), err)
			return false
		}
		records = append(records, rec)
		return true
	})
	return records, decodeErr
}
