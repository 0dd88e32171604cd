package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
	"github.com/custodia-labs/loam/internal/core/ports/driving"
)

// Ensure loaders implement the interfaces.
var (
	_ driving.HierarchyLoader = (*AdjacencyListLoader)(nil)
	_ driving.HierarchyLoader = (*NestedSetLoader)(nil)
	_ driving.LoaderRegistry  = (*LoaderRegistry)(nil)
)

// AdjacencyListLoader follows parent pointers to collect a subtree.
type AdjacencyListLoader struct {
	registry driving.EntityRegistry
	tables   driven.TableStore
}

// NewAdjacencyListLoader creates a new adjacency-list loader.
func NewAdjacencyListLoader(registry driving.EntityRegistry, tables driven.TableStore) *AdjacencyListLoader {
	return &AdjacencyListLoader{registry: registry, tables: tables}
}

// Strategy returns domain.StrategyAdjacencyList.
func (l *AdjacencyListLoader) Strategy() domain.HierarchyStrategy {
	return domain.StrategyAdjacencyList
}

// Load returns the data rows attached to the node, and to its descendants
// when requested. Descendants are collected with a recursive CTE.
func (l *AdjacencyListLoader) Load(ctx context.Context, req driving.LoadRequest) ([]domain.Row, error) {
	if err := checkLoadRequest(req); err != nil {
		return nil, err
	}
	ref := l.registry.ResolveTableName(ctx, req.Reference)
	data := l.registry.ResolveTableName(ctx, req.Data)

	id := quoteIdent(fieldOr(req.IDField, domain.ColID))
	if !req.IncludeDescendants {
		// Rows pointing at a node missing from the reference are not returned.
		return queryRows(ctx, l.tables,
			fmt.Sprintf("SELECT d.* FROM %s d WHERE d.%s = ? AND EXISTS (SELECT 1 FROM %s r WHERE r.%s = ?)",
				quoteIdent(data), quoteIdent(req.ForeignKey), quoteIdent(ref), id),
			req.NodeID, req.NodeID)
	}

	parent := quoteIdent(fieldOr(req.ParentField, domain.ColParentID))
	query := fmt.Sprintf(`WITH RECURSIVE subtree(node_id) AS (
	SELECT %[2]s FROM %[1]s WHERE %[2]s = ?
	UNION
	SELECT c.%[2]s FROM %[1]s c JOIN subtree s ON c.%[3]s = s.node_id
)
SELECT d.* FROM %[4]s d WHERE d.%[5]s IN (SELECT node_id FROM subtree)`,
		quoteIdent(ref), id, parent, quoteIdent(data), quoteIdent(req.ForeignKey))
	return queryRows(ctx, l.tables, query, req.NodeID)
}

// NestedSetLoader selects a subtree by lft/rght interval containment.
type NestedSetLoader struct {
	registry driving.EntityRegistry
	tables   driven.TableStore
}

// NewNestedSetLoader creates a new nested-set loader.
func NewNestedSetLoader(registry driving.EntityRegistry, tables driven.TableStore) *NestedSetLoader {
	return &NestedSetLoader{registry: registry, tables: tables}
}

// Strategy returns domain.StrategyNestedSet.
func (l *NestedSetLoader) Strategy() domain.HierarchyStrategy {
	return domain.StrategyNestedSet
}

// Load returns the data rows attached to the node, and to its descendants
// when requested.
func (l *NestedSetLoader) Load(ctx context.Context, req driving.LoadRequest) ([]domain.Row, error) {
	if err := checkLoadRequest(req); err != nil {
		return nil, err
	}
	ref := l.registry.ResolveTableName(ctx, req.Reference)
	data := l.registry.ResolveTableName(ctx, req.Data)

	id := quoteIdent(fieldOr(req.IDField, domain.ColID))
	left := fieldOr(req.LeftField, domain.ColLeft)
	right := fieldOr(req.RightField, domain.ColRight)

	bounds, err := l.tables.Query(ctx,
		fmt.Sprintf("SELECT %s AS lo, %s AS hi FROM %s WHERE %s = ?",
			quoteIdent(left), quoteIdent(right), quoteIdent(ref), id),
		req.NodeID)
	if err != nil {
		return nil, fmt.Errorf("resolve bounds of node %d in %s: %w", req.NodeID, ref, err)
	}
	if len(bounds) == 0 {
		return []domain.Row{}, nil
	}

	if !req.IncludeDescendants {
		return queryRows(ctx, l.tables,
			fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", quoteIdent(data), quoteIdent(req.ForeignKey)),
			req.NodeID)
	}

	lo, err := toInt64(bounds[0]["lo"])
	if err != nil {
		return nil, fmt.Errorf("%w: node %d %s: %w", domain.ErrData, req.NodeID, left, err)
	}
	hi, err := toInt64(bounds[0]["hi"])
	if err != nil {
		return nil, fmt.Errorf("%w: node %d %s: %w", domain.ErrData, req.NodeID, right, err)
	}

	query := fmt.Sprintf(`SELECT d.* FROM %s d JOIN %s r ON d.%s = r.%s WHERE r.%s >= ? AND r.%s <= ?`,
		quoteIdent(data), quoteIdent(ref), quoteIdent(req.ForeignKey), id, quoteIdent(left), quoteIdent(right))
	return queryRows(ctx, l.tables, query, lo, hi)
}

// LoaderRegistry resolves hierarchy loaders by strategy key.
type LoaderRegistry struct {
	loaders map[string]driving.HierarchyLoader
}

// NewLoaderRegistry creates a registry keyed by each loader's strategy.
func NewLoaderRegistry(loaders ...driving.HierarchyLoader) *LoaderRegistry {
	r := &LoaderRegistry{loaders: make(map[string]driving.HierarchyLoader, len(loaders))}
	for _, l := range loaders {
		r.loaders[string(l.Strategy())] = l
	}
	return r
}

// NewDefaultLoaderRegistry registers the adjacency-list and nested-set loaders.
func NewDefaultLoaderRegistry(registry driving.EntityRegistry, tables driven.TableStore) *LoaderRegistry {
	return NewLoaderRegistry(
		NewAdjacencyListLoader(registry, tables),
		NewNestedSetLoader(registry, tables),
	)
}

// Loader returns the loader registered under key.
func (r *LoaderRegistry) Loader(key string) (driving.HierarchyLoader, error) {
	l, ok := r.loaders[key]
	if !ok {
		return nil, fmt.Errorf("%w: hierarchy loader %q", domain.ErrUnsupportedType, key)
	}
	return l, nil
}

// Keys returns the registered keys in sorted order.
func (r *LoaderRegistry) Keys() []string {
	keys := make([]string, 0, len(r.loaders))
	for k := range r.loaders {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func checkLoadRequest(req driving.LoadRequest) error {
	if req.Reference == "" || req.Data == "" || req.ForeignKey == "" {
		return fmt.Errorf("%w: reference, data and foreign key are required", domain.ErrInvalidInput)
	}
	return nil
}

func queryRows(ctx context.Context, tables driven.TableStore, query string, args ...any) ([]domain.Row, error) {
	rows, err := tables.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.Row{}
	}
	return rows, nil
}

func fieldOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return strconv.ParseInt(domain.StringValue(x), 10, 64)
	}
}
