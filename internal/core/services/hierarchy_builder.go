package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/core/ports/driven"
	"github.com/custodia-labs/loam/internal/core/ports/driving"
	"github.com/custodia-labs/loam/internal/importconfig"
	"github.com/custodia-labs/loam/internal/logger"
)

// HierarchyBuilder extracts normalized trees from the flat rows of an
// already-imported entity.
type HierarchyBuilder struct {
	tables   driven.TableStore
	registry driving.EntityRegistry
}

// NewHierarchyBuilder creates a new hierarchy builder.
func NewHierarchyBuilder(tables driven.TableStore, registry driving.EntityRegistry) *HierarchyBuilder {
	return &HierarchyBuilder{
		tables:   tables,
		registry: registry,
	}
}

// BuildFromDataset reads source (a logical or physical table name) and
// returns the hierarchy of output, ordered by level then path.
func (b *HierarchyBuilder) BuildFromDataset(
	ctx context.Context,
	source string,
	extraction *importconfig.ExtractionConfig,
	output string,
) ([]domain.HierarchyNode, error) {
	table := b.registry.ResolveTableName(ctx, source)

	available, err := b.tables.Columns(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("source %s of %s: %w", source, output, err)
	}
	wanted := extraction.SourceColumns()
	for _, col := range wanted {
		if !slices.Contains(available, col) {
			return nil, fmt.Errorf("%w: entity %q column %q not found in %s",
				domain.ErrMissingColumn, output, col, table)
		}
	}

	rows, err := b.tables.ReadTable(ctx, table, wanted)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	logger.Debug("building %s from %d rows of %s", output, rows.Len(), table)
	return BuildHierarchy(output, rows, extraction)
}

// treeNode accumulates one distinct prefix tuple while scanning rows.
type treeNode struct {
	key        string
	values     []string
	path       string
	externalID *int64
	// synthetic marks a leaf whose own value was filled in as "Unknown <rank>".
	synthetic bool
	fullName  string
	id        int64
}

// BuildHierarchy extracts the hierarchy described by extraction from rows.
func BuildHierarchy(entity string, rows *domain.Table, extraction *importconfig.ExtractionConfig) ([]domain.HierarchyNode, error) {
	levels := extraction.Levels
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: %s has no levels", domain.ErrConfiguration, entity)
	}
	sep := extraction.PathSeparator
	if sep == "" {
		sep = importconfig.DefaultPathSeparator
	}
	policy := extraction.IncompleteRows
	if policy == "" {
		policy = importconfig.IncompleteSkip
	}

	levelIdx := make([]int, len(levels))
	for i, l := range levels {
		levelIdx[i] = rows.ColumnIndex(l.Column)
		if levelIdx[i] < 0 {
			return nil, fmt.Errorf("%w: entity %q column %q", domain.ErrMissingColumn, entity, l.Column)
		}
	}
	idIdx, nameIdx := -1, -1
	if extraction.IDColumn != "" {
		if idIdx = rows.ColumnIndex(extraction.IDColumn); idIdx < 0 {
			return nil, fmt.Errorf("%w: entity %q column %q", domain.ErrMissingColumn, entity, extraction.IDColumn)
		}
	}
	if extraction.NameColumn != "" {
		if nameIdx = rows.ColumnIndex(extraction.NameColumn); nameIdx < 0 {
			return nil, fmt.Errorf("%w: entity %q column %q", domain.ErrMissingColumn, entity, extraction.NameColumn)
		}
	}

	nodes := make(map[string]*treeNode)
	external := extraction.IDStrategy == importconfig.IDExternal

	for r, row := range rows.Rows {
		values := make([]string, 0, len(levels))
		filledLeaf := false
		for d, l := range levels {
			v := domain.StringValue(cell(row, levelIdx[d]))
			if v == "" {
				switch policy {
				case importconfig.IncompleteFillUnknown:
					v = "Unknown " + l.Name
					filledLeaf = d == len(levels)-1
				case importconfig.IncompleteError:
					return nil, &domain.RowError{
						Entity: entity,
						Row:    r,
						Column: l.Column,
						Values: rowValues(levels, levelIdx, row),
						Err:    domain.ErrIncompleteRow,
					}
				}
			}
			if v == "" {
				break
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			continue
		}

		var leaf *treeNode
		for d := range values {
			key := nodeKey(values[:d+1])
			n, ok := nodes[key]
			if !ok {
				n = &treeNode{
					key:    key,
					values: slices.Clone(values[:d+1]),
					path:   strings.Join(values[:d+1], sep),
				}
				nodes[key] = n
			}
			leaf = n
		}

		if nameIdx >= 0 {
			if name := domain.StringValue(cell(row, nameIdx)); name != "" && (leaf.fullName == "" || name < leaf.fullName) {
				leaf.fullName = name
			}
		}

		if external && len(values) == len(levels) && filledLeaf {
			// Rows without a leaf value share the Unknown leaf, so their
			// external ids do not identify it.
			leaf.synthetic = true
		} else if external && len(values) == len(levels) {
			raw := domain.StringValue(cell(row, idIdx))
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				return nil, &domain.RowError{
					Entity: entity,
					Row:    r,
					Column: extraction.IDColumn,
					Values: map[string]string{extraction.IDColumn: raw},
					Err:    fmt.Errorf("%w: external id must be a positive integer", domain.ErrData),
				}
			}
			if leaf.externalID != nil && *leaf.externalID != id {
				return nil, &domain.RowError{
					Entity: entity,
					Row:    r,
					Column: extraction.IDColumn,
					Values: map[string]string{extraction.IDColumn: raw, "path": leaf.path},
					Err:    fmt.Errorf("%w: conflicting external ids %d and %d", domain.ErrData, *leaf.externalID, id),
				}
			}
			leaf.externalID = &id
		}
	}

	ordered := make([]*treeNode, 0, len(nodes))
	for _, n := range nodes {
		ordered = append(ordered, n)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if len(a.values) != len(b.values) {
			return len(a.values) < len(b.values)
		}
		if a.path != b.path {
			return a.path < b.path
		}
		return a.key < b.key
	})

	if err := assignIDs(entity, ordered, extraction); err != nil {
		return nil, err
	}

	out := make([]domain.HierarchyNode, 0, len(ordered))
	for _, n := range ordered {
		depth := len(n.values) - 1
		node := domain.HierarchyNode{
			ID:        n.id,
			Level:     depth,
			RankName:  levels[depth].Name,
			RankValue: n.values[depth],
			FullPath:  n.path,
			FullName:  n.fullName,
		}
		if node.FullName == "" {
			node.FullName = node.RankValue
		}
		if depth > 0 {
			parent := nodes[nodeKey(n.values[:depth])].id
			node.ParentID = &parent
		}
		out = append(out, node)
	}
	return out, nil
}

func assignIDs(entity string, ordered []*treeNode, extraction *importconfig.ExtractionConfig) error {
	seen := make(map[int64]*treeNode, len(ordered))
	var seq int64
	for _, n := range ordered {
		depth := len(n.values) - 1
		strategy := extraction.StrategyForLevel(depth)
		if strategy == importconfig.IDExternal && n.externalID == nil && n.synthetic {
			strategy = extraction.IntermediateIDStrategy
		}
		switch strategy {
		case importconfig.IDSequence:
			seq++
			n.id = seq
		case importconfig.IDExternal:
			if n.externalID == nil {
				return fmt.Errorf("%w: entity %q node %q has no external id", domain.ErrData, entity, n.path)
			}
			n.id = *n.externalID
		default:
			parts := make([]string, len(n.values))
			for i, v := range n.values {
				parts[i] = rankPart(extraction.Levels[i].Name, v)
			}
			n.id = contentID(parts...)
		}
		if other, dup := seen[n.id]; dup {
			return fmt.Errorf("%w: entity %q nodes %q and %q share id %d",
				domain.ErrIDCollision, entity, other.path, n.path, n.id)
		}
		seen[n.id] = n
	}
	return nil
}

// LevelCounts returns the number of nodes per rank, in level order.
func LevelCounts(nodes []domain.HierarchyNode, levels []importconfig.Level) string {
	counts := make(map[int]int)
	for _, n := range nodes {
		counts[n.Level]++
	}
	parts := make([]string, 0, len(levels))
	for i, l := range levels {
		parts = append(parts, fmt.Sprintf("%s=%d", l.Name, counts[i]))
	}
	return strings.Join(parts, ", ")
}

func nodeKey(values []string) string {
	return strings.Join(values, "\x00")
}

func cell(row []any, i int) any {
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

func rowValues(levels []importconfig.Level, idx []int, row []any) map[string]string {
	out := make(map[string]string, len(levels))
	for i, l := range levels {
		out[l.Name] = domain.StringValue(cell(row, idx[i]))
	}
	return out
}
