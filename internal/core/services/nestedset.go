package services

import (
	"fmt"
	"strconv"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/importconfig"
)

// ComputeNestedSet numbers nodes in place with lft/rght bounds and sets
// each node's level from its depth. Roots and siblings are visited in slice
// order, so the result is deterministic for ordered input.
//
// The traversal uses an explicit stack; deep trees never grow the call stack.
func ComputeNestedSet(nodes []domain.HierarchyNode) error {
	index := make(map[int64]int, len(nodes))
	for i, n := range nodes {
		if _, dup := index[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node id %d", domain.ErrData, n.ID)
		}
		index[n.ID] = i
	}

	children := make([][]int, len(nodes))
	var roots []int
	for i, n := range nodes {
		if n.ParentID == nil {
			roots = append(roots, i)
			continue
		}
		p, ok := index[*n.ParentID]
		if !ok {
			return fmt.Errorf("%w: node %d references missing parent %d", domain.ErrData, n.ID, *n.ParentID)
		}
		children[p] = append(children[p], i)
	}

	type frame struct {
		node  int
		child int
	}
	counter := 1
	visited := 0
	stack := make([]frame, 0, 16)
	for _, r := range roots {
		nodes[r].Left = counter
		nodes[r].Level = 0
		counter++
		visited++
		stack = append(stack, frame{node: r})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.child < len(children[top.node]) {
				c := children[top.node][top.child]
				top.child++
				nodes[c].Left = counter
				nodes[c].Level = nodes[top.node].Level + 1
				counter++
				visited++
				stack = append(stack, frame{node: c})
				continue
			}
			nodes[top.node].Right = counter
			counter++
			stack = stack[:len(stack)-1]
		}
	}

	if visited != len(nodes) {
		return fmt.Errorf("%w: %d nodes are part of a parent cycle", domain.ErrData, len(nodes)-visited)
	}
	return nil
}

// applyStoredNestedSet adds level, lft and rght columns to a stored
// hierarchy table using its id and parent columns.
func applyStoredNestedSet(entity string, t *domain.Table, h *importconfig.HierarchyConfig) error {
	idIdx := t.ColumnIndex(h.IDField)
	if idIdx < 0 {
		return fmt.Errorf("%w: entity %q column %q", domain.ErrMissingColumn, entity, h.IDField)
	}
	parentIdx := t.ColumnIndex(h.ParentField)
	if parentIdx < 0 {
		return fmt.Errorf("%w: entity %q column %q", domain.ErrMissingColumn, entity, h.ParentField)
	}

	nodes := make([]domain.HierarchyNode, len(t.Rows))
	for r, row := range t.Rows {
		id, err := parseNodeID(cell(row, idIdx))
		if err != nil || id == nil {
			return &domain.RowError{Entity: entity, Row: r, Column: h.IDField, Err: fmt.Errorf("%w: invalid node id", domain.ErrData)}
		}
		parent, err := parseNodeID(cell(row, parentIdx))
		if err != nil {
			return &domain.RowError{Entity: entity, Row: r, Column: h.ParentField, Err: fmt.Errorf("%w: invalid parent id", domain.ErrData)}
		}
		nodes[r] = domain.HierarchyNode{ID: *id, ParentID: parent}
	}
	if err := ComputeNestedSet(nodes); err != nil {
		return fmt.Errorf("entity %q: %w", entity, err)
	}

	levelIdx := t.AddColumn(h.LevelField)
	leftIdx := t.AddColumn(h.LeftField)
	rightIdx := t.AddColumn(h.RightField)
	for r := range t.Rows {
		t.Rows[r][levelIdx] = int64(nodes[r].Level)
		t.Rows[r][leftIdx] = int64(nodes[r].Left)
		t.Rows[r][rightIdx] = int64(nodes[r].Right)
	}
	return nil
}

// parseNodeID reads an id cell; blank cells yield nil.
func parseNodeID(v any) (*int64, error) {
	s := domain.StringValue(v)
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
