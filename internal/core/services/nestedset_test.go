package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/loam/internal/core/domain"
	"github.com/custodia-labs/loam/internal/importconfig"
)

func ptr(id int64) *int64 { return &id }

func TestComputeNestedSet_Invariants(t *testing.T) {
	nodes, err := BuildHierarchy("taxons", occurrenceTable(), hashExtraction())
	require.NoError(t, err)
	require.NoError(t, ComputeNestedSet(nodes))

	byID := make(map[int64]domain.HierarchyNode)
	for _, n := range nodes {
		byID[n.ID] = n
		assert.Less(t, n.Left, n.Right, "lft < rght for %s", n.FullPath)
	}

	// Descendants lie strictly inside every ancestor.
	for _, n := range nodes {
		for p := n.ParentID; p != nil; p = byID[*p].ParentID {
			anc := byID[*p]
			assert.Greater(t, n.Left, anc.Left)
			assert.Less(t, n.Right, anc.Right)
		}
	}

	// Siblings are disjoint.
	for i, a := range nodes {
		for _, b := range nodes[i+1:] {
			if a.ParentID == nil || b.ParentID == nil || *a.ParentID != *b.ParentID {
				continue
			}
			assert.True(t, a.Right < b.Left || b.Right < a.Left, "%s and %s overlap", a.FullPath, b.FullPath)
		}
	}

	// Roots partition [1, 2N].
	covered := 0
	for _, n := range nodes {
		if n.IsRoot() {
			covered += n.Right - n.Left + 1
		}
	}
	assert.Equal(t, 2*len(nodes), covered)
}

func TestComputeNestedSet_Numbering(t *testing.T) {
	nodes := []domain.HierarchyNode{
		{ID: 10},
		{ID: 20, ParentID: ptr(10)},
		{ID: 30, ParentID: ptr(10)},
		{ID: 40, ParentID: ptr(20)},
		{ID: 50},
	}
	require.NoError(t, ComputeNestedSet(nodes))

	want := map[int64][3]int{
		10: {1, 8, 0},
		20: {2, 5, 1},
		40: {3, 4, 2},
		30: {6, 7, 1},
		50: {9, 10, 0},
	}
	for _, n := range nodes {
		assert.Equal(t, want[n.ID], [3]int{n.Left, n.Right, n.Level}, "node %d", n.ID)
	}
}

func TestComputeNestedSet_DeepChain(t *testing.T) {
	const depth = 100000
	nodes := make([]domain.HierarchyNode, depth)
	for i := range nodes {
		nodes[i].ID = int64(i + 1)
		if i > 0 {
			nodes[i].ParentID = ptr(int64(i))
		}
	}
	require.NoError(t, ComputeNestedSet(nodes))

	assert.Equal(t, 1, nodes[0].Left)
	assert.Equal(t, 2*depth, nodes[0].Right)
	assert.Equal(t, depth-1, nodes[depth-1].Level)
}

func TestComputeNestedSet_Errors(t *testing.T) {
	t.Run("missing parent", func(t *testing.T) {
		err := ComputeNestedSet([]domain.HierarchyNode{{ID: 1, ParentID: ptr(99)}})
		assert.ErrorIs(t, err, domain.ErrData)
	})
	t.Run("duplicate id", func(t *testing.T) {
		err := ComputeNestedSet([]domain.HierarchyNode{{ID: 1}, {ID: 1}})
		assert.ErrorIs(t, err, domain.ErrData)
	})
	t.Run("cycle", func(t *testing.T) {
		err := ComputeNestedSet([]domain.HierarchyNode{
			{ID: 1},
			{ID: 2, ParentID: ptr(3)},
			{ID: 3, ParentID: ptr(2)},
		})
		assert.ErrorIs(t, err, domain.ErrData)
		assert.Contains(t, err.Error(), "2 nodes")
	})
}

func TestApplyStoredNestedSet(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"id", "parent_id", "name"},
		Rows: [][]any{
			{int64(1), nil, "New Caledonia"},
			{int64(2), int64(1), "Province Sud"},
			{"3", "1", "Province Nord"},
		},
	}
	h := &importconfig.HierarchyConfig{
		IDField: "id", ParentField: "parent_id",
		LevelField: "level", LeftField: "lft", RightField: "rght",
	}

	require.NoError(t, applyStoredNestedSet("regions", table, h))

	assert.Equal(t, []string{"id", "parent_id", "name", "level", "lft", "rght"}, table.Columns)
	assert.Equal(t, []any{int64(1), nil, "New Caledonia", int64(0), int64(1), int64(6)}, table.Rows[0])
	assert.Equal(t, int64(1), table.Rows[2][3])
}

func TestApplyStoredNestedSet_MissingColumn(t *testing.T) {
	table := &domain.Table{Columns: []string{"id"}, Rows: [][]any{{int64(1)}}}
	h := &importconfig.HierarchyConfig{IDField: "id", ParentField: "parent_id"}

	err := applyStoredNestedSet("regions", table, h)
	assert.ErrorIs(t, err, domain.ErrMissingColumn)
}
