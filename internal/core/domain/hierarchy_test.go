package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHierarchyColumns(t *testing.T) {
	adjacency := HierarchyColumns(StrategyAdjacencyList)
	nested := HierarchyColumns(StrategyNestedSet)

	assert.Len(t, adjacency, 7)
	assert.Len(t, nested, 9)
	assert.True(t, adjacency[0].PrimaryKey)
	assert.Equal(t, ColLeft, nested[7].Name)
	assert.Equal(t, ColRight, nested[8].Name)
}

func TestHierarchyRows(t *testing.T) {
	parent := int64(1)
	nodes := []HierarchyNode{
		{ID: 1, Level: 0, RankName: "family", RankValue: "Arecaceae", FullPath: "Arecaceae", FullName: "Arecaceae", Left: 1, Right: 4},
		{ID: 2, ParentID: &parent, Level: 1, RankName: "genus", RankValue: "Cocos", FullPath: "Arecaceae|Cocos", FullName: "Cocos", Left: 2, Right: 3},
	}

	rows := HierarchyRows(nodes, StrategyNestedSet)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0][1], "root has a NULL parent")
	assert.Equal(t, int64(1), rows[1][1])
	assert.Equal(t, []any{int64(2), int64(1), 1, "genus", "Cocos", "Arecaceae|Cocos", "Cocos", 2, 3}, rows[1])

	flat := HierarchyRows(nodes, StrategyAdjacencyList)
	assert.Len(t, flat[0], 7)
	assert.True(t, nodes[0].IsRoot())
	assert.False(t, nodes[1].IsRoot())
}
