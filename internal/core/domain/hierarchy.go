package domain

// HierarchyStrategy selects how parent/child links are persisted.
type HierarchyStrategy string

const (
	// StrategyAdjacencyList persists only parent pointers.
	StrategyAdjacencyList HierarchyStrategy = "adjacency_list"
	// StrategyNestedSet additionally persists lft/rght intervals.
	StrategyNestedSet HierarchyStrategy = "nested_set"
)

// Hierarchy table column names.
const (
	ColID        = "id"
	ColParentID  = "parent_id"
	ColLevel     = "level"
	ColRankName  = "rank_name"
	ColRankValue = "rank_value"
	ColFullPath  = "full_path"
	ColFullName  = "full_name"
	ColLeft      = "lft"
	ColRight     = "rght"
)

// HierarchyNode is one row of a hierarchy table.
type HierarchyNode struct {
	ID int64

	// ParentID is nil for root nodes.
	ParentID *int64

	// Level is 0 at the root and grows by one per depth.
	Level int

	// RankName is the semantic name of the level, e.g. "genus".
	RankName string

	// RankValue is the node's own label, e.g. "Burretiokentia".
	RankValue string

	// FullPath joins all ancestor labels down to this node.
	FullPath string

	// FullName is the display name of the node.
	FullName string

	// Left and Right hold nested-set bounds; zero when not computed.
	Left  int
	Right int
}

// IsRoot reports whether the node has no parent.
func (n HierarchyNode) IsRoot() bool {
	return n.ParentID == nil
}

// HierarchyColumns returns the table definition for a hierarchy table.
func HierarchyColumns(strategy HierarchyStrategy) []Column {
	cols := []Column{
		{Name: ColID, Type: ColumnInteger, PrimaryKey: true},
		{Name: ColParentID, Type: ColumnInteger},
		{Name: ColLevel, Type: ColumnInteger},
		{Name: ColRankName, Type: ColumnText},
		{Name: ColRankValue, Type: ColumnText},
		{Name: ColFullPath, Type: ColumnText},
		{Name: ColFullName, Type: ColumnText},
	}
	if strategy == StrategyNestedSet {
		cols = append(cols,
			Column{Name: ColLeft, Type: ColumnInteger},
			Column{Name: ColRight, Type: ColumnInteger},
		)
	}
	return cols
}

// HierarchyRows converts nodes to positional rows matching HierarchyColumns.
func HierarchyRows(nodes []HierarchyNode, strategy HierarchyStrategy) [][]any {
	rows := make([][]any, 0, len(nodes))
	for _, n := range nodes {
		var parent any
		if n.ParentID != nil {
			parent = *n.ParentID
		}
		row := []any{n.ID, parent, n.Level, n.RankName, n.RankValue, n.FullPath, n.FullName}
		if strategy == StrategyNestedSet {
			row = append(row, n.Left, n.Right)
		}
		rows = append(rows, row)
	}
	return rows
}
