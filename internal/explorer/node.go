package explorer

import (
	"strings"

	"github.com/ctacke/DataNav/pkg/model"
)

// NodeKind identifies a node's level in the hierarchy.
type NodeKind string

const (
	KindServer   NodeKind = "server"
	KindDatabase NodeKind = "database"
	KindTable    NodeKind = "table"
	KindColumn   NodeKind = "column"
)

// node is one entry in the hierarchy. Nodes own their children outright;
// every successful refresh replaces the child slice wholesale and discards
// the old subtree.
type node struct {
	kind       NodeKind
	name       string
	path       string
	properties map[string]string
	column     *model.Column

	refreshing bool
	expanded   bool
	children   []*node
}

// NodeView is an immutable snapshot of a node handed to observers and the
// rendering layer. Column carries the column entity for column nodes only.
type NodeView struct {
	Kind         NodeKind          `json:"kind"`
	Name         string            `json:"name"`
	Path         string            `json:"path"`
	IsRefreshing bool              `json:"isRefreshing"`
	IsExpanded   bool              `json:"isExpanded"`
	HasChildren  bool              `json:"hasChildren"`
	Properties   map[string]string `json:"properties,omitempty"`
	Column       *model.Column     `json:"column,omitempty"`
}

func (n *node) view() NodeView {
	return NodeView{
		Kind:         n.kind,
		Name:         n.name,
		Path:         n.path,
		IsRefreshing: n.refreshing,
		IsExpanded:   n.expanded,
		HasChildren:  len(n.children) > 0,
		Properties:   n.properties,
		Column:       n.column,
	}
}

func (n *node) childByName(name string) *node {
	for _, child := range n.children {
		if child.name == name {
			return child
		}
	}
	return nil
}

func databaseNode(parentPath string, db model.Database) *node {
	return &node{
		kind:       KindDatabase,
		name:       db.Name,
		path:       parentPath + "/" + db.Name,
		properties: db.Properties,
	}
}

func tableNode(parentPath string, table model.Table) *node {
	return &node{
		kind:       KindTable,
		name:       table.Name,
		path:       parentPath + "/" + table.Name,
		properties: table.Properties,
	}
}

func columnNode(parentPath string, column model.Column) *node {
	col := column
	return &node{
		kind:       KindColumn,
		name:       col.Name,
		path:       parentPath + "/" + col.Name,
		properties: col.Properties,
		column:     &col,
	}
}

// splitPath breaks a slash-joined node path into its segments: connection,
// database, table, column.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
