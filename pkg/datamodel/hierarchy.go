package datamodel

import "strings"

// HierarchyDelimiter separates the codes of a materialized hierarchy path, e.g. "A>B>C".
const HierarchyDelimiter = ">"

// HierarchyFields is embedded by self-referential entities. ParentId 0 means
// the entity is a root of its tree.
type HierarchyFields struct {
	ParentId      int
	HierarchyPath string
}

// Hierarchy exposes the hierarchy block for path maintenance
func (h *HierarchyFields) Hierarchy() *HierarchyFields { return h }

// HierarchicalEntity is an Entity carrying a self-referential parent link and
// a materialized path.
type HierarchicalEntity interface {
	Entity
	Hierarchy() *HierarchyFields
}

// ChildPath builds the materialized path of a node under the given parent path.
// An empty parent path means the node is a tree root.
func ChildPath(parentPath, code string) string {
	if parentPath == "" {
		return code
	}
	return parentPath + HierarchyDelimiter + code
}

// DescendantPrefix returns the prefix every descendant path of the given path
// starts with, used both for prefix queries and cycle checks.
func DescendantPrefix(path string) string {
	return path + HierarchyDelimiter
}

// WouldCreateCycle reports whether re-parenting a node with the given path
// under the candidate parent would create a cycle: the candidate must not be
// the node itself nor any of its descendants.
func WouldCreateCycle(selfPath, candidateParentPath string) bool {
	if selfPath == "" {
		return false
	}
	if candidateParentPath == selfPath {
		return true
	}
	return strings.HasPrefix(candidateParentPath, DescendantPrefix(selfPath))
}

// IsDescendantPath reports whether path lies strictly below ancestorPath.
func IsDescendantPath(path, ancestorPath string) bool {
	return strings.HasPrefix(path, DescendantPrefix(ancestorPath))
}

// PathDepth returns the number of levels in a materialized path, 0 for an empty path.
func PathDepth(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, HierarchyDelimiter) + 1
}
