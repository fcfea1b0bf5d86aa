// Package hierarchy builds and restructures the parent/child forest over
// a flat task list. The flat list is the source of truth; trees are
// derived on every call and never persisted.
package hierarchy

import (
	"sort"

	"github.com/planforge/planforge/internal/task"
)

// MaxDepth is the maximum number of hierarchy levels. Roots sit at depth
// 0, so the deepest allowed descendant is at depth MaxDepth-1.
const MaxDepth = 5

// Node wraps a task with its derived position in the forest.
type Node struct {
	Task     *task.Task
	Children []*Node
	Depth    int
	// Path holds the names of the node's ancestors, outermost first.
	Path []string
}

// BuildTree derives the forest from a flat task list. Siblings are
// ordered by SortOrder (ties broken by ID for determinism), Depth and
// Path are computed per node, and each task's HasChildren flag is set.
// Tasks whose ParentID does not resolve to a task in the input are
// treated as roots rather than dropped; the same applies to tasks caught
// in a malformed parent cycle.
func BuildTree(tasks []*task.Task) []*Node {
	byID := task.Index(tasks)

	childrenOf := make(map[string][]*task.Task)
	var roots []*task.Task
	for _, t := range tasks {
		if t.ParentID == "" || byID[t.ParentID] == nil || t.ParentID == t.ID {
			roots = append(roots, t)
			continue
		}
		childrenOf[t.ParentID] = append(childrenOf[t.ParentID], t)
	}

	visited := make(map[string]bool, len(tasks))
	nodes := buildSubtrees(roots, childrenOf, 0, nil, visited)

	// Tasks whose parent chain loops back on itself are unreachable from
	// any root. Surface them as roots so no task is ever lost.
	var orphans []*task.Task
	for _, t := range tasks {
		if !visited[t.ID] {
			orphans = append(orphans, t)
		}
	}
	if len(orphans) > 0 {
		nodes = append(nodes, buildSubtrees(orphans, childrenOf, 0, nil, visited)...)
	}
	return nodes
}

func buildSubtrees(group []*task.Task, childrenOf map[string][]*task.Task, depth int, path []string, visited map[string]bool) []*Node {
	sortSiblings(group)
	var nodes []*Node
	for _, t := range group {
		if visited[t.ID] {
			continue
		}
		visited[t.ID] = true

		node := &Node{
			Task:  t,
			Depth: depth,
			Path:  append([]string(nil), path...),
		}

		children := childrenOf[t.ID]
		t.HasChildren = len(children) > 0
		if len(children) > 0 {
			childPath := append(append([]string(nil), path...), t.Name)
			node.Children = buildSubtrees(children, childrenOf, depth+1, childPath, visited)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func sortSiblings(group []*task.Task) {
	sort.SliceStable(group, func(i, j int) bool {
		if group[i].SortOrder != group[j].SortOrder {
			return group[i].SortOrder < group[j].SortOrder
		}
		return group[i].ID < group[j].ID
	})
}

// Flatten is the inverse of BuildTree: a pre-order walk producing the
// persistable flat list. HierarchyLevel is renormalized to the computed
// depth on the way out.
func Flatten(nodes []*Node) []*task.Task {
	var out []*task.Task
	var walk func(ns []*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			n.Task.HierarchyLevel = n.Depth
			out = append(out, n.Task)
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}

// Normalize rebuilds the forest and flattens it back, refreshing
// HierarchyLevel, HasChildren and sibling order in one pass.
func Normalize(tasks []*task.Task) []*task.Task {
	return Flatten(BuildTree(tasks))
}
