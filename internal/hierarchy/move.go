package hierarchy

import (
	"errors"
	"fmt"

	"github.com/planforge/planforge/internal/task"
)

// RejectionReason classifies why a hierarchy move was refused.
type RejectionReason string

const (
	SelfMove         RejectionReason = "self_move"
	WouldCreateCycle RejectionReason = "would_create_cycle"
	DepthExceeded    RejectionReason = "depth_exceeded"
)

// MoveRejection is a business-level refusal of a hierarchy move. It is
// returned as a typed error so UI code can render the specific reason;
// it never indicates a bug.
type MoveRejection struct {
	TaskID      string
	NewParentID string
	Reason      RejectionReason
}

func (r *MoveRejection) Error() string {
	switch r.Reason {
	case SelfMove:
		return fmt.Sprintf("cannot move task %s under itself", r.TaskID)
	case WouldCreateCycle:
		return fmt.Sprintf("cannot move task %s under its own descendant %s", r.TaskID, r.NewParentID)
	case DepthExceeded:
		return fmt.Sprintf("moving task %s under %s would exceed the maximum hierarchy depth of %d", r.TaskID, r.NewParentID, MaxDepth)
	default:
		return fmt.Sprintf("move of task %s rejected", r.TaskID)
	}
}

// ErrSortOrderExhausted signals that midpoint interpolation has no
// integer room left between two siblings and the group must be
// renumbered before retrying.
var ErrSortOrderExhausted = errors.New("no sort order gap remaining between siblings")

// sortOrderGap is the spacing between freshly numbered siblings; gaps
// leave room for cheap inserts.
const sortOrderGap = 100

// CanMove validates moving taskID under newParentID (empty string means
// the root level). Expected business refusals come back as a
// *MoveRejection; a task ID that does not exist in the collection is a
// caller bug and returns a plain error.
func CanMove(tasks []*task.Task, taskID, newParentID string) error {
	byID := task.Index(tasks)
	t := byID[taskID]
	if t == nil {
		return fmt.Errorf("task %s not found", taskID)
	}
	if newParentID == "" {
		return nil
	}
	if newParentID == taskID {
		return &MoveRejection{TaskID: taskID, NewParentID: newParentID, Reason: SelfMove}
	}
	newParent := byID[newParentID]
	if newParent == nil {
		return fmt.Errorf("task %s not found", newParentID)
	}
	if isDescendant(tasks, taskID, newParentID) {
		return &MoveRejection{TaskID: taskID, NewParentID: newParentID, Reason: WouldCreateCycle}
	}
	newDepth := depthOf(byID, newParent) + 1
	if newDepth+subtreeHeight(tasks, taskID) > MaxDepth-1 {
		return &MoveRejection{TaskID: taskID, NewParentID: newParentID, Reason: DepthExceeded}
	}
	return nil
}

// isDescendant reports whether candidateID sits in the subtree rooted at
// rootID. The walk carries a visited set so malformed parent cycles in
// the input cannot loop it.
func isDescendant(tasks []*task.Task, rootID, candidateID string) bool {
	childrenOf := make(map[string][]string)
	for _, t := range tasks {
		if t.ParentID != "" {
			childrenOf[t.ParentID] = append(childrenOf[t.ParentID], t.ID)
		}
	}

	visited := make(map[string]bool)
	stack := []string{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		for _, child := range childrenOf[id] {
			if child == candidateID {
				return true
			}
			stack = append(stack, child)
		}
	}
	return false
}

// depthOf walks parent links upward with a visited guard. Unresolvable
// or cyclic parents count as roots, mirroring BuildTree.
func depthOf(byID map[string]*task.Task, t *task.Task) int {
	depth := 0
	visited := map[string]bool{t.ID: true}
	for t.ParentID != "" {
		parent := byID[t.ParentID]
		if parent == nil || visited[parent.ID] {
			break
		}
		visited[parent.ID] = true
		depth++
		t = parent
	}
	return depth
}

// subtreeHeight returns the height of the subtree rooted at rootID; a
// leaf has height 0.
func subtreeHeight(tasks []*task.Task, rootID string) int {
	childrenOf := make(map[string][]string)
	for _, t := range tasks {
		if t.ParentID != "" && t.ParentID != t.ID {
			childrenOf[t.ParentID] = append(childrenOf[t.ParentID], t.ID)
		}
	}
	visited := make(map[string]bool)
	var height func(id string) int
	height = func(id string) int {
		if visited[id] {
			return 0
		}
		visited[id] = true
		max := -1
		for _, child := range childrenOf[id] {
			if h := height(child); h > max {
				max = h
			}
		}
		return max + 1
	}
	return height(rootID)
}

// GenerateSortOrder returns the sort key placing a new task at position
// within the already-ordered sibling group. Appends step past the last
// sibling by a fixed gap; inserts take the floor midpoint of their
// neighbors. When the midpoint collides with a neighbor the caller must
// renumber the group and retry — the collision is reported, never
// silently truncated.
func GenerateSortOrder(siblings []*task.Task, position int) (int, error) {
	ordered := append([]*task.Task(nil), siblings...)
	sortSiblings(ordered)

	if position < 0 {
		position = 0
	}
	if position >= len(ordered) {
		if len(ordered) == 0 {
			return sortOrderGap, nil
		}
		return ordered[len(ordered)-1].SortOrder + sortOrderGap, nil
	}

	prev := 0
	if position > 0 {
		prev = ordered[position-1].SortOrder
	}
	next := ordered[position].SortOrder
	mid := (prev + next) / 2
	if mid <= prev || mid >= next {
		return 0, ErrSortOrderExhausted
	}
	return mid, nil
}

// RenumberSiblings rewrites a sibling group's sort keys to evenly gapped
// values, restoring insertion room after interpolation is exhausted.
func RenumberSiblings(siblings []*task.Task) {
	ordered := append([]*task.Task(nil), siblings...)
	sortSiblings(ordered)
	for i, t := range ordered {
		t.SortOrder = (i + 1) * sortOrderGap
	}
}

// siblingsOf returns the ordered children of parentID (roots for the
// empty string), excluding excludeID.
func siblingsOf(tasks []*task.Task, parentID, excludeID string) []*task.Task {
	byID := task.Index(tasks)
	var group []*task.Task
	for _, t := range tasks {
		if t.ID == excludeID {
			continue
		}
		pid := t.ParentID
		if pid != "" && byID[pid] == nil {
			pid = ""
		}
		if pid == parentID {
			group = append(group, t)
		}
	}
	sortSiblings(group)
	return group
}

// Move reparents taskID under newParentID at position among its new
// siblings, renumbering the group when interpolation runs out of room.
// It returns a new task slice; the input is never mutated.
func Move(tasks []*task.Task, taskID, newParentID string, position int) ([]*task.Task, error) {
	if err := CanMove(tasks, taskID, newParentID); err != nil {
		return nil, err
	}

	moved := task.CloneAll(tasks)
	byID := task.Index(moved)
	t := byID[taskID]

	siblings := siblingsOf(moved, newParentID, taskID)
	order, err := GenerateSortOrder(siblings, position)
	if errors.Is(err, ErrSortOrderExhausted) {
		RenumberSiblings(siblings)
		order, err = GenerateSortOrder(siblings, position)
	}
	if err != nil {
		return nil, err
	}

	t.ParentID = newParentID
	t.SortOrder = order
	return Normalize(moved), nil
}

// Promote moves a task out of its parent's group into the grandparent's
// sibling group, placed immediately after the former parent.
func Promote(tasks []*task.Task, taskID string) ([]*task.Task, error) {
	byID := task.Index(tasks)
	t := byID[taskID]
	if t == nil {
		return nil, fmt.Errorf("task %s not found", taskID)
	}
	parent := byID[t.ParentID]
	if parent == nil {
		return nil, fmt.Errorf("task %s is already a root", taskID)
	}

	group := siblingsOf(tasks, parent.ParentID, taskID)
	position := len(group)
	for i, sib := range group {
		if sib.ID == parent.ID {
			position = i + 1
			break
		}
	}
	return Move(tasks, taskID, parent.ParentID, position)
}

// Demote nests a task under an explicit new parent, appended after the
// parent's existing children.
func Demote(tasks []*task.Task, taskID, newParentID string) ([]*task.Task, error) {
	if newParentID == "" {
		return nil, fmt.Errorf("demote requires a target parent")
	}
	return Move(tasks, taskID, newParentID, len(tasks))
}
