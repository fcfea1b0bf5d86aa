package task

import (
	"fmt"
	"strconv"
	"strings"
)

// RelationKind is the temporal relation between a predecessor and a
// successor task.
type RelationKind string

const (
	FinishToStart  RelationKind = "finish_to_start"
	StartToStart   RelationKind = "start_to_start"
	FinishToFinish RelationKind = "finish_to_finish"
	StartToFinish  RelationKind = "start_to_finish"
)

// IsValid returns true if the relation kind is a known value.
func (r RelationKind) IsValid() bool {
	switch r {
	case FinishToStart, StartToStart, FinishToFinish, StartToFinish:
		return true
	default:
		return false
	}
}

// ParseRelationKind maps a relation string to a RelationKind. Both the
// canonical names and the legacy short codes (FS, SS, FF, SF) are
// accepted. Unknown values fall back to FinishToStart, matching the
// behavior plans exported from older systems rely on.
func ParseRelationKind(s string) RelationKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "finish_to_start", "finish-to-start", "fs":
		return FinishToStart
	case "start_to_start", "start-to-start", "ss":
		return StartToStart
	case "finish_to_finish", "finish-to-finish", "ff":
		return FinishToFinish
	case "start_to_finish", "start-to-finish", "sf":
		return StartToFinish
	default:
		return FinishToStart
	}
}

// DependencyEdge links a task to a predecessor it is constrained by.
// Lag is a signed day offset; negative lag expresses overlap (lead).
type DependencyEdge struct {
	Predecessor string       `yaml:"predecessor" json:"predecessor"`
	Relation    RelationKind `yaml:"relation" json:"relation"`
	Lag         int          `yaml:"lag,omitempty" json:"lag,omitempty"`
}

// ParseDependency parses the legacy "taskID:relation:lag" wire form into
// a DependencyEdge. The relation and lag segments are optional; a bare
// task ID means finish-to-start with no lag. Parsing happens once at the
// data-model boundary so the scheduler never re-reads strings.
func ParseDependency(s string) (DependencyEdge, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 0 || parts[0] == "" {
		return DependencyEdge{}, fmt.Errorf("empty dependency reference")
	}
	edge := DependencyEdge{
		Predecessor: parts[0],
		Relation:    FinishToStart,
	}
	if len(parts) > 1 && parts[1] != "" {
		edge.Relation = ParseRelationKind(parts[1])
	}
	if len(parts) > 2 && parts[2] != "" {
		lag, err := strconv.Atoi(parts[2])
		if err != nil {
			return DependencyEdge{}, fmt.Errorf("invalid lag in dependency %q: %w", s, err)
		}
		edge.Lag = lag
	}
	if len(parts) > 3 {
		return DependencyEdge{}, fmt.Errorf("malformed dependency reference %q", s)
	}
	return edge, nil
}

// String renders the edge in the legacy "taskID:relation:lag" form.
func (e DependencyEdge) String() string {
	return fmt.Sprintf("%s:%s:%d", e.Predecessor, e.Relation, e.Lag)
}
