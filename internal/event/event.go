package event

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents the type of event
type EventType string

const (
	// Schedule events
	ScheduleRecomputed EventType = "schedule.recomputed"
	ConflictsFound     EventType = "schedule.conflicts_detected"

	// Plan events
	PlanReloaded EventType = "plan.reloaded"
	TaskMoved    EventType = "task.moved"
)

// Event represents a typed system event
type Event[T any] struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Data      T         `json:"data"`
}

// EventMessage represents a serialized event for transport
type EventMessage struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent creates a new typed event
func NewEvent[T any](source string, data T) *Event[T] {
	return &Event[T]{
		ID:        ulid.Make().String(),
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	}
}

// ToMessage converts a typed event to a transport message
func (e *Event[T]) ToMessage() (*EventMessage, error) {
	rawData, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return &EventMessage{
		ID:        e.ID,
		Type:      inferEventType(e.Data),
		Timestamp: e.Timestamp,
		Source:    e.Source,
		Data:      rawData,
	}, nil
}

// FromMessage converts a transport message to a typed event
func FromMessage[T any](msg *EventMessage) (*Event[T], error) {
	var data T
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return nil, err
	}
	return &Event[T]{
		ID:        msg.ID,
		Timestamp: msg.Timestamp,
		Source:    msg.Source,
		Data:      data,
	}, nil
}

// inferEventType maps a payload type to its event type.
func inferEventType(data any) EventType {
	switch data.(type) {
	case ScheduleRecomputedData, *ScheduleRecomputedData:
		return ScheduleRecomputed
	case ConflictsDetectedData, *ConflictsDetectedData:
		return ConflictsFound
	case PlanReloadedData, *PlanReloadedData:
		return PlanReloaded
	case TaskMovedData, *TaskMovedData:
		return TaskMoved
	default:
		return EventType("unknown")
	}
}

// ScheduleRecomputedData is published after a full pipeline run.
type ScheduleRecomputedData struct {
	TaskCount     int `json:"task_count"`
	ConflictCount int `json:"conflict_count"`
	// TotalDurationDays mirrors the critical-path report for dashboards
	// that only listen to events.
	TotalDurationDays int `json:"total_duration_days"`
}

// ConflictsDetectedData is published when a recompute produced at least
// one conflict.
type ConflictsDetectedData struct {
	TaskIDs      []string `json:"task_ids"`
	HighSeverity int      `json:"high_severity"`
	Total        int      `json:"total"`
}

// PlanReloadedData is published by the watcher when the plan file
// changes on disk.
type PlanReloadedData struct {
	Path      string `json:"path"`
	TaskCount int    `json:"task_count"`
}

// TaskMovedData is published after a hierarchy move is applied.
type TaskMovedData struct {
	TaskID      string `json:"task_id"`
	OldParentID string `json:"old_parent_id"`
	NewParentID string `json:"new_parent_id"`
}
