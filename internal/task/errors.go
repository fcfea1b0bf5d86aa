package task

import "fmt"

// ValidationError reports a task field that violates a model invariant.
// It is caller-correctable and never fatal.
type ValidationError struct {
	TaskID string
	Field  string
	Msg    string
}

func (e *ValidationError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("invalid task: %s", e.Msg)
	}
	return fmt.Sprintf("invalid task %s: %s", e.TaskID, e.Msg)
}
