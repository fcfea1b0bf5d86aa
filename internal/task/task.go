package task

// Task is the central scheduling entity. Dates are calendar dates;
// Duration is a whole number of days and EndDate is inclusive, so a
// one-day task starts and ends on the same date.
type Task struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	StartDate         Date `yaml:"start_date" json:"start_date"`
	EndDate           Date `yaml:"end_date" json:"end_date"`
	BaselineStartDate Date `yaml:"baseline_start_date,omitempty" json:"baseline_start_date,omitempty"`
	BaselineEndDate   Date `yaml:"baseline_end_date,omitempty" json:"baseline_end_date,omitempty"`

	Duration int      `yaml:"duration" json:"duration"`
	Progress int      `yaml:"progress" json:"progress"`
	Status   Status   `yaml:"status" json:"status"`
	Priority Priority `yaml:"priority" json:"priority"`

	Dependencies []DependencyEdge `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`

	ParentID       string `yaml:"parent_id,omitempty" json:"parent_id,omitempty"`
	HierarchyLevel int    `yaml:"hierarchy_level" json:"hierarchy_level"`
	SortOrder      int    `yaml:"sort_order" json:"sort_order"`
	// HasChildren is derived by the hierarchy build; it is persisted for
	// display convenience but never trusted as input.
	HasChildren bool `yaml:"has_children,omitempty" json:"has_children,omitempty"`

	AssignedResources    []string `yaml:"assigned_resources,omitempty" json:"assigned_resources,omitempty"`
	AssignedStakeholders []string `yaml:"assigned_stakeholders,omitempty" json:"assigned_stakeholders,omitempty"`

	// ManualOverrideDates pins the task's dates: the scheduler must not
	// auto-adjust them, and surfaces a conflict instead.
	ManualOverrideDates bool `yaml:"manual_override_dates,omitempty" json:"manual_override_dates,omitempty"`
}

// Status represents task status
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusOnHold     Status = "ON_HOLD"
	StatusCancelled  Status = "CANCELLED"
)

// IsValid returns true if the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusOnHold, StatusCancelled:
		return true
	default:
		return false
	}
}

// Priority represents task priority
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// IsValid returns true if the priority is a known value.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// Milestone is a dated marker tasks can be linked against. It is only
// consumed by the recommendation generator.
type Milestone struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	DueDate Date   `yaml:"due_date" json:"due_date"`
}

// Validate checks the task's own field invariants. Cross-task invariants
// (dependency cycles, hierarchy shape) are checked by the scheduler and
// the hierarchy manager respectively.
func (t *Task) Validate() error {
	if t.ID == "" {
		return &ValidationError{Field: "id", Msg: "task ID cannot be empty"}
	}
	if t.Name == "" {
		return &ValidationError{TaskID: t.ID, Field: "name", Msg: "task name cannot be empty"}
	}
	if t.Duration < 1 {
		return &ValidationError{TaskID: t.ID, Field: "duration", Msg: "duration must be at least 1 day"}
	}
	if t.Progress < 0 || t.Progress > 100 {
		return &ValidationError{TaskID: t.ID, Field: "progress", Msg: "progress must be between 0 and 100"}
	}
	if t.Status != "" && !t.Status.IsValid() {
		return &ValidationError{TaskID: t.ID, Field: "status", Msg: "unknown status " + string(t.Status)}
	}
	if t.Priority != "" && !t.Priority.IsValid() {
		return &ValidationError{TaskID: t.ID, Field: "priority", Msg: "unknown priority " + string(t.Priority)}
	}
	for _, dep := range t.Dependencies {
		if dep.Predecessor == t.ID {
			return &ValidationError{TaskID: t.ID, Field: "dependencies", Msg: "task cannot depend on itself"}
		}
	}
	return nil
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.Dependencies != nil {
		c.Dependencies = make([]DependencyEdge, len(t.Dependencies))
		copy(c.Dependencies, t.Dependencies)
	}
	if t.AssignedResources != nil {
		c.AssignedResources = append([]string(nil), t.AssignedResources...)
	}
	if t.AssignedStakeholders != nil {
		c.AssignedStakeholders = append([]string(nil), t.AssignedStakeholders...)
	}
	return &c
}

// CloneAll deep-copies a task slice. Pipeline stages operate on copies so
// the caller's snapshot is never mutated.
func CloneAll(tasks []*Task) []*Task {
	out := make([]*Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// Index builds an ID lookup over a task slice.
func Index(tasks []*Task) map[string]*Task {
	byID := make(map[string]*Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	return byID
}
