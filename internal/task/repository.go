package task

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/planforge/planforge/pkg/storage"
)

// Plan is the persisted form of a project: the flat task list plus any
// milestones. The engine itself never touches storage; this repository is
// the collaborator-side store the CLI and watcher use.
type Plan struct {
	Tasks      []*Task      `yaml:"tasks"`
	Milestones []*Milestone `yaml:"milestones,omitempty"`
}

// Repository defines the interface for plan persistence operations
type Repository interface {
	Load(ctx context.Context) (*Plan, error)
	Save(ctx context.Context, plan *Plan) error
	Exists(ctx context.Context) (bool, error)
}

// StoreRepository persists a plan as a single YAML document behind a
// storage.Storage backend (local file or S3).
type StoreRepository struct {
	store storage.Storage
	path  string
}

// NewStoreRepository creates a repository writing to path within store.
func NewStoreRepository(store storage.Storage, path string) *StoreRepository {
	return &StoreRepository{store: store, path: path}
}

// Load reads and validates the plan. A missing file yields an empty plan
// so a fresh project needs no bootstrap step.
func (r *StoreRepository) Load(ctx context.Context) (*Plan, error) {
	data, err := r.store.Read(ctx, r.path)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &Plan{Tasks: []*Task{}}, nil
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	for _, t := range plan.Tasks {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("failed to load plan: %w", err)
		}
	}
	return &plan, nil
}

// Exists reports whether a plan document has been saved yet. Load maps a
// missing document to an empty plan, so this is how callers tell "no
// plan" apart from "empty plan".
func (r *StoreRepository) Exists(ctx context.Context) (bool, error) {
	return r.store.Exists(ctx, r.path)
}

// Save writes the plan back to storage.
func (r *StoreRepository) Save(ctx context.Context, plan *Plan) error {
	data, err := yaml.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := r.store.Write(ctx, r.path, data); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}
	return nil
}

// MarshalPlan renders a plan to its YAML wire form. The CLI uses it to
// diff a dry-run schedule against the stored plan.
func MarshalPlan(plan *Plan) (string, error) {
	data, err := yaml.Marshal(plan)
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}
	return string(data), nil
}
