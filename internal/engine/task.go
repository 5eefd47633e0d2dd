package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"lexline/internal/domain"
)

// TaskCreateOptions are parameters for creating an operational task.
type TaskCreateOptions struct {
	ID               string
	Name             string
	Origin           string
	ReferenceID      string
	ReferenceLabel   string
	ExecutorID       string
	ReviewerID       string
	Load             int
	NextStep         string
	NextStepDate     string
	RequiresApproval bool
	ActorID          string
}

func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	if opts.Name == "" {
		return domain.Task{}, validationf("name", "required")
	}
	switch opts.Origin {
	case "assignments", "cases", "execution", "projects", "liquidation", "contracts":
	default:
		return domain.Task{}, validationf("origin", "unknown origin %q", opts.Origin)
	}
	if opts.ExecutorID == "" {
		return domain.Task{}, validationf("executor_id", "required")
	}
	if opts.RequiresApproval && opts.ReviewerID == "" {
		return domain.Task{}, validationf("reviewer_id", "required when approval is required")
	}
	if opts.Load <= 0 {
		opts.Load = 1
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	t := domain.Task{
		ID:               id,
		Name:             opts.Name,
		Origin:           opts.Origin,
		ReferenceID:      opts.ReferenceID,
		ReferenceLabel:   opts.ReferenceLabel,
		ExecutorID:       opts.ExecutorID,
		Load:             opts.Load,
		Status:           "new",
		RequiresApproval: opts.RequiresApproval,
		CreatedBy:        opts.ActorID,
		CreatedAt:        e.nowString(),
	}
	if opts.ReviewerID != "" {
		t.ReviewerID = &opts.ReviewerID
	}
	if opts.NextStep != "" {
		t.NextStep = &opts.NextStep
	}
	if opts.NextStepDate != "" {
		t.NextStepDate = &opts.NextStepDate
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertTask(ctx, tx, t); err != nil {
		return domain.Task{}, fmt.Errorf("insert task: %w", err)
	}
	if err := e.Log.Append(ctx, tx, "task", t.ID, opts.ActorID, "task.create", "origin="+t.Origin); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}

func ensureTaskTransition(oldStatus, newStatus string) error {
	switch oldStatus {
	case "new":
		if newStatus == "in_progress" {
			return nil
		}
	case "in_progress":
		if newStatus == "waiting_info" {
			return nil
		}
	case "waiting_info":
		if newStatus == "in_progress" {
			return nil
		}
	}
	return &InvalidTransitionError{Entity: "task", From: oldStatus, Event: "set_status " + newStatus}
}

// SetTaskStatus moves a task between its working statuses. Closing and
// approval go through CompleteTask and ApproveTask.
func (e Engine) SetTaskStatus(ctx context.Context, id, status, nextStep, nextStepDate, actorID string) (domain.Task, error) {
	switch status {
	case "in_progress", "waiting_info":
	default:
		return domain.Task{}, validationf("status", "status %q not settable directly", status)
	}
	return e.applyTaskEvent(ctx, id, actorID, "status", func(t *domain.Task) error {
		if err := ensureTaskTransition(t.Status, status); err != nil {
			return err
		}
		t.Status = status
		if nextStep != "" {
			t.NextStep = &nextStep
		}
		if nextStepDate != "" {
			t.NextStepDate = &nextStepDate
		}
		return nil
	})
}

// CompleteTask finishes the executor's work. The result is mandatory. Tasks
// requiring approval park at waiting_approval for the reviewer; the rest
// close immediately.
func (e Engine) CompleteTask(ctx context.Context, id, result, actorID string) (domain.Task, error) {
	if result == "" {
		return domain.Task{}, validationf("result", "required to complete")
	}
	return e.applyTaskEvent(ctx, id, actorID, "complete", func(t *domain.Task) error {
		switch t.Status {
		case "new", "in_progress", "waiting_info":
		default:
			return &InvalidTransitionError{Entity: "task", From: t.Status, Event: "complete"}
		}
		t.Result = &result
		if t.RequiresApproval {
			t.Status = "waiting_approval"
			return nil
		}
		t.Status = "closed"
		closedAt := e.nowString()
		t.ClosedAt = &closedAt
		return nil
	})
}

// ApproveTask is the reviewer accepting a completed task.
func (e Engine) ApproveTask(ctx context.Context, id, actorID string) (domain.Task, error) {
	return e.applyTaskEvent(ctx, id, actorID, "approve", func(t *domain.Task) error {
		if t.Status != "waiting_approval" {
			return &InvalidTransitionError{Entity: "task", From: t.Status, Event: "approve"}
		}
		t.Status = "closed"
		closedAt := e.nowString()
		t.ClosedAt = &closedAt
		return nil
	})
}

// ReturnTask is the reviewer sending a completed task back to the executor.
func (e Engine) ReturnTask(ctx context.Context, id, note, actorID string) (domain.Task, error) {
	if note == "" {
		return domain.Task{}, validationf("note", "required to return a task")
	}
	return e.applyTaskEvent(ctx, id, actorID, "return", func(t *domain.Task) error {
		if t.Status != "waiting_approval" {
			return &InvalidTransitionError{Entity: "task", From: t.Status, Event: "return"}
		}
		t.Status = "in_progress"
		t.Result = nil
		t.NextStep = &note
		return nil
	})
}

func (e Engine) applyTaskEvent(ctx context.Context, id, actorID, event string, mutate func(*domain.Task) error) (domain.Task, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Task{}, err
	}
	defer tx.Rollback()
	t, err := e.Repo.GetTaskTx(ctx, tx, id)
	if err != nil {
		return domain.Task{}, err
	}
	from := t.Status
	if err := mutate(&t); err != nil {
		return domain.Task{}, err
	}
	if err := e.Repo.UpdateTask(ctx, tx, t); err != nil {
		return domain.Task{}, err
	}
	if err := e.Log.Append(ctx, tx, "task", t.ID, actorID, "task."+event, from+" -> "+t.Status); err != nil {
		return domain.Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Task{}, err
	}
	return t, nil
}
