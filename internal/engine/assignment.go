package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"lexline/internal/domain"
)

func validDepartment(d string) bool {
	switch d {
	case "financial", "commercial", "labor", "administrative", "documentation":
		return true
	}
	return false
}

// IntakeCreateOptions are parameters for opening a client-intake assignment.
type IntakeCreateOptions struct {
	ID           string
	Department   string
	ClientName   string
	ClientPhone  string
	Subject      string
	NextStep     string
	DeadlineDate string
	ActorID      string
}

func (e Engine) CreateIntake(ctx context.Context, opts IntakeCreateOptions) (domain.IntakeAssignment, error) {
	if !validDepartment(opts.Department) {
		return domain.IntakeAssignment{}, validationf("department", "unknown department %q", opts.Department)
	}
	if opts.ClientName == "" {
		return domain.IntakeAssignment{}, validationf("client_name", "required")
	}
	if opts.Subject == "" {
		return domain.IntakeAssignment{}, validationf("subject", "required")
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	a := domain.IntakeAssignment{
		ID:           id,
		Department:   opts.Department,
		ClientName:   opts.ClientName,
		ClientPhone:  opts.ClientPhone,
		Subject:      opts.Subject,
		NextStep:     opts.NextStep,
		CurrentStage: 1,
		Status:       "pending",
		CreatedAt:    e.nowString(),
	}
	if opts.DeadlineDate != "" {
		a.DeadlineDate = &opts.DeadlineDate
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.IntakeAssignment{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertIntake(ctx, tx, a); err != nil {
		return domain.IntakeAssignment{}, fmt.Errorf("insert intake: %w", err)
	}
	if err := e.Log.Append(ctx, tx, "intake", a.ID, opts.ActorID, "intake.create", "department="+a.Department); err != nil {
		return domain.IntakeAssignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.IntakeAssignment{}, err
	}
	return a, nil
}

// AcceptIntake puts an employee on a pending assignment.
func (e Engine) AcceptIntake(ctx context.Context, id, employeeID, actorID string) (domain.IntakeAssignment, error) {
	if employeeID == "" {
		return domain.IntakeAssignment{}, validationf("employee_id", "required")
	}
	return e.applyIntakeEvent(ctx, id, actorID, "accept", func(a *domain.IntakeAssignment) error {
		if a.Status != "pending" {
			return &InvalidTransitionError{Entity: "intake", From: a.Status, Event: "accept"}
		}
		a.Status = "in_progress"
		a.EmployeeID = &employeeID
		return nil
	})
}

// AdvanceIntake moves the assignment one stage forward. Stages only advance,
// never rewind, and stop at the signing stage.
func (e Engine) AdvanceIntake(ctx context.Context, id, nextStep, deadlineDate, actorID string) (domain.IntakeAssignment, error) {
	return e.applyIntakeEvent(ctx, id, actorID, "advance", func(a *domain.IntakeAssignment) error {
		switch a.Status {
		case "in_progress", "waiting_info":
		default:
			return &InvalidTransitionError{Entity: "intake", From: a.Status, Event: "advance"}
		}
		if a.CurrentStage >= domain.IntakeStageCount {
			return validationf("stage", "already at final stage %d", domain.IntakeStageCount)
		}
		a.CurrentStage++
		a.Status = "in_progress"
		a.MissingInfo = nil
		a.NextStep = nextStep
		if deadlineDate != "" {
			a.DeadlineDate = &deadlineDate
		}
		return nil
	})
}

// IntakeMissingInfo parks the assignment until the named information arrives.
func (e Engine) IntakeMissingInfo(ctx context.Context, id, missing, actorID string) (domain.IntakeAssignment, error) {
	if missing == "" {
		return domain.IntakeAssignment{}, validationf("missing_info", "required")
	}
	return e.applyIntakeEvent(ctx, id, actorID, "missing_info", func(a *domain.IntakeAssignment) error {
		if a.Status != "in_progress" {
			return &InvalidTransitionError{Entity: "intake", From: a.Status, Event: "missing_info"}
		}
		a.Status = "waiting_info"
		a.MissingInfo = &missing
		return nil
	})
}

// IntakeOutcome carries the terminal result of an intake assignment.
type IntakeOutcome struct {
	Result          string // signed, rejected, expired
	ContractID      string
	RejectionReason string
	ActorID         string
}

// CloseIntake ends the assignment. Signing is only possible at the final
// stage and requires the contract id; rejection requires a reason.
func (e Engine) CloseIntake(ctx context.Context, id string, out IntakeOutcome) (domain.IntakeAssignment, error) {
	return e.applyIntakeEvent(ctx, id, out.ActorID, "close", func(a *domain.IntakeAssignment) error {
		switch a.Status {
		case "in_progress", "waiting_info":
		default:
			return &InvalidTransitionError{Entity: "intake", From: a.Status, Event: "close"}
		}
		switch out.Result {
		case "signed":
			if a.CurrentStage != domain.IntakeStageCount {
				return validationf("result", "signing requires stage %d, at %d", domain.IntakeStageCount, a.CurrentStage)
			}
			if out.ContractID == "" {
				return validationf("contract_id", "required for signed outcome")
			}
			a.Status = "completed_signed"
			a.ContractID = &out.ContractID
		case "rejected":
			if out.RejectionReason == "" {
				return validationf("rejection_reason", "required for rejected outcome")
			}
			a.Status = "completed_rejected"
			a.RejectionReason = &out.RejectionReason
		case "expired":
			a.Status = "completed_expired"
		default:
			return validationf("result", "unknown outcome %q", out.Result)
		}
		return nil
	})
}

func (e Engine) applyIntakeEvent(ctx context.Context, id, actorID, event string, mutate func(*domain.IntakeAssignment) error) (domain.IntakeAssignment, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.IntakeAssignment{}, err
	}
	defer tx.Rollback()
	a, err := e.Repo.GetIntakeTx(ctx, tx, id)
	if err != nil {
		return domain.IntakeAssignment{}, err
	}
	from := a.Status
	if err := mutate(&a); err != nil {
		return domain.IntakeAssignment{}, err
	}
	if err := e.Repo.UpdateIntake(ctx, tx, a); err != nil {
		return domain.IntakeAssignment{}, err
	}
	details := fmt.Sprintf("%s -> %s stage=%d", from, a.Status, a.CurrentStage)
	if err := e.Log.Append(ctx, tx, "intake", a.ID, actorID, "intake."+event, details); err != nil {
		return domain.IntakeAssignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.IntakeAssignment{}, err
	}
	return a, nil
}

// DeptCreateOptions are parameters for handing work to a department.
type DeptCreateOptions struct {
	ID           string
	Department   string
	ContractRef  string
	ClientRef    string
	TaskType     string
	Weight       int
	Subject      string
	NextStep     string
	DeadlineDate string
	ActorID      string
}

func (e Engine) CreateDept(ctx context.Context, opts DeptCreateOptions) (domain.DeptAssignment, error) {
	if !validDepartment(opts.Department) {
		return domain.DeptAssignment{}, validationf("department", "unknown department %q", opts.Department)
	}
	switch opts.TaskType {
	case "review", "study", "other":
	default:
		return domain.DeptAssignment{}, validationf("task_type", "unknown task type %q", opts.TaskType)
	}
	if opts.Subject == "" {
		return domain.DeptAssignment{}, validationf("subject", "required")
	}
	if opts.Weight <= 0 {
		opts.Weight = 1
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	a := domain.DeptAssignment{
		ID:          id,
		Department:  opts.Department,
		ContractRef: opts.ContractRef,
		ClientRef:   opts.ClientRef,
		TaskType:    opts.TaskType,
		Weight:      opts.Weight,
		Subject:     opts.Subject,
		NextStep:    opts.NextStep,
		Status:      "pending",
		CreatedAt:   e.nowString(),
	}
	if opts.DeadlineDate != "" {
		a.DeadlineDate = &opts.DeadlineDate
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.DeptAssignment{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertDept(ctx, tx, a); err != nil {
		return domain.DeptAssignment{}, fmt.Errorf("insert dept assignment: %w", err)
	}
	if err := e.Log.Append(ctx, tx, "dept_assignment", a.ID, opts.ActorID, "dept.create", "department="+a.Department); err != nil {
		return domain.DeptAssignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.DeptAssignment{}, err
	}
	return a, nil
}

// AcceptDept puts an employee on a pending department assignment.
func (e Engine) AcceptDept(ctx context.Context, id, employeeID, actorID string) (domain.DeptAssignment, error) {
	if employeeID == "" {
		return domain.DeptAssignment{}, validationf("employee_id", "required")
	}
	return e.applyDeptEvent(ctx, id, actorID, "accept", func(a *domain.DeptAssignment) error {
		if a.Status != "pending" {
			return &InvalidTransitionError{Entity: "dept_assignment", From: a.Status, Event: "accept"}
		}
		a.Status = "in_progress"
		a.EmployeeID = &employeeID
		return nil
	})
}

// DeptMissingInfo parks the assignment until the named information arrives.
func (e Engine) DeptMissingInfo(ctx context.Context, id, missing, actorID string) (domain.DeptAssignment, error) {
	if missing == "" {
		return domain.DeptAssignment{}, validationf("missing_info", "required")
	}
	return e.applyDeptEvent(ctx, id, actorID, "missing_info", func(a *domain.DeptAssignment) error {
		if a.Status != "in_progress" {
			return &InvalidTransitionError{Entity: "dept_assignment", From: a.Status, Event: "missing_info"}
		}
		a.Status = "waiting_info"
		a.MissingInfo = &missing
		return nil
	})
}

// ResumeDept clears a waiting_info park once the information arrived.
func (e Engine) ResumeDept(ctx context.Context, id, actorID string) (domain.DeptAssignment, error) {
	return e.applyDeptEvent(ctx, id, actorID, "resume", func(a *domain.DeptAssignment) error {
		if a.Status != "waiting_info" {
			return &InvalidTransitionError{Entity: "dept_assignment", From: a.Status, Event: "resume"}
		}
		a.Status = "in_progress"
		a.MissingInfo = nil
		return nil
	})
}

// CloseDept ends the assignment as done or incomplete. Incomplete requires a
// reason.
func (e Engine) CloseDept(ctx context.Context, id, result, reason, actorID string) (domain.DeptAssignment, error) {
	return e.applyDeptEvent(ctx, id, actorID, "close", func(a *domain.DeptAssignment) error {
		switch a.Status {
		case "in_progress", "waiting_info":
		default:
			return &InvalidTransitionError{Entity: "dept_assignment", From: a.Status, Event: "close"}
		}
		switch result {
		case "done":
			a.Status = "completed_done"
		case "incomplete":
			if reason == "" {
				return validationf("reason", "required for incomplete outcome")
			}
			a.Status = "completed_incomplete"
			a.IncompleteReason = &reason
		default:
			return validationf("result", "unknown outcome %q", result)
		}
		return nil
	})
}

func (e Engine) applyDeptEvent(ctx context.Context, id, actorID, event string, mutate func(*domain.DeptAssignment) error) (domain.DeptAssignment, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.DeptAssignment{}, err
	}
	defer tx.Rollback()
	a, err := e.Repo.GetDeptTx(ctx, tx, id)
	if err != nil {
		return domain.DeptAssignment{}, err
	}
	from := a.Status
	if err := mutate(&a); err != nil {
		return domain.DeptAssignment{}, err
	}
	if err := e.Repo.UpdateDept(ctx, tx, a); err != nil {
		return domain.DeptAssignment{}, err
	}
	if err := e.Log.Append(ctx, tx, "dept_assignment", a.ID, actorID, "dept."+event, from+" -> "+a.Status); err != nil {
		return domain.DeptAssignment{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.DeptAssignment{}, err
	}
	return a, nil
}
