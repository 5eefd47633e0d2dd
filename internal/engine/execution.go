package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lexline/internal/domain"
)

// ExecutionCreateOptions are parameters for filing an execution request.
type ExecutionCreateOptions struct {
	ID             string
	ClientID       string
	ClientName     string
	ContactNumber  string
	OpponentName   string
	Type           string
	ClaimAmount    *float64
	CourtName      string
	CircuitName    string
	SubmissionDate string
	AuditStatus    string
	Draft          bool
	ActorID        string
}

func (e Engine) CreateExecution(ctx context.Context, opts ExecutionCreateOptions) (domain.ExecutionRequest, error) {
	if opts.ClientID == "" {
		return domain.ExecutionRequest{}, validationf("client_id", "required")
	}
	if opts.ClientName == "" {
		return domain.ExecutionRequest{}, validationf("client_name", "required")
	}
	if opts.OpponentName == "" {
		return domain.ExecutionRequest{}, validationf("opponent_name", "required")
	}
	switch opts.Type {
	case "financial":
		if opts.ClaimAmount == nil || *opts.ClaimAmount <= 0 {
			return domain.ExecutionRequest{}, validationf("claim_amount", "required for financial executions")
		}
	case "direct", "personal":
	default:
		return domain.ExecutionRequest{}, validationf("type", "unknown execution type %q", opts.Type)
	}
	if opts.AuditStatus == "" {
		opts.AuditStatus = "complete"
	}
	if opts.AuditStatus != "complete" && opts.AuditStatus != "incomplete" {
		return domain.ExecutionRequest{}, validationf("audit_status", "unknown audit status %q", opts.AuditStatus)
	}

	now := e.nowString()
	if opts.SubmissionDate == "" {
		opts.SubmissionDate = now
	} else if _, err := time.Parse(time.RFC3339, opts.SubmissionDate); err != nil {
		return domain.ExecutionRequest{}, validationf("submission_date", "not RFC3339: %v", err)
	}
	status := "registered"
	if opts.Draft {
		status = "draft"
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	req := domain.ExecutionRequest{
		ID:             id,
		ClientID:       opts.ClientID,
		ClientName:     opts.ClientName,
		ContactNumber:  opts.ContactNumber,
		OpponentName:   opts.OpponentName,
		Type:           opts.Type,
		ClaimAmount:    opts.ClaimAmount,
		CourtName:      opts.CourtName,
		CircuitName:    opts.CircuitName,
		SubmissionDate: opts.SubmissionDate,
		AuditStatus:    opts.AuditStatus,
		Status:         status,
		CreatedAt:      now,
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ExecutionRequest{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertExecution(ctx, tx, req); err != nil {
		return domain.ExecutionRequest{}, fmt.Errorf("insert execution: %w", err)
	}
	if err := e.Log.Append(ctx, tx, "execution", req.ID, opts.ActorID, "execution.create", "status="+status); err != nil {
		return domain.ExecutionRequest{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ExecutionRequest{}, err
	}
	return req, nil
}

// RegisterExecution moves a draft request to registered, starting the
// statutory response clock at the recorded submission date.
func (e Engine) RegisterExecution(ctx context.Context, id, actorID string) (domain.ExecutionRequest, error) {
	return e.applyExecutionEvent(ctx, id, actorID, "register", func(req *domain.ExecutionRequest) error {
		if req.Status != "draft" {
			return &InvalidTransitionError{Entity: "execution", From: req.Status, Event: "register"}
		}
		req.Status = "registered"
		return nil
	})
}

// AddDecision records a judicial decision. Recording any decision on an
// escalated request clears the urgent flag back to in_progress.
func (e Engine) AddDecision(ctx context.Context, executionID, decType, customType, date, actorID string) (domain.ExecutionRequest, error) {
	switch decType {
	case "34", "46":
	case "other":
		if customType == "" {
			return domain.ExecutionRequest{}, validationf("custom_type", "required for decision type other")
		}
	default:
		return domain.ExecutionRequest{}, validationf("type", "unknown decision type %q", decType)
	}
	if date == "" {
		date = e.nowString()
	} else if _, err := time.Parse(time.RFC3339, date); err != nil {
		return domain.ExecutionRequest{}, validationf("date", "not RFC3339: %v", err)
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ExecutionRequest{}, err
	}
	defer tx.Rollback()
	req, err := e.Repo.GetExecutionTx(ctx, tx, executionID)
	if err != nil {
		return domain.ExecutionRequest{}, err
	}
	switch req.Status {
	case "registered", "urgent_review", "in_progress":
	default:
		return domain.ExecutionRequest{}, &InvalidTransitionError{Entity: "execution", From: req.Status, Event: "add_decision"}
	}
	d := domain.Decision{
		ID:          uuid.NewString(),
		ExecutionID: executionID,
		Type:        decType,
		Date:        date,
	}
	if customType != "" {
		d.CustomType = &customType
	}
	if err := e.Repo.InsertDecision(ctx, tx, d); err != nil {
		return domain.ExecutionRequest{}, fmt.Errorf("insert decision: %w", err)
	}
	req.Decisions = append(req.Decisions, d)
	req.Status = "in_progress"
	if err := e.Repo.UpdateExecution(ctx, tx, req); err != nil {
		return domain.ExecutionRequest{}, err
	}
	if err := e.Log.Append(ctx, tx, "execution", req.ID, actorID, "execution.decision", "type="+decType); err != nil {
		return domain.ExecutionRequest{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ExecutionRequest{}, err
	}
	return req, nil
}

// AddCollection records a recovered amount. When the running total reaches the
// claim of a financial request, the request moves to pending_closure.
func (e Engine) AddCollection(ctx context.Context, executionID string, amount float64, date, method, reference, actorID string) (domain.ExecutionRequest, error) {
	if amount <= 0 {
		return domain.ExecutionRequest{}, validationf("amount", "must be positive")
	}
	if date == "" {
		date = e.nowString()
	} else if _, err := time.Parse(time.RFC3339, date); err != nil {
		return domain.ExecutionRequest{}, validationf("date", "not RFC3339: %v", err)
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ExecutionRequest{}, err
	}
	defer tx.Rollback()
	req, err := e.Repo.GetExecutionTx(ctx, tx, executionID)
	if err != nil {
		return domain.ExecutionRequest{}, err
	}
	switch req.Status {
	case "registered", "urgent_review", "in_progress":
	default:
		return domain.ExecutionRequest{}, &InvalidTransitionError{Entity: "execution", From: req.Status, Event: "add_collection"}
	}
	c := domain.Collection{
		ID:          uuid.NewString(),
		ExecutionID: executionID,
		Amount:      amount,
		Date:        date,
		Method:      method,
		Reference:   reference,
	}
	if err := e.Repo.InsertCollection(ctx, tx, c); err != nil {
		return domain.ExecutionRequest{}, fmt.Errorf("insert collection: %w", err)
	}
	req.Collections = append(req.Collections, c)
	action := "execution.collection"
	if req.Type == "financial" && req.ClaimAmount != nil && req.TotalCollected() >= *req.ClaimAmount {
		req.Status = "pending_closure"
		action = "execution.claim_satisfied"
	}
	if err := e.Repo.UpdateExecution(ctx, tx, req); err != nil {
		return domain.ExecutionRequest{}, err
	}
	if err := e.Log.Append(ctx, tx, "execution", req.ID, actorID, action, fmt.Sprintf("amount=%.2f total=%.2f", amount, req.TotalCollected())); err != nil {
		return domain.ExecutionRequest{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ExecutionRequest{}, err
	}
	return req, nil
}

// SuspendExecution parks an active request with a mandatory note.
func (e Engine) SuspendExecution(ctx context.Context, id, note, actorID string) (domain.ExecutionRequest, error) {
	if note == "" {
		return domain.ExecutionRequest{}, validationf("note", "required to suspend")
	}
	return e.applyExecutionEvent(ctx, id, actorID, "suspend", func(req *domain.ExecutionRequest) error {
		switch req.Status {
		case "registered", "urgent_review", "in_progress":
		default:
			return &InvalidTransitionError{Entity: "execution", From: req.Status, Event: "suspend"}
		}
		req.Status = "suspended"
		req.SuspensionNote = &note
		return nil
	})
}

// ReactivateExecution resumes a suspended request.
func (e Engine) ReactivateExecution(ctx context.Context, id, actorID string) (domain.ExecutionRequest, error) {
	return e.applyExecutionEvent(ctx, id, actorID, "reactivate", func(req *domain.ExecutionRequest) error {
		if req.Status != "suspended" {
			return &InvalidTransitionError{Entity: "execution", From: req.Status, Event: "reactivate"}
		}
		req.Status = "in_progress"
		req.SuspensionNote = nil
		return nil
	})
}

// CompleteExecution moves a direct or personal request to pending_closure.
// Financial requests reach pending_closure only through collections covering
// the claim.
func (e Engine) CompleteExecution(ctx context.Context, id, actorID string) (domain.ExecutionRequest, error) {
	return e.applyExecutionEvent(ctx, id, actorID, "complete", func(req *domain.ExecutionRequest) error {
		if req.Type == "financial" {
			return validationf("type", "financial requests complete through collections")
		}
		switch req.Status {
		case "registered", "urgent_review", "in_progress":
		default:
			return &InvalidTransitionError{Entity: "execution", From: req.Status, Event: "complete"}
		}
		req.Status = "pending_closure"
		return nil
	})
}

// CloseExecution archives a request awaiting closure.
func (e Engine) CloseExecution(ctx context.Context, id, reason, actorID string) (domain.ExecutionRequest, error) {
	if reason == "" {
		return domain.ExecutionRequest{}, validationf("reason", "required to close")
	}
	return e.applyExecutionEvent(ctx, id, actorID, "close", func(req *domain.ExecutionRequest) error {
		if req.Status != "pending_closure" {
			return &InvalidTransitionError{Entity: "execution", From: req.Status, Event: "close"}
		}
		req.Status = "closed"
		req.ClosingReason = &reason
		closedAt := e.nowString()
		req.ClosedAt = &closedAt
		return nil
	})
}

func (e Engine) applyExecutionEvent(ctx context.Context, id, actorID, event string, mutate func(*domain.ExecutionRequest) error) (domain.ExecutionRequest, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ExecutionRequest{}, err
	}
	defer tx.Rollback()
	req, err := e.Repo.GetExecutionTx(ctx, tx, id)
	if err != nil {
		return domain.ExecutionRequest{}, err
	}
	from := req.Status
	if err := mutate(&req); err != nil {
		return domain.ExecutionRequest{}, err
	}
	if err := e.Repo.UpdateExecution(ctx, tx, req); err != nil {
		return domain.ExecutionRequest{}, err
	}
	if err := e.Log.Append(ctx, tx, "execution", req.ID, actorID, "execution."+event, from+" -> "+req.Status); err != nil {
		return domain.ExecutionRequest{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ExecutionRequest{}, err
	}
	return req, nil
}

// EscalateOverdue scans open executions and flags the ones past a statutory
// response window as urgent_review. Returns the ids it escalated. Safe to run
// repeatedly: escalated requests leave the scanned set until a decision
// arrives.
func (e Engine) EscalateOverdue(ctx context.Context, actorID string) ([]string, error) {
	open, err := e.Repo.ListOpenExecutions(ctx)
	if err != nil {
		return nil, err
	}
	now := e.now().UTC()
	var escalated []string
	for _, req := range open {
		reason, overdue := e.overdueReason(req, now)
		if !overdue {
			continue
		}
		if err := e.escalateOne(ctx, req.ID, reason, actorID); err != nil {
			return escalated, err
		}
		escalated = append(escalated, req.ID)
	}
	return escalated, nil
}

func (e Engine) overdueReason(req domain.ExecutionRequest, now time.Time) (string, bool) {
	if !req.HasDecision("34") {
		submitted, err := time.Parse(time.RFC3339, req.SubmissionDate)
		if err == nil && now.Sub(submitted) > e.Config.Decision34Window() {
			return "no decision 34 within window", true
		}
		return "", false
	}
	if req.Type != "financial" || req.HasDecision("46") {
		return "", false
	}
	date34, ok := req.DecisionDate("34")
	if !ok {
		return "", false
	}
	issued, err := time.Parse(time.RFC3339, date34)
	if err == nil && now.Sub(issued) > e.Config.Decision46Window() {
		return "no decision 46 within window", true
	}
	return "", false
}

func (e Engine) escalateOne(ctx context.Context, id, reason, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	req, err := e.Repo.GetExecutionTx(ctx, tx, id)
	if err != nil {
		return err
	}
	switch req.Status {
	case "registered", "in_progress":
	default:
		return nil
	}
	req.Status = "urgent_review"
	if err := e.Repo.UpdateExecution(ctx, tx, req); err != nil {
		return err
	}
	if err := e.Log.Append(ctx, tx, "execution", req.ID, actorID, "execution.escalate", reason); err != nil {
		return err
	}
	return tx.Commit()
}
