package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"lexline/internal/domain"
)

// PipelineCreateOptions are parameters for proposing a business-development
// opportunity.
type PipelineCreateOptions struct {
	ID           string
	Name         string
	Entity       string
	ProposalDate string
	ReviewerID   string
	ActorID      string
}

func (e Engine) CreatePipelineItem(ctx context.Context, opts PipelineCreateOptions) (domain.PipelineItem, error) {
	if opts.Name == "" {
		return domain.PipelineItem{}, validationf("name", "required")
	}
	if opts.Entity == "" {
		return domain.PipelineItem{}, validationf("entity", "required")
	}
	if opts.ReviewerID == "" {
		return domain.PipelineItem{}, validationf("reviewer_id", "required")
	}
	if opts.ProposalDate == "" {
		opts.ProposalDate = e.nowString()
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	p := domain.PipelineItem{
		ID:           id,
		Name:         opts.Name,
		Entity:       opts.Entity,
		ProposalDate: opts.ProposalDate,
		ReviewerID:   opts.ReviewerID,
		CurrentStage: domain.PipelineStages[0],
		Status:       "in_progress",
		CreatedAt:    e.nowString(),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.PipelineItem{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertPipelineItem(ctx, tx, p); err != nil {
		return domain.PipelineItem{}, fmt.Errorf("insert pipeline item: %w", err)
	}
	if err := e.Log.Append(ctx, tx, "pipeline", p.ID, opts.ActorID, "pipeline.create", "stage="+p.CurrentStage); err != nil {
		return domain.PipelineItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.PipelineItem{}, err
	}
	return p, nil
}

// ReviewerDecision records the first-gate opinion. Acceptance hands the item
// to an assignee; rejection archives it for good.
func (e Engine) ReviewerDecision(ctx context.Context, id, opinion, assigneeType, assigneeID, actorID string) (domain.PipelineItem, error) {
	return e.applyPipelineEvent(ctx, id, actorID, "reviewer_decision", func(p *domain.PipelineItem) error {
		if p.Status != "in_progress" || p.CurrentStage != "review_decision" {
			return &InvalidTransitionError{Entity: "pipeline", From: p.CurrentStage, Event: "reviewer_decision"}
		}
		switch opinion {
		case "accept":
			if assigneeType != "dept" && assigneeType != "emp" {
				return validationf("assignee_type", "must be dept or emp")
			}
			if assigneeID == "" {
				return validationf("assignee_id", "required on acceptance")
			}
			p.ReviewerOpinion = &opinion
			p.AssigneeType = &assigneeType
			p.AssigneeID = &assigneeID
			p.CurrentStage = "assignee_decision"
		case "reject":
			p.ReviewerOpinion = &opinion
			p.Status = "archived"
		default:
			return validationf("opinion", "must be accept or reject")
		}
		return nil
	})
}

// AssigneeDecision records the second-gate opinion. Rejection needs a reason
// and sends the item back to the reviewer gate instead of archiving it.
func (e Engine) AssigneeDecision(ctx context.Context, id, opinion, reason, actorID string) (domain.PipelineItem, error) {
	return e.applyPipelineEvent(ctx, id, actorID, "assignee_decision", func(p *domain.PipelineItem) error {
		if p.Status != "in_progress" || p.CurrentStage != "assignee_decision" {
			return &InvalidTransitionError{Entity: "pipeline", From: p.CurrentStage, Event: "assignee_decision"}
		}
		switch opinion {
		case "accept":
			p.AssigneeOpinion = &opinion
			p.CurrentStage = "draft_proposal"
		case "reject":
			if reason == "" {
				return validationf("reason", "required on assignee rejection")
			}
			p.RejectionReason = &reason
			p.ReviewerOpinion = nil
			p.AssigneeType = nil
			p.AssigneeID = nil
			p.AssigneeOpinion = nil
			p.CurrentStage = "review_decision"
		default:
			return validationf("opinion", "must be accept or reject")
		}
		return nil
	})
}

// EscalatePipelineItem skips the assignee gate and jumps straight to
// drafting, marking the item escalated.
func (e Engine) EscalatePipelineItem(ctx context.Context, id, actorID string) (domain.PipelineItem, error) {
	return e.applyPipelineEvent(ctx, id, actorID, "escalate", func(p *domain.PipelineItem) error {
		if p.Status != "in_progress" {
			return &InvalidTransitionError{Entity: "pipeline", From: p.Status, Event: "escalate"}
		}
		switch p.CurrentStage {
		case "review_decision", "assignee_decision":
		default:
			return &InvalidTransitionError{Entity: "pipeline", From: p.CurrentStage, Event: "escalate"}
		}
		p.Escalated = true
		p.CurrentStage = "draft_proposal"
		return nil
	})
}

// AdvancePipelineItem moves the item to the next proposal stage. The walk is
// one-way and the decision gates cannot be crossed by advancing. follow_up
// has no successor.
func (e Engine) AdvancePipelineItem(ctx context.Context, id, actorID string) (domain.PipelineItem, error) {
	return e.applyPipelineEvent(ctx, id, actorID, "advance", func(p *domain.PipelineItem) error {
		if p.Status != "in_progress" {
			return &InvalidTransitionError{Entity: "pipeline", From: p.Status, Event: "advance"}
		}
		switch p.CurrentStage {
		case "review_decision", "assignee_decision":
			return &InvalidTransitionError{Entity: "pipeline", From: p.CurrentStage, Event: "advance"}
		}
		next, ok := domain.NextPipelineStage(p.CurrentStage)
		if !ok {
			return &InvalidTransitionError{Entity: "pipeline", From: p.CurrentStage, Event: "advance"}
		}
		p.CurrentStage = next
		return nil
	})
}

// ArchivePipelineItem retires an item from the follow-up stage.
func (e Engine) ArchivePipelineItem(ctx context.Context, id, actorID string) (domain.PipelineItem, error) {
	return e.applyPipelineEvent(ctx, id, actorID, "archive", func(p *domain.PipelineItem) error {
		if p.Status != "in_progress" || p.CurrentStage != "follow_up" {
			return &InvalidTransitionError{Entity: "pipeline", From: p.CurrentStage, Event: "archive"}
		}
		p.Status = "archived"
		return nil
	})
}

func (e Engine) applyPipelineEvent(ctx context.Context, id, actorID, event string, mutate func(*domain.PipelineItem) error) (domain.PipelineItem, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.PipelineItem{}, err
	}
	defer tx.Rollback()
	p, err := e.Repo.GetPipelineItemTx(ctx, tx, id)
	if err != nil {
		return domain.PipelineItem{}, err
	}
	fromStage := p.CurrentStage
	if err := mutate(&p); err != nil {
		return domain.PipelineItem{}, err
	}
	if err := e.Repo.UpdatePipelineItem(ctx, tx, p); err != nil {
		return domain.PipelineItem{}, err
	}
	details := fmt.Sprintf("stage %s -> %s status=%s", fromStage, p.CurrentStage, p.Status)
	if err := e.Log.Append(ctx, tx, "pipeline", p.ID, actorID, "pipeline."+event, details); err != nil {
		return domain.PipelineItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.PipelineItem{}, err
	}
	return p, nil
}

// ProjectCreateOptions are parameters for opening an engagement. An unsigned
// contract opens a follow-up obligation that only a contract number clears.
type ProjectCreateOptions struct {
	ID             string
	Name           string
	ManagerID      string
	ClientName     string
	ContractStatus string
	ContractNo     string
	ActorID        string
}

func (e Engine) CreateProject(ctx context.Context, opts ProjectCreateOptions) (domain.Project, error) {
	if opts.Name == "" {
		return domain.Project{}, validationf("name", "required")
	}
	if opts.ManagerID == "" {
		return domain.Project{}, validationf("manager_id", "required")
	}
	if opts.ClientName == "" {
		return domain.Project{}, validationf("client_name", "required")
	}
	p := domain.Project{
		ID:         opts.ID,
		Name:       opts.Name,
		ManagerID:  opts.ManagerID,
		ClientName: opts.ClientName,
		Status:     "in_progress",
		CreatedAt:  e.nowString(),
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	switch opts.ContractStatus {
	case "signed":
		if opts.ContractNo == "" {
			return domain.Project{}, validationf("contract_no", "required for a signed contract")
		}
		p.ContractStatus = "signed"
		p.ContractNo = &opts.ContractNo
		p.ContractFollowUp = "none"
	case "not_signed":
		p.ContractStatus = "not_signed"
		p.ContractFollowUp = "following_up"
	default:
		return domain.Project{}, validationf("contract_status", "must be signed or not_signed")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertProject(ctx, tx, p); err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	if err := e.Log.Append(ctx, tx, "project", p.ID, opts.ActorID, "project.create", "contract="+p.ContractStatus); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}

// SetProjectContract records the signed contract number, closing the
// follow-up obligation.
func (e Engine) SetProjectContract(ctx context.Context, id, contractNo, actorID string) (domain.Project, error) {
	if contractNo == "" {
		return domain.Project{}, validationf("contract_no", "required")
	}
	return e.applyProjectEvent(ctx, id, actorID, "contract", func(p *domain.Project) error {
		if p.ContractStatus != "not_signed" {
			return &InvalidTransitionError{Entity: "project", From: p.ContractStatus, Event: "contract"}
		}
		p.ContractStatus = "signed"
		p.ContractNo = &contractNo
		p.ContractFollowUp = "done"
		return nil
	})
}

// CloseProject ends an engagement.
func (e Engine) CloseProject(ctx context.Context, id, actorID string) (domain.Project, error) {
	return e.applyProjectEvent(ctx, id, actorID, "close", func(p *domain.Project) error {
		if p.Status != "in_progress" {
			return &InvalidTransitionError{Entity: "project", From: p.Status, Event: "close"}
		}
		if p.ContractFollowUp == "following_up" {
			return &ClosurePreconditionError{Entity: "project", ID: p.ID, Blocking: []string{"contract follow-up still open"}}
		}
		p.Status = "closed"
		return nil
	})
}

func (e Engine) applyProjectEvent(ctx context.Context, id, actorID, event string, mutate func(*domain.Project) error) (domain.Project, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Project{}, err
	}
	defer tx.Rollback()
	p, err := e.Repo.GetProjectTx(ctx, tx, id)
	if err != nil {
		return domain.Project{}, err
	}
	if err := mutate(&p); err != nil {
		return domain.Project{}, err
	}
	if err := e.Repo.UpdateProject(ctx, tx, p); err != nil {
		return domain.Project{}, err
	}
	if err := e.Log.Append(ctx, tx, "project", p.ID, actorID, "project."+event, "contract_follow_up="+p.ContractFollowUp); err != nil {
		return domain.Project{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Project{}, err
	}
	return p, nil
}
