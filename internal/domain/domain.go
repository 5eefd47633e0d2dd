package domain

// ExecutionRequest is a legal enforcement case filed with the execution court.
type ExecutionRequest struct {
	ID             string       `json:"id"`
	ClientID       string       `json:"client_id"`
	ClientName     string       `json:"client_name"`
	ContactNumber  string       `json:"contact_number,omitempty"`
	OpponentName   string       `json:"opponent_name"`
	Type           string       `json:"type" enum:"financial,direct,personal"`
	ClaimAmount    *float64     `json:"claim_amount,omitempty"`
	CourtName      string       `json:"court_name,omitempty"`
	CircuitName    string       `json:"circuit_name,omitempty"`
	SubmissionDate string       `json:"submission_date" format:"date-time"`
	AuditStatus    string       `json:"audit_status" enum:"complete,incomplete"`
	Status         string       `json:"status" enum:"draft,registered,urgent_review,in_progress,suspended,pending_closure,closed"`
	Decisions      []Decision   `json:"decisions"`
	Collections    []Collection `json:"collections"`
	SuspensionNote *string      `json:"suspension_note,omitempty"`
	ClosingReason  *string      `json:"closing_reason,omitempty"`
	CreatedAt      string       `json:"created_at" format:"date-time"`
	ClosedAt       *string      `json:"closed_at,omitempty" format:"date-time"`
}

// TotalCollected sums the recorded collection amounts.
func (e ExecutionRequest) TotalCollected() float64 {
	var total float64
	for _, c := range e.Collections {
		total += c.Amount
	}
	return total
}

// HasDecision reports whether a decision of the given type was recorded.
func (e ExecutionRequest) HasDecision(decType string) bool {
	for _, d := range e.Decisions {
		if d.Type == decType {
			return true
		}
	}
	return false
}

// DecisionDate returns the date of the first decision of the given type.
func (e ExecutionRequest) DecisionDate(decType string) (string, bool) {
	for _, d := range e.Decisions {
		if d.Type == decType {
			return d.Date, true
		}
	}
	return "", false
}

// Decision is a judicial ruling recorded against an execution request.
// Types '34' and '46' carry statutory response deadlines.
type Decision struct {
	ID          string  `json:"id"`
	ExecutionID string  `json:"execution_id"`
	Type        string  `json:"type" enum:"34,46,other"`
	CustomType  *string `json:"custom_type,omitempty"`
	Date        string  `json:"date" format:"date-time"`
}

// Collection is a recovered amount against an execution claim.
type Collection struct {
	ID          string  `json:"id"`
	ExecutionID string  `json:"execution_id"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date" format:"date-time"`
	Method      string  `json:"method,omitempty"`
	Reference   string  `json:"reference,omitempty"`
}

// Estate is a liquidation or guardianship case over a deceased person's assets.
type Estate struct {
	ID           string        `json:"id"`
	DeceasedName string        `json:"deceased_name"`
	Method       string        `json:"method" enum:"entrustment_center,court_assignment,direct_client"`
	Status       string        `json:"status" enum:"in_progress,closed"`
	Heirs        []Heir        `json:"heirs"`
	Assets       []EstateAsset `json:"assets"`
	CreatedAt    string        `json:"created_at" format:"date-time"`
	ClosedAt     *string       `json:"closed_at,omitempty" format:"date-time"`
}

type Heir struct {
	ID         string `json:"id"`
	EstateID   string `json:"estate_id"`
	Name       string `json:"name"`
	IdentityNo string `json:"identity_no"`
	BirthDate  string `json:"birth_date,omitempty"`
	Phone      string `json:"phone,omitempty"`
	IBAN       string `json:"iban"`
}

// EstateAsset is one asset under liquidation. It completes only once every
// linked task is closed.
type EstateAsset struct {
	ID               string            `json:"id"`
	EstateID         string            `json:"estate_id"`
	Type             string            `json:"type" enum:"real_estate,investment,bank_funds,other"`
	Name             string            `json:"name"`
	Status           string            `json:"status" enum:"in_progress,completed"`
	OwnershipPercent float64           `json:"ownership_percent"`
	DetailsJSON      *string           `json:"details_json,omitempty"`
	LinkedTasks      []LiquidationTask `json:"linked_tasks"`
}

// OpenTaskCount counts linked tasks not yet closed.
func (a EstateAsset) OpenTaskCount() int {
	open := 0
	for _, t := range a.LinkedTasks {
		if t.Status != "closed" {
			open++
		}
	}
	return open
}

// LiquidationTask is a unit of work synthesized from an asset's requirements.
type LiquidationTask struct {
	ID           string  `json:"id"`
	EstateID     string  `json:"estate_id"`
	AssetID      string  `json:"asset_id"`
	Title        string  `json:"title"`
	Type         string  `json:"type" enum:"legal,administrative"`
	NextStep     string  `json:"next_step,omitempty"`
	NextStepDate *string `json:"next_step_date,omitempty" format:"date-time"`
	Status       string  `json:"status" enum:"open,closed"`
	HasFees      bool    `json:"has_fees"`
	CreatedAt    string  `json:"created_at" format:"date-time"`
}

// IntakeAssignment tracks a potential client through the six intake stages.
type IntakeAssignment struct {
	ID              string  `json:"id"`
	Department      string  `json:"department" enum:"financial,commercial,labor,administrative,documentation"`
	ClientName      string  `json:"client_name"`
	ClientPhone     string  `json:"client_phone,omitempty"`
	Subject         string  `json:"subject"`
	NextStep        string  `json:"next_step,omitempty"`
	DeadlineDate    *string `json:"deadline_date,omitempty" format:"date-time"`
	CurrentStage    int     `json:"current_stage" minimum:"1" maximum:"6"`
	Status          string  `json:"status" enum:"pending,in_progress,waiting_info,completed_signed,completed_rejected,completed_expired"`
	EmployeeID      *string `json:"employee_id,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	ContractID      *string `json:"contract_id,omitempty"`
	MissingInfo     *string `json:"missing_info,omitempty"`
	CreatedAt       string  `json:"created_at" format:"date-time"`
}

// DeptAssignment is work handed to a department without a client pipeline.
type DeptAssignment struct {
	ID               string  `json:"id"`
	Department       string  `json:"department" enum:"financial,commercial,labor,administrative,documentation"`
	ContractRef      string  `json:"contract_ref,omitempty"`
	ClientRef        string  `json:"client_ref,omitempty"`
	TaskType         string  `json:"task_type" enum:"review,study,other"`
	Weight           int     `json:"weight"`
	Subject          string  `json:"subject"`
	NextStep         string  `json:"next_step,omitempty"`
	DeadlineDate     *string `json:"deadline_date,omitempty" format:"date-time"`
	Status           string  `json:"status" enum:"pending,in_progress,waiting_info,completed_done,completed_incomplete"`
	EmployeeID       *string `json:"employee_id,omitempty"`
	IncompleteReason *string `json:"incomplete_reason,omitempty"`
	MissingInfo      *string `json:"missing_info,omitempty"`
	CreatedAt        string  `json:"created_at" format:"date-time"`
}

// Task is a general operational task cross-referencing any other entity.
type Task struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Origin           string  `json:"origin" enum:"assignments,cases,execution,projects,liquidation,contracts"`
	ReferenceID      string  `json:"reference_id,omitempty"`
	ReferenceLabel   string  `json:"reference_label,omitempty"`
	ExecutorID       string  `json:"executor_id"`
	ReviewerID       *string `json:"reviewer_id,omitempty"`
	Load             int     `json:"load"`
	NextStep         *string `json:"next_step,omitempty"`
	NextStepDate     *string `json:"next_step_date,omitempty" format:"date-time"`
	Result           *string `json:"result,omitempty"`
	Status           string  `json:"status" enum:"new,in_progress,waiting_info,waiting_approval,closed"`
	RequiresApproval bool    `json:"requires_approval"`
	CreatedBy        string  `json:"created_by"`
	CreatedAt        string  `json:"created_at" format:"date-time"`
	ClosedAt         *string `json:"closed_at,omitempty" format:"date-time"`
}

// PipelineItem is a business-development opportunity walking the proposal
// stages from first review to follow-up.
type PipelineItem struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Entity          string  `json:"entity"`
	ProposalDate    string  `json:"proposal_date" format:"date-time"`
	ReviewerID      string  `json:"reviewer_id"`
	ReviewerOpinion *string `json:"reviewer_opinion,omitempty" enum:"accept,reject"`
	AssigneeType    *string `json:"assignee_type,omitempty" enum:"dept,emp"`
	AssigneeID      *string `json:"assignee_id,omitempty"`
	AssigneeOpinion *string `json:"assignee_opinion,omitempty" enum:"accept,reject"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	Escalated       bool    `json:"escalated"`
	CurrentStage    string  `json:"current_stage" enum:"review_decision,assignee_decision,draft_proposal,review_proposal,final_output,approval,submission,follow_up"`
	Status          string  `json:"status" enum:"in_progress,archived"`
	CreatedAt       string  `json:"created_at" format:"date-time"`
}

// Project is an active engagement. A project without a signed contract carries
// a follow-up obligation until the contract number is supplied.
type Project struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ManagerID        string  `json:"manager_id"`
	ClientName       string  `json:"client_name"`
	ContractStatus   string  `json:"contract_status" enum:"signed,not_signed"`
	ContractNo       *string `json:"contract_no,omitempty"`
	ContractFollowUp string  `json:"contract_follow_up" enum:"none,following_up,done"`
	Status           string  `json:"status" enum:"in_progress,closed"`
	CreatedAt        string  `json:"created_at" format:"date-time"`
}

// LogEntry is one line of an entity's append-only activity trail.
type LogEntry struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	ActorID    string `json:"actor_id"`
	Action     string `json:"action"`
	Details    string `json:"details,omitempty"`
}
