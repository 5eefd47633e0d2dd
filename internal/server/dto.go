package server

import "lexline/internal/domain"

// Request payloads

type CreateExecutionRequest struct {
	ID             *string  `json:"id,omitempty"`
	ClientID       string   `json:"client_id"`
	ClientName     string   `json:"client_name"`
	ContactNumber  *string  `json:"contact_number,omitempty"`
	OpponentName   string   `json:"opponent_name"`
	Type           string   `json:"type" enum:"financial,direct,personal"`
	ClaimAmount    *float64 `json:"claim_amount,omitempty"`
	CourtName      *string  `json:"court_name,omitempty"`
	CircuitName    *string  `json:"circuit_name,omitempty"`
	SubmissionDate *string  `json:"submission_date,omitempty" format:"date-time"`
	AuditStatus    *string  `json:"audit_status,omitempty" enum:"complete,incomplete"`
	Draft          bool     `json:"draft,omitempty"`
}

type AddDecisionRequest struct {
	Type       string  `json:"type" enum:"34,46,other"`
	CustomType *string `json:"custom_type,omitempty"`
	Date       *string `json:"date,omitempty" format:"date-time"`
}

type AddCollectionRequest struct {
	Amount    float64 `json:"amount"`
	Date      *string `json:"date,omitempty" format:"date-time"`
	Method    *string `json:"method,omitempty"`
	Reference *string `json:"reference,omitempty"`
}

type SuspendExecutionRequest struct {
	Note string `json:"note"`
}

type CloseExecutionRequest struct {
	Reason string `json:"reason"`
}

type CreateEstateRequest struct {
	ID           *string       `json:"id,omitempty"`
	DeceasedName string        `json:"deceased_name"`
	Method       string        `json:"method" enum:"entrustment_center,court_assignment,direct_client"`
	Heirs        []HeirRequest `json:"heirs"`
}

type HeirRequest struct {
	Name       string  `json:"name"`
	IdentityNo string  `json:"identity_no"`
	BirthDate  *string `json:"birth_date,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	IBAN       string  `json:"iban"`
}

type AddAssetRequest struct {
	Type             string   `json:"type" enum:"real_estate,investment,bank_funds,other"`
	Name             string   `json:"name"`
	OwnershipPercent *float64 `json:"ownership_percent,omitempty"`
	DetailsJSON      *string  `json:"details_json,omitempty"`
	Requirements     []string `json:"requirements,omitempty"`
}

type CreateIntakeRequest struct {
	ID           *string `json:"id,omitempty"`
	Department   string  `json:"department" enum:"financial,commercial,labor,administrative,documentation"`
	ClientName   string  `json:"client_name"`
	ClientPhone  *string `json:"client_phone,omitempty"`
	Subject      string  `json:"subject"`
	NextStep     *string `json:"next_step,omitempty"`
	DeadlineDate *string `json:"deadline_date,omitempty" format:"date-time"`
}

type AcceptAssignmentRequest struct {
	EmployeeID string `json:"employee_id"`
}

type AdvanceIntakeRequest struct {
	NextStep     *string `json:"next_step,omitempty"`
	DeadlineDate *string `json:"deadline_date,omitempty" format:"date-time"`
}

type MissingInfoRequest struct {
	MissingInfo string `json:"missing_info"`
}

type CloseIntakeRequest struct {
	Result          string  `json:"result" enum:"signed,rejected,expired"`
	ContractID      *string `json:"contract_id,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
}

type CreateDeptRequest struct {
	ID           *string `json:"id,omitempty"`
	Department   string  `json:"department" enum:"financial,commercial,labor,administrative,documentation"`
	ContractRef  *string `json:"contract_ref,omitempty"`
	ClientRef    *string `json:"client_ref,omitempty"`
	TaskType     string  `json:"task_type" enum:"review,study,other"`
	Weight       *int    `json:"weight,omitempty"`
	Subject      string  `json:"subject"`
	NextStep     *string `json:"next_step,omitempty"`
	DeadlineDate *string `json:"deadline_date,omitempty" format:"date-time"`
}

type CloseDeptRequest struct {
	Result string  `json:"result" enum:"done,incomplete"`
	Reason *string `json:"reason,omitempty"`
}

type CreateTaskRequest struct {
	ID               *string `json:"id,omitempty"`
	Name             string  `json:"name"`
	Origin           string  `json:"origin" enum:"assignments,cases,execution,projects,liquidation,contracts"`
	ReferenceID      *string `json:"reference_id,omitempty"`
	ReferenceLabel   *string `json:"reference_label,omitempty"`
	ExecutorID       string  `json:"executor_id"`
	ReviewerID       *string `json:"reviewer_id,omitempty"`
	Load             *int    `json:"load,omitempty"`
	NextStep         *string `json:"next_step,omitempty"`
	NextStepDate     *string `json:"next_step_date,omitempty" format:"date-time"`
	RequiresApproval bool    `json:"requires_approval,omitempty"`
}

type SetTaskStatusRequest struct {
	Status       string  `json:"status" enum:"in_progress,waiting_info"`
	NextStep     *string `json:"next_step,omitempty"`
	NextStepDate *string `json:"next_step_date,omitempty" format:"date-time"`
}

type CompleteTaskRequest struct {
	Result string `json:"result"`
}

type ReturnTaskRequest struct {
	Note string `json:"note"`
}

type CreatePipelineItemRequest struct {
	ID           *string `json:"id,omitempty"`
	Name         string  `json:"name"`
	Entity       string  `json:"entity"`
	ProposalDate *string `json:"proposal_date,omitempty" format:"date-time"`
	ReviewerID   string  `json:"reviewer_id"`
}

type ReviewerDecisionRequest struct {
	Opinion      string  `json:"opinion" enum:"accept,reject"`
	AssigneeType *string `json:"assignee_type,omitempty" enum:"dept,emp"`
	AssigneeID   *string `json:"assignee_id,omitempty"`
}

type AssigneeDecisionRequest struct {
	Opinion string  `json:"opinion" enum:"accept,reject"`
	Reason  *string `json:"reason,omitempty"`
}

type CreateProjectRequest struct {
	ID             *string `json:"id,omitempty"`
	Name           string  `json:"name"`
	ManagerID      string  `json:"manager_id"`
	ClientName     string  `json:"client_name"`
	ContractStatus string  `json:"contract_status" enum:"signed,not_signed"`
	ContractNo     *string `json:"contract_no,omitempty"`
}

type SetProjectContractRequest struct {
	ContractNo string `json:"contract_no"`
}

type DevLoginRequest struct {
	ActorID string   `json:"actor_id"`
	Roles   []string `json:"roles,omitempty"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

// Response payloads reuse the domain shapes directly.

type ExecutionResponse = domain.ExecutionRequest
type EstateResponse = domain.Estate
type AssetResponse = domain.EstateAsset
type LiquidationTaskResponse = domain.LiquidationTask
type IntakeResponse = domain.IntakeAssignment
type DeptResponse = domain.DeptAssignment
type TaskResponse = domain.Task
type PipelineItemResponse = domain.PipelineItem
type ProjectResponse = domain.Project
type LogEntryResponse = domain.LogEntry

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
