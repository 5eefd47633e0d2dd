package domain

// StatusInfo describes one status of a case-type enum. A single descriptor
// shape replaces per-module label tables.
type StatusInfo struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Terminal bool   `json:"terminal"`
}

// Taxonomy is the closed status enum of one case type, in declaration order.
type Taxonomy []StatusInfo

// Valid reports whether code belongs to the taxonomy.
func (t Taxonomy) Valid(code string) bool {
	_, ok := t.Get(code)
	return ok
}

// Terminal reports whether code is a terminal status of the taxonomy.
func (t Taxonomy) Terminal(code string) bool {
	s, ok := t.Get(code)
	return ok && s.Terminal
}

// Get returns the descriptor for code.
func (t Taxonomy) Get(code string) (StatusInfo, bool) {
	for _, s := range t {
		if s.Code == code {
			return s, true
		}
	}
	return StatusInfo{}, false
}

// Label returns the display label for code, or the code itself when unknown.
func (t Taxonomy) Label(code string) string {
	if s, ok := t.Get(code); ok {
		return s.Label
	}
	return code
}

var ExecutionStatuses = Taxonomy{
	{Code: "draft", Label: "Draft"},
	{Code: "registered", Label: "Registered"},
	{Code: "urgent_review", Label: "Urgent review"},
	{Code: "in_progress", Label: "In progress"},
	{Code: "suspended", Label: "Suspended"},
	{Code: "pending_closure", Label: "Pending closure"},
	{Code: "closed", Label: "Closed", Terminal: true},
}

var EstateStatuses = Taxonomy{
	{Code: "in_progress", Label: "In progress"},
	{Code: "closed", Label: "Closed", Terminal: true},
}

var IntakeStatuses = Taxonomy{
	{Code: "pending", Label: "Pending"},
	{Code: "in_progress", Label: "In progress"},
	{Code: "waiting_info", Label: "Waiting for info"},
	{Code: "completed_signed", Label: "Completed - signed", Terminal: true},
	{Code: "completed_rejected", Label: "Completed - rejected", Terminal: true},
	{Code: "completed_expired", Label: "Completed - expired", Terminal: true},
}

var DeptAssignmentStatuses = Taxonomy{
	{Code: "pending", Label: "Pending"},
	{Code: "in_progress", Label: "In progress"},
	{Code: "waiting_info", Label: "Waiting for info"},
	{Code: "completed_done", Label: "Completed", Terminal: true},
	{Code: "completed_incomplete", Label: "Completed - incomplete", Terminal: true},
}

var TaskStatuses = Taxonomy{
	{Code: "new", Label: "New"},
	{Code: "in_progress", Label: "In progress"},
	{Code: "waiting_info", Label: "Waiting for info"},
	{Code: "waiting_approval", Label: "Waiting for approval"},
	{Code: "closed", Label: "Closed", Terminal: true},
}

var PipelineStatuses = Taxonomy{
	{Code: "in_progress", Label: "In progress"},
	{Code: "archived", Label: "Archived", Terminal: true},
}

// PipelineStages lists the proposal stages in walking order.
var PipelineStages = []string{
	"review_decision",
	"assignee_decision",
	"draft_proposal",
	"review_proposal",
	"final_output",
	"approval",
	"submission",
	"follow_up",
}

// PipelineStageIndex returns the position of a stage, or -1 when unknown.
func PipelineStageIndex(stage string) int {
	for i, s := range PipelineStages {
		if s == stage {
			return i
		}
	}
	return -1
}

// NextPipelineStage returns the stage after the given one. ok is false at
// follow_up, which has no successor.
func NextPipelineStage(stage string) (string, bool) {
	idx := PipelineStageIndex(stage)
	if idx < 0 || idx == len(PipelineStages)-1 {
		return "", false
	}
	return PipelineStages[idx+1], true
}

// IntakeStageCount is the number of intake stages a potential client walks.
const IntakeStageCount = 6

// IntakeStageLabels maps stage numbers 1..6 to their display labels.
var IntakeStageLabels = map[int]string{
	1: "Initial contact",
	2: "Requirements gathering",
	3: "Conflict check",
	4: "Fee proposal",
	5: "Negotiation",
	6: "Signing",
}
