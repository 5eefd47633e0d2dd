package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"lexline/internal/config"
	"lexline/internal/db"
	"lexline/internal/domain"
	"lexline/internal/engine"
	"lexline/internal/migrate"
	"lexline/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
	clock  time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	env := &testEnv{
		Ctx:   context.Background(),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	eng := engine.New(conn, config.Default("firm-1"))
	eng.Now = func() time.Time { return env.clock }
	env.Engine = eng
	return env
}

func (env *testEnv) advance(d time.Duration) {
	env.clock = env.clock.Add(d)
}

func newFinancial(t *testing.T, env *testEnv, claim float64) domain.ExecutionRequest {
	t.Helper()
	req, err := env.Engine.CreateExecution(env.Ctx, engine.ExecutionCreateOptions{
		ClientID:     "c-1",
		ClientName:   "Acme Trading",
		OpponentName: "Debtor LLC",
		Type:         "financial",
		ClaimAmount:  &claim,
		ActorID:      "tester",
	})
	if err != nil {
		t.Fatalf("create execution: %v", err)
	}
	return req
}

func TestExecutionCollectionGate(t *testing.T) {
	env := newTestEnv(t)
	req := newFinancial(t, env, 1000)
	if req.Status != "registered" {
		t.Fatalf("expected registered, got %s", req.Status)
	}

	req, err := env.Engine.AddDecision(env.Ctx, req.ID, "34", "", "", "tester")
	if err != nil || req.Status != "in_progress" {
		t.Fatalf("decision 34: %v status=%s", err, req.Status)
	}

	req, err = env.Engine.AddCollection(env.Ctx, req.ID, 400, "", "transfer", "", "tester")
	if err != nil {
		t.Fatalf("partial collection: %v", err)
	}
	if req.Status != "in_progress" {
		t.Fatalf("partial collection must not satisfy claim, got %s", req.Status)
	}

	req, err = env.Engine.AddCollection(env.Ctx, req.ID, 600, "", "transfer", "", "tester")
	if err != nil {
		t.Fatalf("final collection: %v", err)
	}
	if req.Status != "pending_closure" {
		t.Fatalf("expected pending_closure once total covers claim, got %s", req.Status)
	}

	req, err = env.Engine.CloseExecution(env.Ctx, req.ID, "claim recovered", "tester")
	if err != nil || req.Status != "closed" {
		t.Fatalf("close: %v status=%s", err, req.Status)
	}
	if req.ClosedAt == nil {
		t.Fatalf("expected closed_at set")
	}

	// closed requests accept nothing further
	var te *engine.InvalidTransitionError
	_, err = env.Engine.AddCollection(env.Ctx, req.ID, 1, "", "", "", "tester")
	if !errors.As(err, &te) {
		t.Fatalf("expected transition error on closed request, got %v", err)
	}
}

func TestExecutionValidation(t *testing.T) {
	env := newTestEnv(t)
	var ve *engine.ValidationError

	_, err := env.Engine.CreateExecution(env.Ctx, engine.ExecutionCreateOptions{
		ClientID: "c-1", ClientName: "x", OpponentName: "y", Type: "financial", ActorID: "tester",
	})
	if !errors.As(err, &ve) {
		t.Fatalf("expected claim_amount validation, got %v", err)
	}

	req := newFinancial(t, env, 500)
	_, err = env.Engine.CompleteExecution(env.Ctx, req.ID, "tester")
	if !errors.As(err, &ve) {
		t.Fatalf("financial must not complete directly, got %v", err)
	}
	_, err = env.Engine.SuspendExecution(env.Ctx, req.ID, "", "tester")
	if !errors.As(err, &ve) {
		t.Fatalf("suspend without note must fail, got %v", err)
	}
	_, err = env.Engine.AddDecision(env.Ctx, req.ID, "other", "", "", "tester")
	if !errors.As(err, &ve) {
		t.Fatalf("decision other without custom type must fail, got %v", err)
	}
}

func TestExecutionDraftAndSuspend(t *testing.T) {
	env := newTestEnv(t)
	req, err := env.Engine.CreateExecution(env.Ctx, engine.ExecutionCreateOptions{
		ClientID: "c-1", ClientName: "x", OpponentName: "y", Type: "direct", Draft: true, ActorID: "tester",
	})
	if err != nil || req.Status != "draft" {
		t.Fatalf("draft create: %v status=%s", err, req.Status)
	}
	req, err = env.Engine.RegisterExecution(env.Ctx, req.ID, "tester")
	if err != nil || req.Status != "registered" {
		t.Fatalf("register: %v status=%s", err, req.Status)
	}

	req, err = env.Engine.SuspendExecution(env.Ctx, req.ID, "awaiting client documents", "tester")
	if err != nil || req.Status != "suspended" {
		t.Fatalf("suspend: %v status=%s", err, req.Status)
	}
	var te *engine.InvalidTransitionError
	if _, err = env.Engine.AddDecision(env.Ctx, req.ID, "34", "", "", "tester"); !errors.As(err, &te) {
		t.Fatalf("suspended must reject decisions, got %v", err)
	}
	req, err = env.Engine.ReactivateExecution(env.Ctx, req.ID, "tester")
	if err != nil || req.Status != "in_progress" {
		t.Fatalf("reactivate: %v status=%s", err, req.Status)
	}
	if req.SuspensionNote != nil {
		t.Fatalf("expected suspension note cleared")
	}

	req, err = env.Engine.CompleteExecution(env.Ctx, req.ID, "tester")
	if err != nil || req.Status != "pending_closure" {
		t.Fatalf("complete direct: %v status=%s", err, req.Status)
	}
}

func TestEscalateMissing34(t *testing.T) {
	env := newTestEnv(t)
	req := newFinancial(t, env, 1000)

	// inside the window nothing escalates
	escalated, err := env.Engine.EscalateOverdue(env.Ctx, "monitor")
	if err != nil || len(escalated) != 0 {
		t.Fatalf("premature escalation: %v %v", err, escalated)
	}

	// default window is 3 days
	env.advance(4 * 24 * time.Hour)
	escalated, err = env.Engine.EscalateOverdue(env.Ctx, "monitor")
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if len(escalated) != 1 || escalated[0] != req.ID {
		t.Fatalf("expected %s escalated, got %v", req.ID, escalated)
	}
	got, err := env.Engine.Repo.GetExecution(env.Ctx, req.ID)
	if err != nil || got.Status != "urgent_review" {
		t.Fatalf("expected urgent_review, got %s (%v)", got.Status, err)
	}

	// escalated requests leave the scanned set
	escalated, err = env.Engine.EscalateOverdue(env.Ctx, "monitor")
	if err != nil || len(escalated) != 0 {
		t.Fatalf("second sweep must be a no-op: %v %v", err, escalated)
	}

	// a decision clears the urgent flag
	got, err = env.Engine.AddDecision(env.Ctx, req.ID, "34", "", "", "tester")
	if err != nil || got.Status != "in_progress" {
		t.Fatalf("decision after escalation: %v status=%s", err, got.Status)
	}
}

func TestEscalateMissing46Financial(t *testing.T) {
	env := newTestEnv(t)
	req := newFinancial(t, env, 1000)
	if _, err := env.Engine.AddDecision(env.Ctx, req.ID, "34", "", "", "tester"); err != nil {
		t.Fatalf("decision 34: %v", err)
	}

	// default 46 window is 6 days from the 34 decision
	env.advance(7 * 24 * time.Hour)
	escalated, err := env.Engine.EscalateOverdue(env.Ctx, "monitor")
	if err != nil || len(escalated) != 1 {
		t.Fatalf("expected 46 escalation: %v %v", err, escalated)
	}

	if _, err := env.Engine.AddDecision(env.Ctx, req.ID, "46", "", "", "tester"); err != nil {
		t.Fatalf("decision 46: %v", err)
	}
	escalated, err = env.Engine.EscalateOverdue(env.Ctx, "monitor")
	if err != nil || len(escalated) != 0 {
		t.Fatalf("46 recorded, sweep must pass: %v %v", err, escalated)
	}

	// non-financial requests never hit the 46 rule
	direct, err := env.Engine.CreateExecution(env.Ctx, engine.ExecutionCreateOptions{
		ClientID: "c-2", ClientName: "x", OpponentName: "y", Type: "direct", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.AddDecision(env.Ctx, direct.ID, "34", "", "", "tester"); err != nil {
		t.Fatal(err)
	}
	env.advance(30 * 24 * time.Hour)
	escalated, _ = env.Engine.EscalateOverdue(env.Ctx, "monitor")
	for _, id := range escalated {
		if id == direct.ID {
			t.Fatalf("direct request escalated on the 46 rule")
		}
	}
}

func TestEstateTwoLevelClosureGate(t *testing.T) {
	env := newTestEnv(t)
	est, err := env.Engine.CreateEstate(env.Ctx, engine.EstateCreateOptions{
		DeceasedName: "Ali Hassan",
		Method:       "court_assignment",
		Heirs: []domain.Heir{
			{Name: "Sara", IdentityNo: "1001", IBAN: "SA001"},
		},
		ActorID: "tester",
	})
	if err != nil {
		t.Fatalf("create estate: %v", err)
	}

	asset, err := env.Engine.AddEstateAsset(env.Ctx, engine.AssetCreateOptions{
		EstateID:         est.ID,
		Type:             "real_estate",
		Name:             "Villa",
		OwnershipPercent: 100,
		Requirements:     []string{"Obtain deed", "Court valuation"},
		ActorID:          "tester",
	})
	if err != nil {
		t.Fatalf("add asset: %v", err)
	}
	// two requirements plus the liquidation task itself
	if len(asset.LinkedTasks) != 3 {
		t.Fatalf("expected 3 linked tasks, got %d", len(asset.LinkedTasks))
	}

	var ce *engine.ClosurePreconditionError
	if _, err := env.Engine.CloseEstate(env.Ctx, est.ID, "tester"); !errors.As(err, &ce) {
		t.Fatalf("expected closure blocked, got %v", err)
	}
	if len(ce.Blocking) != 1 {
		t.Fatalf("expected one blocking asset, got %v", ce.Blocking)
	}

	for i, lt := range asset.LinkedTasks {
		closed, err := env.Engine.CloseLiquidationTask(env.Ctx, lt.ID, "tester")
		if err != nil {
			t.Fatalf("close task %d: %v", i, err)
		}
		if closed.Status != "closed" {
			t.Fatalf("task %d not closed", i)
		}
	}
	got, err := env.Engine.Repo.GetEstate(env.Ctx, est.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Assets[0].Status != "completed" {
		t.Fatalf("asset must complete with its last task, got %s", got.Assets[0].Status)
	}

	got, err = env.Engine.CloseEstate(env.Ctx, est.ID, "tester")
	if err != nil || got.Status != "closed" {
		t.Fatalf("close estate: %v status=%s", err, got.Status)
	}
	var te *engine.InvalidTransitionError
	if _, err := env.Engine.AddEstateAsset(env.Ctx, engine.AssetCreateOptions{
		EstateID: est.ID, Type: "other", Name: "late", OwnershipPercent: 50, ActorID: "tester",
	}); !errors.As(err, &te) {
		t.Fatalf("closed estate must reject assets, got %v", err)
	}
}

func TestEstateValidation(t *testing.T) {
	env := newTestEnv(t)
	var ve *engine.ValidationError
	_, err := env.Engine.CreateEstate(env.Ctx, engine.EstateCreateOptions{
		DeceasedName: "x", Method: "direct_client", ActorID: "tester",
	})
	if !errors.As(err, &ve) {
		t.Fatalf("estate without heirs must fail, got %v", err)
	}
	_, err = env.Engine.CreateEstate(env.Ctx, engine.EstateCreateOptions{
		DeceasedName: "x", Method: "direct_client",
		Heirs:   []domain.Heir{{Name: "a", IdentityNo: "1"}},
		ActorID: "tester",
	})
	if !errors.As(err, &ve) {
		t.Fatalf("heir without iban must fail, got %v", err)
	}
}

func TestIntakeStageWalk(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.Engine.CreateIntake(env.Ctx, engine.IntakeCreateOptions{
		Department: "commercial",
		ClientName: "New Client",
		Subject:    "Company formation",
		ActorID:    "tester",
	})
	if err != nil || a.Status != "pending" || a.CurrentStage != 1 {
		t.Fatalf("create intake: %v status=%s stage=%d", err, a.Status, a.CurrentStage)
	}

	var ve *engine.ValidationError
	// signing before the final stage is impossible
	if _, err := env.Engine.AcceptIntake(env.Ctx, a.ID, "emp-1", "tester"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	_, err = env.Engine.CloseIntake(env.Ctx, a.ID, engine.IntakeOutcome{Result: "signed", ContractID: "k-1", ActorID: "tester"})
	if !errors.As(err, &ve) {
		t.Fatalf("signing at stage 1 must fail, got %v", err)
	}

	for stage := 2; stage <= domain.IntakeStageCount; stage++ {
		a, err = env.Engine.AdvanceIntake(env.Ctx, a.ID, "", "", "tester")
		if err != nil {
			t.Fatalf("advance to %d: %v", stage, err)
		}
		if a.CurrentStage != stage {
			t.Fatalf("expected stage %d, got %d", stage, a.CurrentStage)
		}
	}
	_, err = env.Engine.AdvanceIntake(env.Ctx, a.ID, "", "", "tester")
	if !errors.As(err, &ve) {
		t.Fatalf("advance past final stage must fail, got %v", err)
	}

	// missing info parks, advance resumes
	a, err = env.Engine.IntakeMissingInfo(env.Ctx, a.ID, "power of attorney", "tester")
	if err != nil || a.Status != "waiting_info" {
		t.Fatalf("missing info: %v status=%s", err, a.Status)
	}

	_, err = env.Engine.CloseIntake(env.Ctx, a.ID, engine.IntakeOutcome{Result: "signed", ActorID: "tester"})
	if !errors.As(err, &ve) {
		t.Fatalf("signing without contract must fail, got %v", err)
	}
	a, err = env.Engine.CloseIntake(env.Ctx, a.ID, engine.IntakeOutcome{Result: "signed", ContractID: "k-9", ActorID: "tester"})
	if err != nil || a.Status != "completed_signed" {
		t.Fatalf("sign: %v status=%s", err, a.Status)
	}
	if a.ContractID == nil || *a.ContractID != "k-9" {
		t.Fatalf("expected contract id recorded")
	}
}

func TestIntakeRejectionNeedsReason(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.Engine.CreateIntake(env.Ctx, engine.IntakeCreateOptions{
		Department: "labor", ClientName: "c", Subject: "s", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.AcceptIntake(env.Ctx, a.ID, "emp-1", "tester"); err != nil {
		t.Fatal(err)
	}
	var ve *engine.ValidationError
	_, err = env.Engine.CloseIntake(env.Ctx, a.ID, engine.IntakeOutcome{Result: "rejected", ActorID: "tester"})
	if !errors.As(err, &ve) {
		t.Fatalf("rejection without reason must fail, got %v", err)
	}
	a, err = env.Engine.CloseIntake(env.Ctx, a.ID, engine.IntakeOutcome{Result: "rejected", RejectionReason: "conflict of interest", ActorID: "tester"})
	if err != nil || a.Status != "completed_rejected" {
		t.Fatalf("reject: %v status=%s", err, a.Status)
	}
}

func TestDeptAssignmentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.Engine.CreateDept(env.Ctx, engine.DeptCreateOptions{
		Department: "financial",
		TaskType:   "review",
		Subject:    "Quarterly contract review",
		ActorID:    "tester",
	})
	if err != nil || a.Status != "pending" {
		t.Fatalf("create dept: %v status=%s", err, a.Status)
	}
	if a.Weight != 1 {
		t.Fatalf("expected default weight 1, got %d", a.Weight)
	}
	if a, err = env.Engine.AcceptDept(env.Ctx, a.ID, "emp-2", "tester"); err != nil || a.Status != "in_progress" {
		t.Fatalf("accept: %v", err)
	}
	if a, err = env.Engine.DeptMissingInfo(env.Ctx, a.ID, "signed copy", "tester"); err != nil || a.Status != "waiting_info" {
		t.Fatalf("missing info: %v", err)
	}
	if a, err = env.Engine.ResumeDept(env.Ctx, a.ID, "tester"); err != nil || a.Status != "in_progress" {
		t.Fatalf("resume: %v", err)
	}
	var ve *engine.ValidationError
	if _, err = env.Engine.CloseDept(env.Ctx, a.ID, "incomplete", "", "tester"); !errors.As(err, &ve) {
		t.Fatalf("incomplete without reason must fail, got %v", err)
	}
	if a, err = env.Engine.CloseDept(env.Ctx, a.ID, "done", "", "tester"); err != nil || a.Status != "completed_done" {
		t.Fatalf("close done: %v status=%s", err, a.Status)
	}
}

func TestTaskApprovalFlow(t *testing.T) {
	env := newTestEnv(t)
	tk, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		Name:             "Draft memo",
		Origin:           "cases",
		ExecutorID:       "emp-1",
		ReviewerID:       "emp-9",
		RequiresApproval: true,
		ActorID:          "tester",
	})
	if err != nil || tk.Status != "new" {
		t.Fatalf("create task: %v status=%s", err, tk.Status)
	}

	var ve *engine.ValidationError
	if _, err := env.Engine.CompleteTask(env.Ctx, tk.ID, "", "tester"); !errors.As(err, &ve) {
		t.Fatalf("complete without result must fail, got %v", err)
	}

	tk, err = env.Engine.CompleteTask(env.Ctx, tk.ID, "memo v1", "emp-1")
	if err != nil || tk.Status != "waiting_approval" {
		t.Fatalf("complete: %v status=%s", err, tk.Status)
	}

	tk, err = env.Engine.ReturnTask(env.Ctx, tk.ID, "cite the precedent", "emp-9")
	if err != nil || tk.Status != "in_progress" {
		t.Fatalf("return: %v status=%s", err, tk.Status)
	}
	if tk.Result != nil {
		t.Fatalf("return must clear the result")
	}
	if tk.NextStep == nil || *tk.NextStep != "cite the precedent" {
		t.Fatalf("return note must land in next_step")
	}

	tk, err = env.Engine.CompleteTask(env.Ctx, tk.ID, "memo v2", "emp-1")
	if err != nil || tk.Status != "waiting_approval" {
		t.Fatalf("second complete: %v", err)
	}
	tk, err = env.Engine.ApproveTask(env.Ctx, tk.ID, "emp-9")
	if err != nil || tk.Status != "closed" {
		t.Fatalf("approve: %v status=%s", err, tk.Status)
	}
	if tk.ClosedAt == nil {
		t.Fatalf("expected closed_at set")
	}
}

func TestTaskDirectCloseAndStatuses(t *testing.T) {
	env := newTestEnv(t)
	tk, err := env.Engine.CreateTask(env.Ctx, engine.TaskCreateOptions{
		Name: "File request", Origin: "execution", ExecutorID: "emp-1", ActorID: "tester",
	})
	if err != nil {
		t.Fatal(err)
	}
	if tk, err = env.Engine.SetTaskStatus(env.Ctx, tk.ID, "in_progress", "", "", "emp-1"); err != nil {
		t.Fatalf("to in_progress: %v", err)
	}
	if tk, err = env.Engine.SetTaskStatus(env.Ctx, tk.ID, "waiting_info", "", "", "emp-1"); err != nil {
		t.Fatalf("to waiting_info: %v", err)
	}
	var te *engine.InvalidTransitionError
	if _, err = env.Engine.SetTaskStatus(env.Ctx, tk.ID, "waiting_info", "", "", "emp-1"); !errors.As(err, &te) {
		t.Fatalf("waiting_info -> waiting_info must fail, got %v", err)
	}
	if _, err = env.Engine.ApproveTask(env.Ctx, tk.ID, "emp-9"); !errors.As(err, &te) {
		t.Fatalf("approve outside waiting_approval must fail, got %v", err)
	}
	tk, err = env.Engine.CompleteTask(env.Ctx, tk.ID, "filed under 4411", "emp-1")
	if err != nil || tk.Status != "closed" {
		t.Fatalf("tasks without approval close on completion: %v status=%s", err, tk.Status)
	}
}

func newPipelineItem(t *testing.T, env *testEnv) domain.PipelineItem {
	t.Helper()
	p, err := env.Engine.CreatePipelineItem(env.Ctx, engine.PipelineCreateOptions{
		Name:       "Bank retainer",
		Entity:     "First Bank",
		ReviewerID: "partner-1",
		ActorID:    "tester",
	})
	if err != nil {
		t.Fatalf("create pipeline item: %v", err)
	}
	return p
}

func TestPipelineReviewerReject(t *testing.T) {
	env := newTestEnv(t)
	p := newPipelineItem(t, env)
	if p.CurrentStage != "review_decision" || p.Status != "in_progress" {
		t.Fatalf("unexpected initial state %s/%s", p.CurrentStage, p.Status)
	}
	p, err := env.Engine.ReviewerDecision(env.Ctx, p.ID, "reject", "", "", "partner-1")
	if err != nil || p.Status != "archived" {
		t.Fatalf("reviewer reject: %v status=%s", err, p.Status)
	}
	var te *engine.InvalidTransitionError
	if _, err := env.Engine.AdvancePipelineItem(env.Ctx, p.ID, "tester"); !errors.As(err, &te) {
		t.Fatalf("archived item must be inert, got %v", err)
	}
}

func TestPipelineAssigneeRejectCycles(t *testing.T) {
	env := newTestEnv(t)
	p := newPipelineItem(t, env)

	var te *engine.InvalidTransitionError
	// decision gates cannot be crossed by advancing
	if _, err := env.Engine.AdvancePipelineItem(env.Ctx, p.ID, "tester"); !errors.As(err, &te) {
		t.Fatalf("advance at review gate must fail, got %v", err)
	}

	p, err := env.Engine.ReviewerDecision(env.Ctx, p.ID, "accept", "dept", "commercial", "partner-1")
	if err != nil || p.CurrentStage != "assignee_decision" {
		t.Fatalf("reviewer accept: %v stage=%s", err, p.CurrentStage)
	}

	var ve *engine.ValidationError
	if _, err := env.Engine.AssigneeDecision(env.Ctx, p.ID, "reject", "", "emp-5"); !errors.As(err, &ve) {
		t.Fatalf("assignee reject without reason must fail, got %v", err)
	}
	p, err = env.Engine.AssigneeDecision(env.Ctx, p.ID, "reject", "no capacity this quarter", "emp-5")
	if err != nil || p.CurrentStage != "review_decision" {
		t.Fatalf("assignee reject: %v stage=%s", err, p.CurrentStage)
	}
	if p.ReviewerOpinion != nil || p.AssigneeType != nil || p.AssigneeID != nil || p.AssigneeOpinion != nil {
		t.Fatalf("cycle must clear both gate opinions")
	}

	// second pass through both gates
	if p, err = env.Engine.ReviewerDecision(env.Ctx, p.ID, "accept", "emp", "emp-7", "partner-1"); err != nil {
		t.Fatal(err)
	}
	if p, err = env.Engine.AssigneeDecision(env.Ctx, p.ID, "accept", "", "emp-7"); err != nil || p.CurrentStage != "draft_proposal" {
		t.Fatalf("assignee accept: %v stage=%s", err, p.CurrentStage)
	}

	for _, want := range []string{"review_proposal", "final_output", "approval", "submission", "follow_up"} {
		if p, err = env.Engine.AdvancePipelineItem(env.Ctx, p.ID, "tester"); err != nil {
			t.Fatalf("advance to %s: %v", want, err)
		}
		if p.CurrentStage != want {
			t.Fatalf("expected %s, got %s", want, p.CurrentStage)
		}
	}
	if _, err = env.Engine.AdvancePipelineItem(env.Ctx, p.ID, "tester"); !errors.As(err, &te) {
		t.Fatalf("follow_up has no successor, got %v", err)
	}
	if p, err = env.Engine.ArchivePipelineItem(env.Ctx, p.ID, "tester"); err != nil || p.Status != "archived" {
		t.Fatalf("archive: %v status=%s", err, p.Status)
	}
}

func TestPipelineEscalate(t *testing.T) {
	env := newTestEnv(t)
	p := newPipelineItem(t, env)
	p, err := env.Engine.EscalatePipelineItem(env.Ctx, p.ID, "managing-partner")
	if err != nil || p.CurrentStage != "draft_proposal" {
		t.Fatalf("escalate: %v stage=%s", err, p.CurrentStage)
	}
	if !p.Escalated {
		t.Fatalf("expected escalated flag")
	}
	var te *engine.InvalidTransitionError
	if _, err := env.Engine.EscalatePipelineItem(env.Ctx, p.ID, "managing-partner"); !errors.As(err, &te) {
		t.Fatalf("escalate past the gates must fail, got %v", err)
	}
}

func TestProjectContractFollowUp(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.Engine.CreateProject(env.Ctx, engine.ProjectCreateOptions{
		Name:           "Restructure",
		ManagerID:      "mgr-1",
		ClientName:     "Acme",
		ContractStatus: "not_signed",
		ActorID:        "tester",
	})
	if err != nil || p.ContractFollowUp != "following_up" {
		t.Fatalf("create: %v follow_up=%s", err, p.ContractFollowUp)
	}

	var ce *engine.ClosurePreconditionError
	if _, err := env.Engine.CloseProject(env.Ctx, p.ID, "tester"); !errors.As(err, &ce) {
		t.Fatalf("close while following up must be blocked, got %v", err)
	}

	p, err = env.Engine.SetProjectContract(env.Ctx, p.ID, "K-2024-17", "tester")
	if err != nil || p.ContractStatus != "signed" || p.ContractFollowUp != "done" {
		t.Fatalf("set contract: %v %s/%s", err, p.ContractStatus, p.ContractFollowUp)
	}
	var te *engine.InvalidTransitionError
	if _, err := env.Engine.SetProjectContract(env.Ctx, p.ID, "K-2", "tester"); !errors.As(err, &te) {
		t.Fatalf("contract on a signed project must fail, got %v", err)
	}

	if p, err = env.Engine.CloseProject(env.Ctx, p.ID, "tester"); err != nil || p.Status != "closed" {
		t.Fatalf("close: %v status=%s", err, p.Status)
	}
}

func TestProjectSignedNeedsNumber(t *testing.T) {
	env := newTestEnv(t)
	var ve *engine.ValidationError
	_, err := env.Engine.CreateProject(env.Ctx, engine.ProjectCreateOptions{
		Name: "x", ManagerID: "m", ClientName: "c", ContractStatus: "signed", ActorID: "tester",
	})
	if !errors.As(err, &ve) {
		t.Fatalf("signed without contract_no must fail, got %v", err)
	}
}

func TestActivityLogAppends(t *testing.T) {
	env := newTestEnv(t)
	req := newFinancial(t, env, 100)
	if _, err := env.Engine.AddDecision(env.Ctx, req.ID, "34", "", "", "tester"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.AddCollection(env.Ctx, req.ID, 100, "", "", "", "tester"); err != nil {
		t.Fatal(err)
	}
	entries, err := env.Engine.Repo.EntityLog(env.Ctx, "execution", req.ID)
	if err != nil {
		t.Fatalf("entity log: %v", err)
	}
	if len(entries) < 3 {
		t.Fatalf("expected create, decision and collection entries, got %d", len(entries))
	}
	actions := map[string]bool{}
	for _, le := range entries {
		actions[le.Action] = true
	}
	for _, want := range []string{"execution.create", "execution.decision", "execution.claim_satisfied"} {
		if !actions[want] {
			t.Fatalf("missing action %s in %v", want, actions)
		}
	}
	all, err := env.Engine.Repo.ListLog(env.Ctx, repo.LogFilters{ActorID: "tester", Limit: 2})
	if err != nil {
		t.Fatalf("list log: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("limit not honored, got %d", len(all))
	}
}
