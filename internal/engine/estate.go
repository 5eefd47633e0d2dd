package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"lexline/internal/domain"
)

// EstateCreateOptions are parameters for opening a liquidation case.
type EstateCreateOptions struct {
	ID           string
	DeceasedName string
	Method       string
	Heirs        []domain.Heir
	ActorID      string
}

func (e Engine) CreateEstate(ctx context.Context, opts EstateCreateOptions) (domain.Estate, error) {
	if opts.DeceasedName == "" {
		return domain.Estate{}, validationf("deceased_name", "required")
	}
	switch opts.Method {
	case "entrustment_center", "court_assignment", "direct_client":
	default:
		return domain.Estate{}, validationf("method", "unknown method %q", opts.Method)
	}
	if len(opts.Heirs) == 0 {
		return domain.Estate{}, validationf("heirs", "at least one heir required")
	}
	for i, h := range opts.Heirs {
		if h.Name == "" || h.IdentityNo == "" || h.IBAN == "" {
			return domain.Estate{}, validationf("heirs", "heir %d missing name, identity_no or iban", i+1)
		}
	}

	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	est := domain.Estate{
		ID:           id,
		DeceasedName: opts.DeceasedName,
		Method:       opts.Method,
		Status:       "in_progress",
		CreatedAt:    e.nowString(),
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Estate{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertEstate(ctx, tx, est); err != nil {
		return domain.Estate{}, fmt.Errorf("insert estate: %w", err)
	}
	for i := range opts.Heirs {
		h := opts.Heirs[i]
		if h.ID == "" {
			h.ID = uuid.NewString()
		}
		h.EstateID = est.ID
		if err := e.Repo.InsertHeir(ctx, tx, h); err != nil {
			return domain.Estate{}, fmt.Errorf("insert heir: %w", err)
		}
		est.Heirs = append(est.Heirs, h)
	}
	if err := e.Log.Append(ctx, tx, "estate", est.ID, opts.ActorID, "estate.create", fmt.Sprintf("heirs=%d method=%s", len(est.Heirs), est.Method)); err != nil {
		return domain.Estate{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Estate{}, err
	}
	return est, nil
}

// AssetCreateOptions are parameters for registering an asset under
// liquidation. Each requirement becomes a legal task linked to the asset; a
// liquidation task for the asset itself is always added.
type AssetCreateOptions struct {
	EstateID         string
	Type             string
	Name             string
	OwnershipPercent float64
	DetailsJSON      string
	Requirements     []string
	ActorID          string
}

func (e Engine) AddEstateAsset(ctx context.Context, opts AssetCreateOptions) (domain.EstateAsset, error) {
	switch opts.Type {
	case "real_estate", "investment", "bank_funds", "other":
	default:
		return domain.EstateAsset{}, validationf("type", "unknown asset type %q", opts.Type)
	}
	if opts.Name == "" {
		return domain.EstateAsset{}, validationf("name", "required")
	}
	if opts.OwnershipPercent <= 0 || opts.OwnershipPercent > 100 {
		return domain.EstateAsset{}, validationf("ownership_percent", "must be in (0,100]")
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.EstateAsset{}, err
	}
	defer tx.Rollback()
	est, err := e.Repo.GetEstateTx(ctx, tx, opts.EstateID)
	if err != nil {
		return domain.EstateAsset{}, err
	}
	if est.Status == "closed" {
		return domain.EstateAsset{}, &InvalidTransitionError{Entity: "estate", From: est.Status, Event: "add_asset"}
	}

	now := e.nowString()
	a := domain.EstateAsset{
		ID:               uuid.NewString(),
		EstateID:         est.ID,
		Type:             opts.Type,
		Name:             opts.Name,
		Status:           "in_progress",
		OwnershipPercent: opts.OwnershipPercent,
	}
	if opts.DetailsJSON != "" {
		a.DetailsJSON = &opts.DetailsJSON
	}
	if err := e.Repo.InsertAsset(ctx, tx, a); err != nil {
		return domain.EstateAsset{}, fmt.Errorf("insert asset: %w", err)
	}
	for _, requirement := range opts.Requirements {
		if requirement == "" {
			return domain.EstateAsset{}, validationf("requirements", "empty requirement")
		}
		t := domain.LiquidationTask{
			ID:        uuid.NewString(),
			EstateID:  est.ID,
			AssetID:   a.ID,
			Title:     requirement,
			Type:      "legal",
			Status:    "open",
			CreatedAt: now,
		}
		if err := e.Repo.InsertLiquidationTask(ctx, tx, t); err != nil {
			return domain.EstateAsset{}, fmt.Errorf("insert requirement task: %w", err)
		}
		a.LinkedTasks = append(a.LinkedTasks, t)
	}
	liq := domain.LiquidationTask{
		ID:        uuid.NewString(),
		EstateID:  est.ID,
		AssetID:   a.ID,
		Title:     "Liquidate " + a.Name,
		Type:      "administrative",
		Status:    "open",
		CreatedAt: now,
	}
	if err := e.Repo.InsertLiquidationTask(ctx, tx, liq); err != nil {
		return domain.EstateAsset{}, fmt.Errorf("insert liquidation task: %w", err)
	}
	a.LinkedTasks = append(a.LinkedTasks, liq)

	if err := e.Log.Append(ctx, tx, "estate", est.ID, opts.ActorID, "estate.asset_add", fmt.Sprintf("asset=%s tasks=%d", a.ID, len(a.LinkedTasks))); err != nil {
		return domain.EstateAsset{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.EstateAsset{}, err
	}
	return a, nil
}

// CloseLiquidationTask closes one linked task. When it was the asset's last
// open task the asset flips to completed in the same transaction.
func (e Engine) CloseLiquidationTask(ctx context.Context, taskID, actorID string) (domain.LiquidationTask, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.LiquidationTask{}, err
	}
	defer tx.Rollback()
	t, err := e.Repo.GetLiquidationTaskTx(ctx, tx, taskID)
	if err != nil {
		return domain.LiquidationTask{}, err
	}
	if t.Status == "closed" {
		return domain.LiquidationTask{}, &InvalidTransitionError{Entity: "liquidation_task", From: t.Status, Event: "close"}
	}
	if err := e.Repo.UpdateLiquidationTaskStatus(ctx, tx, t.ID, "closed"); err != nil {
		return domain.LiquidationTask{}, err
	}
	t.Status = "closed"
	open, err := e.Repo.CountOpenAssetTasks(ctx, tx, t.AssetID)
	if err != nil {
		return domain.LiquidationTask{}, err
	}
	details := "asset=" + t.AssetID
	if open == 0 {
		if err := e.Repo.UpdateAssetStatus(ctx, tx, t.AssetID, "completed"); err != nil {
			return domain.LiquidationTask{}, err
		}
		details += " asset_completed=true"
	}
	if err := e.Log.Append(ctx, tx, "estate", t.EstateID, actorID, "estate.task_close", details); err != nil {
		return domain.LiquidationTask{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.LiquidationTask{}, err
	}
	return t, nil
}

// CloseEstate archives an estate once every asset is completed. The refusal
// lists each blocking asset with its open task count.
func (e Engine) CloseEstate(ctx context.Context, id, actorID string) (domain.Estate, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Estate{}, err
	}
	defer tx.Rollback()
	est, err := e.Repo.GetEstateTx(ctx, tx, id)
	if err != nil {
		return domain.Estate{}, err
	}
	if est.Status == "closed" {
		return domain.Estate{}, &InvalidTransitionError{Entity: "estate", From: est.Status, Event: "close"}
	}
	var blocking []string
	for _, a := range est.Assets {
		if a.Status == "completed" {
			continue
		}
		blocking = append(blocking, fmt.Sprintf("asset %s (%s) has %d open task(s)", a.Name, a.ID, a.OpenTaskCount()))
	}
	if len(blocking) > 0 {
		return domain.Estate{}, &ClosurePreconditionError{Entity: "estate", ID: est.ID, Blocking: blocking}
	}
	est.Status = "closed"
	closedAt := e.nowString()
	est.ClosedAt = &closedAt
	if err := e.Repo.UpdateEstate(ctx, tx, est); err != nil {
		return domain.Estate{}, err
	}
	if err := e.Log.Append(ctx, tx, "estate", est.ID, actorID, "estate.close", fmt.Sprintf("assets=%d", len(est.Assets))); err != nil {
		return domain.Estate{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Estate{}, err
	}
	return est, nil
}
