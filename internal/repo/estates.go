package repo

import (
	"context"
	"database/sql"
	"strings"

	"lexline/internal/domain"
)

func (r Repo) InsertEstate(ctx context.Context, tx *sql.Tx, e domain.Estate) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO estates(id,deceased_name,method,status,created_at,closed_at) VALUES (?,?,?,?,?,?)`,
		e.ID, e.DeceasedName, e.Method, e.Status, e.CreatedAt, nullableStringPtr(e.ClosedAt))
	return err
}

func (r Repo) UpdateEstate(ctx context.Context, tx *sql.Tx, e domain.Estate) error {
	_, err := tx.ExecContext(ctx, `UPDATE estates SET status=?, closed_at=? WHERE id=?`,
		e.Status, nullableStringPtr(e.ClosedAt), e.ID)
	return err
}

func (r Repo) GetEstate(ctx context.Context, id string) (domain.Estate, error) {
	return r.getEstate(ctx, r.DB, id)
}

func (r Repo) GetEstateTx(ctx context.Context, tx *sql.Tx, id string) (domain.Estate, error) {
	return r.getEstate(ctx, tx, id)
}

func (r Repo) getEstate(ctx context.Context, q querier, id string) (domain.Estate, error) {
	var e domain.Estate
	var closedAt sql.NullString
	err := q.QueryRowContext(ctx, `SELECT id,deceased_name,method,status,created_at,closed_at FROM estates WHERE id=?`, id).
		Scan(&e.ID, &e.DeceasedName, &e.Method, &e.Status, &e.CreatedAt, &closedAt)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}
	e.ClosedAt = strOrNil(closedAt)
	if e.Heirs, err = r.listHeirs(ctx, q, e.ID); err != nil {
		return e, err
	}
	if e.Assets, err = r.listAssets(ctx, q, e.ID); err != nil {
		return e, err
	}
	return e, nil
}

type EstateFilters struct {
	Status string
	Method string
	Limit  int
}

func (r Repo) ListEstates(ctx context.Context, f EstateFilters) ([]domain.Estate, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Method != "" {
		clauses = append(clauses, "method=?")
		args = append(args, f.Method)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT id,deceased_name,method,status,created_at,closed_at FROM estates ` + where + ` ORDER BY created_at ASC, id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Estate
	for rows.Next() {
		var e domain.Estate
		var closedAt sql.NullString
		if err := rows.Scan(&e.ID, &e.DeceasedName, &e.Method, &e.Status, &e.CreatedAt, &closedAt); err != nil {
			return nil, err
		}
		e.ClosedAt = strOrNil(closedAt)
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		if res[i].Heirs, err = r.listHeirs(ctx, r.DB, res[i].ID); err != nil {
			return nil, err
		}
		if res[i].Assets, err = r.listAssets(ctx, r.DB, res[i].ID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r Repo) InsertHeir(ctx context.Context, tx *sql.Tx, h domain.Heir) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO heirs(id,estate_id,name,identity_no,birth_date,phone,iban) VALUES (?,?,?,?,?,?,?)`,
		h.ID, h.EstateID, h.Name, h.IdentityNo, nullable(h.BirthDate), nullable(h.Phone), h.IBAN)
	return err
}

func (r Repo) listHeirs(ctx context.Context, q querier, estateID string) ([]domain.Heir, error) {
	rows, err := q.QueryContext(ctx, `SELECT id,estate_id,name,identity_no,COALESCE(birth_date,''),COALESCE(phone,''),iban FROM heirs WHERE estate_id=? ORDER BY id ASC`, estateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Heir
	for rows.Next() {
		var h domain.Heir
		if err := rows.Scan(&h.ID, &h.EstateID, &h.Name, &h.IdentityNo, &h.BirthDate, &h.Phone, &h.IBAN); err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, rows.Err()
}

func (r Repo) InsertAsset(ctx context.Context, tx *sql.Tx, a domain.EstateAsset) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO estate_assets(id,estate_id,type,name,status,ownership_percent,details_json) VALUES (?,?,?,?,?,?,?)`,
		a.ID, a.EstateID, a.Type, a.Name, a.Status, a.OwnershipPercent, nullableStringPtr(a.DetailsJSON))
	return err
}

func (r Repo) UpdateAssetStatus(ctx context.Context, tx *sql.Tx, assetID, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE estate_assets SET status=? WHERE id=?`, status, assetID)
	return err
}

func (r Repo) listAssets(ctx context.Context, q querier, estateID string) ([]domain.EstateAsset, error) {
	rows, err := q.QueryContext(ctx, `SELECT id,estate_id,type,name,status,ownership_percent,details_json FROM estate_assets WHERE estate_id=? ORDER BY id ASC`, estateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.EstateAsset
	for rows.Next() {
		var a domain.EstateAsset
		var details sql.NullString
		if err := rows.Scan(&a.ID, &a.EstateID, &a.Type, &a.Name, &a.Status, &a.OwnershipPercent, &details); err != nil {
			return nil, err
		}
		a.DetailsJSON = strOrNil(details)
		res = append(res, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		tasks, err := r.listLiquidationTasks(ctx, q, res[i].ID)
		if err != nil {
			return nil, err
		}
		res[i].LinkedTasks = tasks
	}
	return res, nil
}

func (r Repo) InsertLiquidationTask(ctx context.Context, tx *sql.Tx, t domain.LiquidationTask) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO liquidation_tasks(id,estate_id,asset_id,title,type,next_step,next_step_date,status,has_fees,created_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.EstateID, t.AssetID, t.Title, t.Type, nullable(t.NextStep), nullableStringPtr(t.NextStepDate), t.Status, boolToInt(t.HasFees), t.CreatedAt)
	return err
}

func (r Repo) UpdateLiquidationTaskStatus(ctx context.Context, tx *sql.Tx, taskID, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE liquidation_tasks SET status=? WHERE id=?`, status, taskID)
	return err
}

func (r Repo) GetLiquidationTaskTx(ctx context.Context, tx *sql.Tx, id string) (domain.LiquidationTask, error) {
	var t domain.LiquidationTask
	var nextDate sql.NullString
	var hasFees int
	err := tx.QueryRowContext(ctx, `SELECT id,estate_id,asset_id,title,type,COALESCE(next_step,''),next_step_date,status,has_fees,created_at FROM liquidation_tasks WHERE id=?`, id).
		Scan(&t.ID, &t.EstateID, &t.AssetID, &t.Title, &t.Type, &t.NextStep, &nextDate, &t.Status, &hasFees, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.NextStepDate = strOrNil(nextDate)
	t.HasFees = hasFees != 0
	return t, nil
}

func (r Repo) listLiquidationTasks(ctx context.Context, q querier, assetID string) ([]domain.LiquidationTask, error) {
	rows, err := q.QueryContext(ctx, `SELECT id,estate_id,asset_id,title,type,COALESCE(next_step,''),next_step_date,status,has_fees,created_at FROM liquidation_tasks WHERE asset_id=? ORDER BY id ASC`, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.LiquidationTask
	for rows.Next() {
		var t domain.LiquidationTask
		var nextDate sql.NullString
		var hasFees int
		if err := rows.Scan(&t.ID, &t.EstateID, &t.AssetID, &t.Title, &t.Type, &t.NextStep, &nextDate, &t.Status, &hasFees, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.NextStepDate = strOrNil(nextDate)
		t.HasFees = hasFees != 0
		res = append(res, t)
	}
	return res, rows.Err()
}

// CountOpenAssetTasks returns the number of open linked tasks for an asset.
func (r Repo) CountOpenAssetTasks(ctx context.Context, tx *sql.Tx, assetID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT count(*) FROM liquidation_tasks WHERE asset_id=? AND status!='closed'`, assetID).Scan(&n)
	return n, err
}
