package repo

import (
	"context"
	"database/sql"
	"strings"

	"lexline/internal/domain"
)

const taskColumns = `id,name,origin,COALESCE(reference_id,''),COALESCE(reference_label,''),executor_id,reviewer_id,load,next_step,next_step_date,result,status,requires_approval,created_by,created_at,closed_at`

func scanTask(scan func(dest ...any) error) (domain.Task, error) {
	var t domain.Task
	var reviewer, nextStep, nextDate, result, closedAt sql.NullString
	var requiresApproval int
	err := scan(&t.ID, &t.Name, &t.Origin, &t.ReferenceID, &t.ReferenceLabel, &t.ExecutorID, &reviewer,
		&t.Load, &nextStep, &nextDate, &result, &t.Status, &requiresApproval, &t.CreatedBy, &t.CreatedAt, &closedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.ReviewerID = strOrNil(reviewer)
	t.NextStep = strOrNil(nextStep)
	t.NextStepDate = strOrNil(nextDate)
	t.Result = strOrNil(result)
	t.ClosedAt = strOrNil(closedAt)
	t.RequiresApproval = requiresApproval != 0
	return t, nil
}

func (r Repo) InsertTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO tasks(id,name,origin,reference_id,reference_label,executor_id,reviewer_id,load,next_step,next_step_date,result,status,requires_approval,created_by,created_at,closed_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Name, t.Origin, nullable(t.ReferenceID), nullable(t.ReferenceLabel), t.ExecutorID,
		nullableStringPtr(t.ReviewerID), t.Load, nullableStringPtr(t.NextStep), nullableStringPtr(t.NextStepDate),
		nullableStringPtr(t.Result), t.Status, boolToInt(t.RequiresApproval), t.CreatedBy, t.CreatedAt, nullableStringPtr(t.ClosedAt))
	return err
}

func (r Repo) UpdateTask(ctx context.Context, tx *sql.Tx, t domain.Task) error {
	_, err := tx.ExecContext(ctx, `UPDATE tasks SET status=?, next_step=?, next_step_date=?, result=?, closed_at=? WHERE id=?`,
		t.Status, nullableStringPtr(t.NextStep), nullableStringPtr(t.NextStepDate), nullableStringPtr(t.Result),
		nullableStringPtr(t.ClosedAt), t.ID)
	return err
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return r.getTask(ctx, r.DB, id)
}

func (r Repo) GetTaskTx(ctx context.Context, tx *sql.Tx, id string) (domain.Task, error) {
	return r.getTask(ctx, tx, id)
}

func (r Repo) getTask(ctx context.Context, q querier, id string) (domain.Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	return scanTask(row.Scan)
}

type TaskFilters struct {
	Status   string
	Origin   string
	Executor string
	Limit    int
}

func (r Repo) ListTasks(ctx context.Context, f TaskFilters) ([]domain.Task, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Origin != "" {
		clauses = append(clauses, "origin=?")
		args = append(args, f.Origin)
	}
	if f.Executor != "" {
		clauses = append(clauses, "executor_id=?")
		args = append(args, f.Executor)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + taskColumns + ` FROM tasks ` + where + ` ORDER BY created_at ASC, id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}
