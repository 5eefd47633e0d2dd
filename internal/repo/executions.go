package repo

import (
	"context"
	"database/sql"
	"strings"

	"lexline/internal/domain"
)

const executionColumns = `id,client_id,client_name,COALESCE(contact_number,''),opponent_name,type,claim_amount,
COALESCE(court_name,''),COALESCE(circuit_name,''),submission_date,audit_status,status,suspension_note,closing_reason,created_at,closed_at`

func scanExecution(scan func(dest ...any) error) (domain.ExecutionRequest, error) {
	var e domain.ExecutionRequest
	var claim sql.NullFloat64
	var suspension, closing, closedAt sql.NullString
	err := scan(&e.ID, &e.ClientID, &e.ClientName, &e.ContactNumber, &e.OpponentName, &e.Type, &claim,
		&e.CourtName, &e.CircuitName, &e.SubmissionDate, &e.AuditStatus, &e.Status, &suspension, &closing, &e.CreatedAt, &closedAt)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}
	if claim.Valid {
		v := claim.Float64
		e.ClaimAmount = &v
	}
	e.SuspensionNote = strOrNil(suspension)
	e.ClosingReason = strOrNil(closing)
	e.ClosedAt = strOrNil(closedAt)
	return e, nil
}

func (r Repo) InsertExecution(ctx context.Context, tx *sql.Tx, e domain.ExecutionRequest) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO executions(id,client_id,client_name,contact_number,opponent_name,type,claim_amount,court_name,circuit_name,submission_date,audit_status,status,suspension_note,closing_reason,created_at,closed_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.ClientID, e.ClientName, nullable(e.ContactNumber), e.OpponentName, e.Type, nullableFloatPtr(e.ClaimAmount),
		nullable(e.CourtName), nullable(e.CircuitName), e.SubmissionDate, e.AuditStatus, e.Status,
		nullableStringPtr(e.SuspensionNote), nullableStringPtr(e.ClosingReason), e.CreatedAt, nullableStringPtr(e.ClosedAt))
	return err
}

func (r Repo) UpdateExecution(ctx context.Context, tx *sql.Tx, e domain.ExecutionRequest) error {
	_, err := tx.ExecContext(ctx, `UPDATE executions SET status=?, suspension_note=?, closing_reason=?, audit_status=?, closed_at=? WHERE id=?`,
		e.Status, nullableStringPtr(e.SuspensionNote), nullableStringPtr(e.ClosingReason), e.AuditStatus, nullableStringPtr(e.ClosedAt), e.ID)
	return err
}

func (r Repo) GetExecution(ctx context.Context, id string) (domain.ExecutionRequest, error) {
	return r.getExecution(ctx, r.DB, id)
}

// GetExecutionTx reads an execution inside the mutation transaction so the
// transition check and the status write see the same state.
func (r Repo) GetExecutionTx(ctx context.Context, tx *sql.Tx, id string) (domain.ExecutionRequest, error) {
	return r.getExecution(ctx, tx, id)
}

func (r Repo) getExecution(ctx context.Context, q querier, id string) (domain.ExecutionRequest, error) {
	row := q.QueryRowContext(ctx, `SELECT `+executionColumns+` FROM executions WHERE id=?`, id)
	e, err := scanExecution(row.Scan)
	if err != nil {
		return e, err
	}
	if e.Decisions, err = r.listDecisions(ctx, q, e.ID); err != nil {
		return e, err
	}
	if e.Collections, err = r.listCollections(ctx, q, e.ID); err != nil {
		return e, err
	}
	return e, nil
}

type ExecutionFilters struct {
	Status string
	Type   string
	Client string
	Limit  int
}

// ListExecutions returns executions in insertion order.
func (r Repo) ListExecutions(ctx context.Context, f ExecutionFilters) ([]domain.ExecutionRequest, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.Client != "" {
		clauses = append(clauses, "client_id=?")
		args = append(args, f.Client)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + executionColumns + ` FROM executions ` + where + ` ORDER BY created_at ASC, id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ExecutionRequest
	for rows.Next() {
		e, err := scanExecution(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		if res[i].Decisions, err = r.listDecisions(ctx, r.DB, res[i].ID); err != nil {
			return nil, err
		}
		if res[i].Collections, err = r.listCollections(ctx, r.DB, res[i].ID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// ListOpenExecutions returns executions the deadline monitor may escalate.
func (r Repo) ListOpenExecutions(ctx context.Context) ([]domain.ExecutionRequest, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+executionColumns+` FROM executions WHERE status IN ('registered','in_progress') ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ExecutionRequest
	for rows.Next() {
		e, err := scanExecution(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		if res[i].Decisions, err = r.listDecisions(ctx, r.DB, res[i].ID); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (r Repo) InsertDecision(ctx context.Context, tx *sql.Tx, d domain.Decision) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO execution_decisions(id,execution_id,type,custom_type,date) VALUES (?,?,?,?,?)`,
		d.ID, d.ExecutionID, d.Type, nullableStringPtr(d.CustomType), d.Date)
	return err
}

func (r Repo) InsertCollection(ctx context.Context, tx *sql.Tx, c domain.Collection) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO execution_collections(id,execution_id,amount,date,method,reference) VALUES (?,?,?,?,?,?)`,
		c.ID, c.ExecutionID, c.Amount, c.Date, nullable(c.Method), nullable(c.Reference))
	return err
}

func (r Repo) listDecisions(ctx context.Context, q querier, executionID string) ([]domain.Decision, error) {
	rows, err := q.QueryContext(ctx, `SELECT id,execution_id,type,custom_type,date FROM execution_decisions WHERE execution_id=? ORDER BY date ASC, id ASC`, executionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Decision
	for rows.Next() {
		var d domain.Decision
		var custom sql.NullString
		if err := rows.Scan(&d.ID, &d.ExecutionID, &d.Type, &custom, &d.Date); err != nil {
			return nil, err
		}
		d.CustomType = strOrNil(custom)
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r Repo) listCollections(ctx context.Context, q querier, executionID string) ([]domain.Collection, error) {
	rows, err := q.QueryContext(ctx, `SELECT id,execution_id,amount,date,COALESCE(method,''),COALESCE(reference,'') FROM execution_collections WHERE execution_id=? ORDER BY date ASC, id ASC`, executionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Collection
	for rows.Next() {
		var c domain.Collection
		if err := rows.Scan(&c.ID, &c.ExecutionID, &c.Amount, &c.Date, &c.Method, &c.Reference); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// CountExecutionsByStatus returns a status histogram for dashboards.
func (r Repo) CountExecutionsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, count(*) FROM executions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[status] = count
	}
	return res, rows.Err()
}
