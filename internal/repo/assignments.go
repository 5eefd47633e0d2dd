package repo

import (
	"context"
	"database/sql"
	"strings"

	"lexline/internal/domain"
)

const intakeColumns = `id,department,client_name,COALESCE(client_phone,''),subject,COALESCE(next_step,''),deadline_date,current_stage,status,employee_id,rejection_reason,contract_id,missing_info,created_at`

func scanIntake(scan func(dest ...any) error) (domain.IntakeAssignment, error) {
	var a domain.IntakeAssignment
	var deadline, employee, rejection, contract, missing sql.NullString
	err := scan(&a.ID, &a.Department, &a.ClientName, &a.ClientPhone, &a.Subject, &a.NextStep,
		&deadline, &a.CurrentStage, &a.Status, &employee, &rejection, &contract, &missing, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	a.DeadlineDate = strOrNil(deadline)
	a.EmployeeID = strOrNil(employee)
	a.RejectionReason = strOrNil(rejection)
	a.ContractID = strOrNil(contract)
	a.MissingInfo = strOrNil(missing)
	return a, nil
}

func (r Repo) InsertIntake(ctx context.Context, tx *sql.Tx, a domain.IntakeAssignment) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO intake_assignments(id,department,client_name,client_phone,subject,next_step,deadline_date,current_stage,status,employee_id,rejection_reason,contract_id,missing_info,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.Department, a.ClientName, nullable(a.ClientPhone), a.Subject, nullable(a.NextStep),
		nullableStringPtr(a.DeadlineDate), a.CurrentStage, a.Status, nullableStringPtr(a.EmployeeID),
		nullableStringPtr(a.RejectionReason), nullableStringPtr(a.ContractID), nullableStringPtr(a.MissingInfo), a.CreatedAt)
	return err
}

func (r Repo) UpdateIntake(ctx context.Context, tx *sql.Tx, a domain.IntakeAssignment) error {
	_, err := tx.ExecContext(ctx, `UPDATE intake_assignments SET current_stage=?, status=?, employee_id=?, next_step=?, deadline_date=?, rejection_reason=?, contract_id=?, missing_info=? WHERE id=?`,
		a.CurrentStage, a.Status, nullableStringPtr(a.EmployeeID), nullable(a.NextStep), nullableStringPtr(a.DeadlineDate),
		nullableStringPtr(a.RejectionReason), nullableStringPtr(a.ContractID), nullableStringPtr(a.MissingInfo), a.ID)
	return err
}

func (r Repo) GetIntake(ctx context.Context, id string) (domain.IntakeAssignment, error) {
	return r.getIntake(ctx, r.DB, id)
}

func (r Repo) GetIntakeTx(ctx context.Context, tx *sql.Tx, id string) (domain.IntakeAssignment, error) {
	return r.getIntake(ctx, tx, id)
}

func (r Repo) getIntake(ctx context.Context, q querier, id string) (domain.IntakeAssignment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+intakeColumns+` FROM intake_assignments WHERE id=?`, id)
	return scanIntake(row.Scan)
}

type IntakeFilters struct {
	Department string
	Status     string
	Employee   string
	Limit      int
}

func (r Repo) ListIntakes(ctx context.Context, f IntakeFilters) ([]domain.IntakeAssignment, error) {
	var clauses []string
	var args []any
	if f.Department != "" {
		clauses = append(clauses, "department=?")
		args = append(args, f.Department)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Employee != "" {
		clauses = append(clauses, "employee_id=?")
		args = append(args, f.Employee)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + intakeColumns + ` FROM intake_assignments ` + where + ` ORDER BY created_at ASC, id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.IntakeAssignment
	for rows.Next() {
		a, err := scanIntake(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

const deptColumns = `id,department,COALESCE(contract_ref,''),COALESCE(client_ref,''),task_type,weight,subject,COALESCE(next_step,''),deadline_date,status,employee_id,incomplete_reason,missing_info,created_at`

func scanDept(scan func(dest ...any) error) (domain.DeptAssignment, error) {
	var a domain.DeptAssignment
	var deadline, employee, incomplete, missing sql.NullString
	err := scan(&a.ID, &a.Department, &a.ContractRef, &a.ClientRef, &a.TaskType, &a.Weight, &a.Subject, &a.NextStep,
		&deadline, &a.Status, &employee, &incomplete, &missing, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}
	a.DeadlineDate = strOrNil(deadline)
	a.EmployeeID = strOrNil(employee)
	a.IncompleteReason = strOrNil(incomplete)
	a.MissingInfo = strOrNil(missing)
	return a, nil
}

func (r Repo) InsertDept(ctx context.Context, tx *sql.Tx, a domain.DeptAssignment) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO dept_assignments(id,department,contract_ref,client_ref,task_type,weight,subject,next_step,deadline_date,status,employee_id,incomplete_reason,missing_info,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.ID, a.Department, nullable(a.ContractRef), nullable(a.ClientRef), a.TaskType, a.Weight, a.Subject,
		nullable(a.NextStep), nullableStringPtr(a.DeadlineDate), a.Status, nullableStringPtr(a.EmployeeID),
		nullableStringPtr(a.IncompleteReason), nullableStringPtr(a.MissingInfo), a.CreatedAt)
	return err
}

func (r Repo) UpdateDept(ctx context.Context, tx *sql.Tx, a domain.DeptAssignment) error {
	_, err := tx.ExecContext(ctx, `UPDATE dept_assignments SET status=?, employee_id=?, next_step=?, deadline_date=?, incomplete_reason=?, missing_info=? WHERE id=?`,
		a.Status, nullableStringPtr(a.EmployeeID), nullable(a.NextStep), nullableStringPtr(a.DeadlineDate),
		nullableStringPtr(a.IncompleteReason), nullableStringPtr(a.MissingInfo), a.ID)
	return err
}

func (r Repo) GetDept(ctx context.Context, id string) (domain.DeptAssignment, error) {
	return r.getDept(ctx, r.DB, id)
}

func (r Repo) GetDeptTx(ctx context.Context, tx *sql.Tx, id string) (domain.DeptAssignment, error) {
	return r.getDept(ctx, tx, id)
}

func (r Repo) getDept(ctx context.Context, q querier, id string) (domain.DeptAssignment, error) {
	row := q.QueryRowContext(ctx, `SELECT `+deptColumns+` FROM dept_assignments WHERE id=?`, id)
	return scanDept(row.Scan)
}

type DeptFilters struct {
	Department string
	Status     string
	Employee   string
	Limit      int
}

func (r Repo) ListDepts(ctx context.Context, f DeptFilters) ([]domain.DeptAssignment, error) {
	var clauses []string
	var args []any
	if f.Department != "" {
		clauses = append(clauses, "department=?")
		args = append(args, f.Department)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Employee != "" {
		clauses = append(clauses, "employee_id=?")
		args = append(args, f.Employee)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + deptColumns + ` FROM dept_assignments ` + where + ` ORDER BY created_at ASC, id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.DeptAssignment
	for rows.Next() {
		a, err := scanDept(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}
