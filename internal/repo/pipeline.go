package repo

import (
	"context"
	"database/sql"
	"strings"

	"lexline/internal/domain"
)

const pipelineColumns = `id,name,entity,proposal_date,reviewer_id,reviewer_opinion,assignee_type,assignee_id,assignee_opinion,rejection_reason,escalated,current_stage,status,created_at`

func scanPipelineItem(scan func(dest ...any) error) (domain.PipelineItem, error) {
	var p domain.PipelineItem
	var revOpinion, asgType, asgID, asgOpinion, reason sql.NullString
	var escalated int
	err := scan(&p.ID, &p.Name, &p.Entity, &p.ProposalDate, &p.ReviewerID, &revOpinion,
		&asgType, &asgID, &asgOpinion, &reason, &escalated, &p.CurrentStage, &p.Status, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.ReviewerOpinion = strOrNil(revOpinion)
	p.AssigneeType = strOrNil(asgType)
	p.AssigneeID = strOrNil(asgID)
	p.AssigneeOpinion = strOrNil(asgOpinion)
	p.RejectionReason = strOrNil(reason)
	p.Escalated = escalated != 0
	return p, nil
}

func (r Repo) InsertPipelineItem(ctx context.Context, tx *sql.Tx, p domain.PipelineItem) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO pipeline_items(id,name,entity,proposal_date,reviewer_id,reviewer_opinion,assignee_type,assignee_id,assignee_opinion,rejection_reason,escalated,current_stage,status,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Entity, p.ProposalDate, p.ReviewerID, nullableStringPtr(p.ReviewerOpinion),
		nullableStringPtr(p.AssigneeType), nullableStringPtr(p.AssigneeID), nullableStringPtr(p.AssigneeOpinion),
		nullableStringPtr(p.RejectionReason), boolToInt(p.Escalated), p.CurrentStage, p.Status, p.CreatedAt)
	return err
}

func (r Repo) UpdatePipelineItem(ctx context.Context, tx *sql.Tx, p domain.PipelineItem) error {
	_, err := tx.ExecContext(ctx, `UPDATE pipeline_items SET reviewer_opinion=?, assignee_type=?, assignee_id=?, assignee_opinion=?, rejection_reason=?, escalated=?, current_stage=?, status=? WHERE id=?`,
		nullableStringPtr(p.ReviewerOpinion), nullableStringPtr(p.AssigneeType), nullableStringPtr(p.AssigneeID),
		nullableStringPtr(p.AssigneeOpinion), nullableStringPtr(p.RejectionReason), boolToInt(p.Escalated),
		p.CurrentStage, p.Status, p.ID)
	return err
}

func (r Repo) GetPipelineItem(ctx context.Context, id string) (domain.PipelineItem, error) {
	return r.getPipelineItem(ctx, r.DB, id)
}

func (r Repo) GetPipelineItemTx(ctx context.Context, tx *sql.Tx, id string) (domain.PipelineItem, error) {
	return r.getPipelineItem(ctx, tx, id)
}

func (r Repo) getPipelineItem(ctx context.Context, q querier, id string) (domain.PipelineItem, error) {
	row := q.QueryRowContext(ctx, `SELECT `+pipelineColumns+` FROM pipeline_items WHERE id=?`, id)
	return scanPipelineItem(row.Scan)
}

type PipelineFilters struct {
	Status string
	Stage  string
	Limit  int
}

func (r Repo) ListPipelineItems(ctx context.Context, f PipelineFilters) ([]domain.PipelineItem, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Stage != "" {
		clauses = append(clauses, "current_stage=?")
		args = append(args, f.Stage)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + pipelineColumns + ` FROM pipeline_items ` + where + ` ORDER BY created_at ASC, id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.PipelineItem
	for rows.Next() {
		p, err := scanPipelineItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

const projectColumns = `id,name,manager_id,client_name,contract_status,contract_no,contract_follow_up,status,created_at`

func scanProject(scan func(dest ...any) error) (domain.Project, error) {
	var p domain.Project
	var contractNo sql.NullString
	err := scan(&p.ID, &p.Name, &p.ManagerID, &p.ClientName, &p.ContractStatus, &contractNo, &p.ContractFollowUp, &p.Status, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	p.ContractNo = strOrNil(contractNo)
	return p, nil
}

func (r Repo) InsertProject(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO projects(id,name,manager_id,client_name,contract_status,contract_no,contract_follow_up,status,created_at)
VALUES (?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.ManagerID, p.ClientName, p.ContractStatus, nullableStringPtr(p.ContractNo), p.ContractFollowUp, p.Status, p.CreatedAt)
	return err
}

func (r Repo) UpdateProject(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	_, err := tx.ExecContext(ctx, `UPDATE projects SET contract_status=?, contract_no=?, contract_follow_up=?, status=? WHERE id=?`,
		p.ContractStatus, nullableStringPtr(p.ContractNo), p.ContractFollowUp, p.Status, p.ID)
	return err
}

func (r Repo) GetProject(ctx context.Context, id string) (domain.Project, error) {
	return r.getProject(ctx, r.DB, id)
}

func (r Repo) GetProjectTx(ctx context.Context, tx *sql.Tx, id string) (domain.Project, error) {
	return r.getProject(ctx, tx, id)
}

func (r Repo) getProject(ctx context.Context, q querier, id string) (domain.Project, error) {
	row := q.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id)
	return scanProject(row.Scan)
}

type ProjectFilters struct {
	Status   string
	FollowUp string
	Limit    int
}

func (r Repo) ListProjects(ctx context.Context, f ProjectFilters) ([]domain.Project, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.FollowUp != "" {
		clauses = append(clauses, "contract_follow_up=?")
		args = append(args, f.FollowUp)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + projectColumns + ` FROM projects ` + where + ` ORDER BY created_at ASC, id ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Project
	for rows.Next() {
		p, err := scanProject(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}
