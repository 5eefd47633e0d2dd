package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"lexline/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// querier abstracts *sql.DB and *sql.Tx so the same scan code serves both the
// read path and the serialized in-transaction mutation path.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// LogFilters narrows activity-log listings.
type LogFilters struct {
	EntityKind string
	EntityID   string
	ActorID    string
	Limit      int
}

// ListLog returns activity-log entries newest-first.
func (r Repo) ListLog(ctx context.Context, f LogFilters) ([]domain.LogEntry, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.EntityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, f.EntityKind)
	}
	if f.EntityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, f.EntityID)
	}
	if f.ActorID != "" {
		clauses = append(clauses, "actor_id=?")
		args = append(args, f.ActorID)
	}
	query := `SELECT id,ts,entity_kind,entity_id,actor_id,action,COALESCE(details,'') FROM activity_log WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.LogEntry
	for rows.Next() {
		var e domain.LogEntry
		if err := rows.Scan(&e.ID, &e.TS, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Action, &e.Details); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// EntityLog returns the full trail for one entity, newest-first.
func (r Repo) EntityLog(ctx context.Context, entityKind, entityID string) ([]domain.LogEntry, error) {
	return r.ListLog(ctx, LogFilters{EntityKind: entityKind, EntityID: entityID})
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}

func nullableFloatPtr(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func strOrNil(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
