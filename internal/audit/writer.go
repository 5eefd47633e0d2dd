package audit

import (
	"context"
	"database/sql"
	"time"
)

// Writer appends entries to the shared activity-log table. The table is
// append-only: rows are never updated or deleted.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

func (w Writer) Append(ctx context.Context, tx *sql.Tx, entityKind, entityID, actorID, action, details string) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	_, err := tx.ExecContext(ctx, `INSERT INTO activity_log(ts,entity_kind,entity_id,actor_id,action,details) VALUES (?,?,?,?,?,?)`,
		ts, entityKind, entityID, actorID, action, nullable(details))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
