package engine

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"lexline/internal/audit"
	"lexline/internal/config"
	"lexline/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Log    audit.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Log:    audit.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) nowString() string {
	return e.now().UTC().Format(time.RFC3339)
}

// ValidationError reports a rejected input. Field names the offending
// parameter when one can be singled out.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError reports an event applied to an entity whose current
// status does not admit it.
type InvalidTransitionError struct {
	Entity string
	From   string
	Event  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s in status %s does not accept event %s", e.Entity, e.From, e.Event)
}

// ClosurePreconditionError reports a refused closure, listing what still
// blocks it.
type ClosurePreconditionError struct {
	Entity   string
	ID       string
	Blocking []string
}

func (e *ClosurePreconditionError) Error() string {
	return fmt.Sprintf("%s %s cannot close: %s", e.Entity, e.ID, strings.Join(e.Blocking, "; "))
}
