// Package store persists discovered prospects. Persistence is opt-in:
// the discovery pipeline itself is transient per request and callers
// decide what to keep.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/config"
	"github.com/sells-group/prospector/internal/model"
)

// Sentinel errors. Callers match with eris.Is.
var (
	// ErrAlreadyExists means a prospect with the same email or
	// name+company identity is already stored.
	ErrAlreadyExists = eris.New("store: prospect already exists")
	// ErrNotFound means no prospect matched the requested ID.
	ErrNotFound = eris.New("store: prospect not found")
)

// ProspectFilter specifies criteria for listing prospects.
type ProspectFilter struct {
	Industry string `json:"industry,omitempty"`
	Company  string `json:"company,omitempty"`
	Source   string `json:"source,omitempty"`
	MinScore int    `json:"min_score,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for prospects.
type Store interface {
	// InsertProspect stores one prospect. A prospect matching an
	// existing record's email, or its name+company when both lack an
	// email, returns ErrAlreadyExists.
	InsertProspect(ctx context.Context, p model.Prospect) error
	GetProspect(ctx context.Context, id string) (*model.Prospect, error)
	ListProspects(ctx context.Context, filter ProspectFilter) ([]model.Prospect, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the Store selected by config. Supported drivers are
// "sqlite" and "postgres".
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
