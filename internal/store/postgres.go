package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock's
// PgxPoolIface satisfies it for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (used by tests).
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS prospects (
	id           TEXT PRIMARY KEY,
	first_name   TEXT NOT NULL,
	last_name    TEXT NOT NULL,
	email        TEXT,
	company      TEXT NOT NULL,
	position     TEXT NOT NULL,
	industry     TEXT,
	location     TEXT,
	linkedin_url TEXT,
	website      TEXT,
	source       TEXT NOT NULL,
	confidence   INTEGER NOT NULL DEFAULT 0,
	summary      TEXT,
	validation   JSONB,
	score        INTEGER NOT NULL DEFAULT 0,
	tags         JSONB,
	validated    BOOLEAN NOT NULL DEFAULT false,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_prospects_email ON prospects(lower(email));
CREATE INDEX IF NOT EXISTS idx_prospects_company ON prospects(lower(company));
CREATE INDEX IF NOT EXISTS idx_prospects_score ON prospects(score);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// InsertProspect mirrors the SQLite duplicate rule: email match or
// name+company match both count.
func (s *PostgresStore) InsertProspect(ctx context.Context, p model.Prospect) error {
	var existing string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM prospects
		 WHERE (email IS NOT NULL AND email != '' AND lower(email) = $1)
		    OR (lower(first_name) = $2 AND lower(last_name) = $3 AND lower(company) = $4)
		 LIMIT 1`,
		strings.ToLower(p.Email),
		strings.ToLower(p.FirstName), strings.ToLower(p.LastName), strings.ToLower(p.Company),
	).Scan(&existing)
	if err == nil {
		return ErrAlreadyExists
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return eris.Wrap(err, "postgres: check duplicate")
	}

	validationJSON, err := json.Marshal(p.EmailValidation)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal validation")
	}
	tagsJSON, err := json.Marshal(p.Tags)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal tags")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO prospects
		 (id, first_name, last_name, email, company, position, industry, location,
		  linkedin_url, website, source, confidence, summary, validation, score, tags, validated, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Company, p.Position, p.Industry, p.Location,
		p.LinkedInURL, p.Website, string(p.Source), p.Confidence, p.Summary,
		string(validationJSON), p.Score, string(tagsJSON), p.Validated, p.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert prospect")
}

func (s *PostgresStore) GetProspect(ctx context.Context, id string) (*model.Prospect, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgProspectColumns+` FROM prospects WHERE id = $1`, id)
	p, err := scanPgProspect(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get prospect")
	}
	return p, nil
}

func (s *PostgresStore) ListProspects(ctx context.Context, filter ProspectFilter) ([]model.Prospect, error) {
	query := `SELECT ` + pgProspectColumns + ` FROM prospects WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Industry != "" {
		query += ` AND lower(industry) = ` + arg(strings.ToLower(filter.Industry))
	}
	if filter.Company != "" {
		query += ` AND lower(company) = ` + arg(strings.ToLower(filter.Company))
	}
	if filter.Source != "" {
		query += ` AND source = ` + arg(filter.Source)
	}
	if filter.MinScore > 0 {
		query += ` AND score >= ` + arg(filter.MinScore)
	}
	query += ` ORDER BY score DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list prospects")
	}
	defer rows.Close()

	var prospects []model.Prospect
	for rows.Next() {
		p, err := scanPgProspect(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan prospect")
		}
		prospects = append(prospects, *p)
	}
	return prospects, eris.Wrap(rows.Err(), "postgres: list prospects iterate")
}

const pgProspectColumns = `id, first_name, last_name, email, company, position, industry, location,
	linkedin_url, website, source, confidence, summary, validation, score, tags, validated, created_at`

func scanPgProspect(row pgx.Row) (*model.Prospect, error) {
	var p model.Prospect
	var source string
	var email, industry, location, linkedinURL, website, summary *string
	var validationJSON, tagsJSON []byte

	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &email, &p.Company, &p.Position, &industry, &location,
		&linkedinURL, &website, &source, &p.Confidence, &summary,
		&validationJSON, &p.Score, &tagsJSON, &p.Validated, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Email = deref(email)
	p.Industry = deref(industry)
	p.Location = deref(location)
	p.LinkedInURL = deref(linkedinURL)
	p.Website = deref(website)
	p.Summary = deref(summary)
	p.Source = model.Source(source)

	if len(validationJSON) > 0 {
		if err := json.Unmarshal(validationJSON, &p.EmailValidation); err != nil {
			return nil, eris.Wrap(err, "unmarshal validation")
		}
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &p.Tags); err != nil {
			return nil, eris.Wrap(err, "unmarshal tags")
		}
	}
	return &p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

