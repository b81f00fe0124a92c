package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/prospector/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = "prospector.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	validation   TEXT,
	score        INTEGER NOT NULL DEFAULT 0,
	tags         TEXT,
	validated    INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_prospects_email ON prospects(email);
CREATE INDEX IF NOT EXISTS idx_prospects_company ON prospects(company);
CREATE INDEX IF NOT EXISTS idx_prospects_score ON prospects(score);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertProspect stores one prospect after a duplicate check. A row is
// a duplicate when its email matches or the lowercased name+company
// triple does; guessed emails vary between runs, so the email key alone
// is not enough to identify a person.
func (s *SQLiteStore) InsertProspect(ctx context.Context, p model.Prospect) error {
	var existing string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM prospects
		 WHERE (email != '' AND lower(email) = ?)
		    OR (lower(first_name) = ? AND lower(last_name) = ? AND lower(company) = ?)
		 LIMIT 1`,
		strings.ToLower(p.Email),
		strings.ToLower(p.FirstName), strings.ToLower(p.LastName), strings.ToLower(p.Company),
	).Scan(&existing)
	if err == nil {
		return ErrAlreadyExists
	}
	if err != sql.ErrNoRows {
		return eris.Wrap(err, "sqlite: check duplicate")
	}

	validationJSON, err := json.Marshal(p.EmailValidation)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal validation")
	}
	tagsJSON, err := json.Marshal(p.Tags)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal tags")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO prospects
		 (id, first_name, last_name, email, company, position, industry, location,
		  linkedin_url, website, source, confidence, summary, validation, score, tags, validated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.FirstName, p.LastName, p.Email, p.Company, p.Position, p.Industry, p.Location,
		p.LinkedInURL, p.Website, string(p.Source), p.Confidence, p.Summary,
		string(validationJSON), p.Score, string(tagsJSON), p.Validated, p.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert prospect")
}

func (s *SQLiteStore) GetProspect(ctx context.Context, id string) (*model.Prospect, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+prospectColumns+` FROM prospects WHERE id = ?`, id)
	p, err := scanProspect(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get prospect")
	}
	return p, nil
}

func (s *SQLiteStore) ListProspects(ctx context.Context, filter ProspectFilter) ([]model.Prospect, error) {
	query := `SELECT ` + prospectColumns + ` FROM prospects WHERE 1=1`
	var args []any

	if filter.Industry != "" {
		query += ` AND lower(industry) = ?`
		args = append(args, strings.ToLower(filter.Industry))
	}
	if filter.Company != "" {
		query += ` AND lower(company) = ?`
		args = append(args, strings.ToLower(filter.Company))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if filter.MinScore > 0 {
		query += ` AND score >= ?`
		args = append(args, filter.MinScore)
	}
	query += ` ORDER BY score DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list prospects")
	}
	defer rows.Close()

	var prospects []model.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prospect")
		}
		prospects = append(prospects, *p)
	}
	return prospects, eris.Wrap(rows.Err(), "sqlite: list prospects iterate")
}

const prospectColumns = `id, first_name, last_name, email, company, position, industry, location,
	linkedin_url, website, source, confidence, summary, validation, score, tags, validated, created_at`

type scannable interface {
	Scan(dest ...any) error
}

func scanProspect(row scannable) (*model.Prospect, error) {
	var p model.Prospect
	var source string
	var email, industry, location, linkedinURL, website, summary sql.NullString
	var validationJSON, tagsJSON sql.NullString

	err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &email, &p.Company, &p.Position, &industry, &location,
		&linkedinURL, &website, &source, &p.Confidence, &summary,
		&validationJSON, &p.Score, &tagsJSON, &p.Validated, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Email = email.String
	p.Industry = industry.String
	p.Location = location.String
	p.LinkedInURL = linkedinURL.String
	p.Website = website.String
	p.Summary = summary.String
	p.Source = model.Source(source)

	if validationJSON.Valid && validationJSON.String != "" {
		if err := json.Unmarshal([]byte(validationJSON.String), &p.EmailValidation); err != nil {
			return nil, eris.Wrap(err, "unmarshal validation")
		}
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &p.Tags); err != nil {
			return nil, eris.Wrap(err, "unmarshal tags")
		}
	}
	return &p, nil
}
