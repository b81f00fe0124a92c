package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgres_InsertProspect(t *testing.T) {
	s, mock := newMockStore(t)
	p := testProspect()

	mock.ExpectQuery(`SELECT id FROM prospects`).
		WithArgs("jane.doe@acme.com", "jane", "doe", "acme corp").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`INSERT INTO prospects`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.InsertProspect(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertProspect_Duplicate(t *testing.T) {
	s, mock := newMockStore(t)
	p := testProspect()

	mock.ExpectQuery(`SELECT id FROM prospects`).
		WithArgs("jane.doe@acme.com", "jane", "doe", "acme corp").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("existing-id"))

	err := s.InsertProspect(context.Background(), p)
	assert.True(t, eris.Is(err, ErrAlreadyExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertProspect_NameCompanyKey(t *testing.T) {
	s, mock := newMockStore(t)
	p := testProspect()
	p.Email = ""

	mock.ExpectQuery(`SELECT id FROM prospects`).
		WithArgs("", "jane", "doe", "acme corp").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`INSERT INTO prospects`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.InsertProspect(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertProspect_DuplicateAcrossEmails(t *testing.T) {
	s, mock := newMockStore(t)
	p := testProspect()
	p.Email = "jane@acme.com"

	mock.ExpectQuery(`SELECT id FROM prospects`).
		WithArgs("jane@acme.com", "jane", "doe", "acme corp").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("existing-id"))

	err := s.InsertProspect(context.Background(), p)
	assert.True(t, eris.Is(err, ErrAlreadyExists))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetProspect_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM prospects WHERE id`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetProspect(context.Background(), "missing")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestPostgres_Migrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS prospects`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
