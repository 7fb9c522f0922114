package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confops/sponsor-pipeline/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetCompany_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM companies WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	c, err := s.GetCompany(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCompany(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM companies WHERE id = \$1`).
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "status", "website", "industry", "size",
			"market_cap", "funding_raised", "description", "notes",
			"decision_makers", "alumni_connections", "past_sponsor_years",
			"created_by", "created_at", "updated_at",
		}).AddRow(
			"c1", "Intel Corporation", "contacted", "https://intel.com", "Semiconductors", "large",
			int64(200_000_000_000), int64(0), "", "",
			[]byte(`[{"name":"Pat Gelsinger","title":"CEO"}]`), []byte(`[]`), []byte(`["2021","2019"]`),
			"alice", now, now,
		))

	c, err := s.GetCompany(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, model.StatusContacted, c.Status)
	require.Len(t, c.DecisionMakers, 1)
	assert.Equal(t, []string{"2021", "2019"}, c.PastSponsorYears)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateCompany(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO companies`).
		WithArgs(pgxmock.AnyArg(), "Wiz", "research", "", "", "",
			int64(0), int64(0), "", "",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			"", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	c := &model.Company{Name: "Wiz"}
	require.NoError(t, s.CreateCompany(context.Background(), c))
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, model.StatusResearch, c.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCompany_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE companies SET`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateCompany(context.Background(), &model.Company{ID: "ghost", Name: "Ghost"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteCompany(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM companies WHERE id = \$1`).
		WithArgs("c1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.DeleteCompany(context.Background(), "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListDocuments_Filtered(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, title, content, document_type, tags, created_at FROM documents WHERE document_type = \$1`).
		WithArgs("playbook").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "title", "content", "document_type", "tags", "created_at",
		}).AddRow("d1", "Sponsorship tiers", "gold silver bronze", "playbook", []byte(`["pricing"]`), now))

	docs, err := s.ListDocuments(context.Background(), "playbook")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, []string{"pricing"}, docs[0].Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateTaskStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE tasks SET status = \$1 WHERE id = \$2`).
		WithArgs("done", "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateTaskStatus(context.Background(), "ghost", "done")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListActivities_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, actor, action, detail, created_at`).
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "actor", "action", "detail", "created_at",
		}).AddRow("a1", "alice", "dedupe", "", now))

	activities, err := s.ListActivities(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "dedupe", activities[0].Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}
