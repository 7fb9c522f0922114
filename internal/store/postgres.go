package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/confops/sponsor-pipeline/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. Tests substitute a
// pgxmock pool.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
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

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'research',
	website            TEXT NOT NULL DEFAULT '',
	industry           TEXT NOT NULL DEFAULT '',
	size               TEXT NOT NULL DEFAULT '',
	market_cap         BIGINT NOT NULL DEFAULT 0,
	funding_raised     BIGINT NOT NULL DEFAULT 0,
	description        TEXT NOT NULL DEFAULT '',
	notes              TEXT NOT NULL DEFAULT '',
	decision_makers    JSONB,
	alumni_connections JSONB,
	past_sponsor_years JSONB,
	created_by         TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	content       TEXT NOT NULL,
	document_type TEXT NOT NULL DEFAULT '',
	tags          JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS touches (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id),
	channel    TEXT NOT NULL,
	summary    TEXT NOT NULL DEFAULT '',
	outcome    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tasks (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id),
	title      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'open',
	due_date   TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS activities (
	id         TEXT PRIMARY KEY,
	actor      TEXT NOT NULL,
	action     TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_companies_status ON companies(status);
CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(document_type);
CREATE INDEX IF NOT EXISTS idx_touches_company ON touches(company_id);
CREATE INDEX IF NOT EXISTS idx_tasks_company ON tasks(company_id);
CREATE INDEX IF NOT EXISTS idx_activities_created ON activities(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const pgCompanyColumns = `id, name, status, website, industry, size, market_cap, funding_raised,
	description, notes, decision_makers, alumni_connections, past_sponsor_years,
	created_by, created_at, updated_at`

func pgCompanyArgs(c *model.Company) ([]any, error) {
	dms, err := json.Marshal(c.DecisionMakers)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal decision makers")
	}
	conns, err := json.Marshal(c.AlumniConnections)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal alumni connections")
	}
	years, err := json.Marshal(c.PastSponsorYears)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal sponsor years")
	}
	return []any{
		c.ID, c.Name, string(c.Status), c.Website, c.Industry, c.Size,
		c.MarketCap, c.FundingRaised, c.Description, c.Notes,
		dms, conns, years, c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	}, nil
}

func scanPgCompany(row pgx.Row) (*model.Company, error) {
	var c model.Company
	var status string
	var dms, conns, years []byte

	err := row.Scan(&c.ID, &c.Name, &status, &c.Website, &c.Industry, &c.Size,
		&c.MarketCap, &c.FundingRaised, &c.Description, &c.Notes,
		&dms, &conns, &years, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = model.Status(status)

	if len(dms) > 0 {
		if err := json.Unmarshal(dms, &c.DecisionMakers); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal decision makers")
		}
	}
	if len(conns) > 0 {
		if err := json.Unmarshal(conns, &c.AlumniConnections); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal alumni connections")
		}
	}
	if len(years) > 0 {
		if err := json.Unmarshal(years, &c.PastSponsorYears); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal sponsor years")
		}
	}
	return &c, nil
}

func (s *PostgresStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = model.StatusResearch
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	args, err := pgCompanyArgs(c)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO companies (`+pgCompanyColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		args...,
	)
	return eris.Wrapf(err, "postgres: insert company %s", c.ID)
}

func (s *PostgresStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgCompanyColumns+` FROM companies WHERE id = $1`, id)
	c, err := scanPgCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get company %s", id)
	}
	return c, nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgCompanyColumns+` FROM companies ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var companies []model.Company
	for rows.Next() {
		c, err := scanPgCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		companies = append(companies, *c)
	}
	return companies, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

func (s *PostgresStore) UpdateCompany(ctx context.Context, c *model.Company) error {
	c.UpdatedAt = time.Now().UTC()

	dms, err := json.Marshal(c.DecisionMakers)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal decision makers")
	}
	conns, err := json.Marshal(c.AlumniConnections)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal alumni connections")
	}
	years, err := json.Marshal(c.PastSponsorYears)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal sponsor years")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET name = $1, status = $2, website = $3, industry = $4, size = $5,
		 market_cap = $6, funding_raised = $7, description = $8, notes = $9,
		 decision_makers = $10, alumni_connections = $11, past_sponsor_years = $12, updated_at = $13
		 WHERE id = $14`,
		c.Name, string(c.Status), c.Website, c.Industry, c.Size, c.MarketCap,
		c.FundingRaised, c.Description, c.Notes, dms, conns, years, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update company %s", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "company %s", c.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteCompany(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete company %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "company %s", id)
	}
	return nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, d *model.Document) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.CreatedAt = time.Now().UTC()

	tags, err := json.Marshal(d.Tags)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal tags")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (id, title, content, document_type, tags, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.Title, d.Content, d.DocumentType, tags, d.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert document %s", d.ID)
}

func (s *PostgresStore) ListDocuments(ctx context.Context, documentType string) ([]model.Document, error) {
	query := `SELECT id, title, content, document_type, tags, created_at FROM documents`
	args := []any{}
	if documentType != "" {
		query += ` WHERE document_type = $1`
		args = append(args, documentType)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		var tags []byte
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.DocumentType, &tags, &d.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		if len(tags) > 0 {
			if err := json.Unmarshal(tags, &d.Tags); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal tags")
			}
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

func (s *PostgresStore) CreateTouch(ctx context.Context, t *model.Touch) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO touches (id, company_id, channel, summary, outcome, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.CompanyID, t.Channel, t.Summary, t.Outcome, t.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert touch %s", t.ID)
}

func (s *PostgresStore) ListTouches(ctx context.Context, companyID string) ([]model.Touch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, channel, summary, outcome, created_at
		 FROM touches WHERE company_id = $1 ORDER BY created_at, id`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list touches")
	}
	defer rows.Close()

	var touches []model.Touch
	for rows.Next() {
		var t model.Touch
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Channel, &t.Summary, &t.Outcome, &t.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan touch")
		}
		touches = append(touches, t)
	}
	return touches, eris.Wrap(rows.Err(), "postgres: list touches iterate")
}

func (s *PostgresStore) CreateTask(ctx context.Context, t *model.Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = model.TaskOpen
	}
	t.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tasks (id, company_id, title, status, due_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.CompanyID, t.Title, t.Status, t.DueDate, t.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert task %s", t.ID)
}

func (s *PostgresStore) UpdateTaskStatus(ctx context.Context, id, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: update task %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "task %s", id)
	}
	return nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, companyID string) ([]model.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, title, status, due_date, created_at
		 FROM tasks WHERE company_id = $1 ORDER BY created_at`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tasks")
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Title, &t.Status, &t.DueDate, &t.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan task")
		}
		tasks = append(tasks, t)
	}
	return tasks, eris.Wrap(rows.Err(), "postgres: list tasks iterate")
}

func (s *PostgresStore) CreateActivity(ctx context.Context, a *model.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO activities (id, actor, action, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.Actor, a.Action, a.Detail, a.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert activity %s", a.ID)
}

func (s *PostgresStore) ListActivities(ctx context.Context, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, actor, action, detail, created_at
		 FROM activities ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list activities")
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.Actor, &a.Action, &a.Detail, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan activity")
		}
		activities = append(activities, a)
	}
	return activities, eris.Wrap(rows.Err(), "postgres: list activities iterate")
}
