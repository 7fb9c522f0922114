package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/confops/sponsor-pipeline/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
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
CREATE TABLE IF NOT EXISTS companies (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'research',
	website            TEXT NOT NULL DEFAULT '',
	industry           TEXT NOT NULL DEFAULT '',
	size               TEXT NOT NULL DEFAULT '',
	market_cap         INTEGER NOT NULL DEFAULT 0,
	funding_raised     INTEGER NOT NULL DEFAULT 0,
	description        TEXT NOT NULL DEFAULT '',
	notes              TEXT NOT NULL DEFAULT '',
	decision_makers    TEXT,
	alumni_connections TEXT,
	past_sponsor_years TEXT,
	created_by         TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	content       TEXT NOT NULL,
	document_type TEXT NOT NULL DEFAULT '',
	tags          TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS touches (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id),
	channel    TEXT NOT NULL,
	summary    TEXT NOT NULL DEFAULT '',
	outcome    TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS tasks (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'open',
	due_date   DATETIME,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS activities (
	id         TEXT PRIMARY KEY,
	actor      TEXT NOT NULL DEFAULT '',
	action     TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name);
CREATE INDEX IF NOT EXISTS idx_companies_status ON companies(status);
CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(document_type);
CREATE INDEX IF NOT EXISTS idx_touches_company ON touches(company_id);
CREATE INDEX IF NOT EXISTS idx_tasks_company ON tasks(company_id);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// toJSON marshals v for storage in a TEXT column. Nil/empty slices become an
// empty string so NULL round-trips predictably.
func toJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal json column")
	}
	s := string(raw)
	if s == "null" {
		return "", nil
	}
	return s, nil
}

// fromJSON unmarshals a nullable TEXT column into out; empty means leave zero.
func fromJSON(raw sql.NullString, out any) error {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	return eris.Wrap(json.Unmarshal([]byte(raw.String), out), "store: unmarshal json column")
}

const sqliteCompanyColumns = `id, name, status, website, industry, size, market_cap, funding_raised,
	description, notes, decision_makers, alumni_connections, past_sponsor_years,
	created_by, created_at, updated_at`

func (s *SQLiteStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = model.StatusResearch
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	dms, err := toJSON(c.DecisionMakers)
	if err != nil {
		return err
	}
	conns, err := toJSON(c.AlumniConnections)
	if err != nil {
		return err
	}
	years, err := toJSON(c.PastSponsorYears)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO companies (`+sqliteCompanyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(c.Status), c.Website, c.Industry, c.Size, c.MarketCap,
		c.FundingRaised, c.Description, c.Notes, dms, conns, years,
		c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	return eris.Wrap(err, "sqlite: insert company")
}

// scanCompany reads one company row.
func scanCompany(row interface{ Scan(...any) error }) (*model.Company, error) {
	var (
		c                 model.Company
		status            string
		dms, conns, years sql.NullString
	)
	err := row.Scan(&c.ID, &c.Name, &status, &c.Website, &c.Industry, &c.Size,
		&c.MarketCap, &c.FundingRaised, &c.Description, &c.Notes,
		&dms, &conns, &years, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = model.Status(status)
	if err := fromJSON(dms, &c.DecisionMakers); err != nil {
		return nil, err
	}
	if err := fromJSON(conns, &c.AlumniConnections); err != nil {
		return nil, err
	}
	if err := fromJSON(years, &c.PastSponsorYears); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteCompanyColumns+` FROM companies WHERE id = ?`, id)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteCompanyColumns+` FROM companies ORDER BY created_at, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate companies")
}

func (s *SQLiteStore) UpdateCompany(ctx context.Context, c *model.Company) error {
	c.UpdatedAt = time.Now().UTC()

	dms, err := toJSON(c.DecisionMakers)
	if err != nil {
		return err
	}
	conns, err := toJSON(c.AlumniConnections)
	if err != nil {
		return err
	}
	years, err := toJSON(c.PastSponsorYears)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET name = ?, status = ?, website = ?, industry = ?, size = ?,
		 market_cap = ?, funding_raised = ?, description = ?, notes = ?,
		 decision_makers = ?, alumni_connections = ?, past_sponsor_years = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, string(c.Status), c.Website, c.Industry, c.Size, c.MarketCap,
		c.FundingRaised, c.Description, c.Notes, dms, conns, years, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update company %s", c.ID)
	}
	return checkRowsAffected(res, "company", c.ID)
}

func (s *SQLiteStore) DeleteCompany(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete company %s", id)
	}
	return checkRowsAffected(res, "company", id)
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, d *model.Document) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	d.CreatedAt = time.Now().UTC()

	tags, err := toJSON(d.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, title, content, document_type, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.Content, d.DocumentType, tags, d.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert document")
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, documentType string) ([]model.Document, error) {
	query := `SELECT id, title, content, document_type, tags, created_at FROM documents`
	args := []any{}
	if documentType != "" {
		query += ` WHERE document_type = ?`
		args = append(args, documentType)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	var out []model.Document
	for rows.Next() {
		var (
			d    model.Document
			tags sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.DocumentType, &tags, &d.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		if err := fromJSON(tags, &d.Tags); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate documents")
}

func (s *SQLiteStore) CreateTouch(ctx context.Context, t *model.Touch) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO touches (id, company_id, channel, summary, outcome, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.CompanyID, t.Channel, t.Summary, t.Outcome, t.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert touch")
}

func (s *SQLiteStore) ListTouches(ctx context.Context, companyID string) ([]model.Touch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, channel, summary, outcome, created_at
		 FROM touches WHERE company_id = ? ORDER BY created_at, id`, companyID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list touches")
	}
	defer rows.Close()

	var out []model.Touch
	for rows.Next() {
		var t model.Touch
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Channel, &t.Summary, &t.Outcome, &t.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan touch")
		}
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate touches")
}

func (s *SQLiteStore) CreateTask(ctx context.Context, t *model.Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = model.TaskOpen
	}
	t.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, company_id, title, status, due_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.CompanyID, t.Title, t.Status, t.DueDate, t.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert task")
}

func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update task %s", id)
	}
	return checkRowsAffected(res, "task", id)
}

func (s *SQLiteStore) ListTasks(ctx context.Context, companyID string) ([]model.Task, error) {
	query := `SELECT id, company_id, title, status, due_date, created_at FROM tasks`
	args := []any{}
	if companyID != "" {
		query += ` WHERE company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tasks")
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Title, &t.Status, &t.DueDate, &t.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan task")
		}
		out = append(out, t)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate tasks")
}

func (s *SQLiteStore) CreateActivity(ctx context.Context, a *model.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (id, actor, action, detail, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Actor, a.Action, a.Detail, a.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert activity")
}

func (s *SQLiteStore) ListActivities(ctx context.Context, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, actor, action, detail, created_at
		 FROM activities ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list activities")
	}
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.Actor, &a.Action, &a.Detail, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan activity")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate activities")
}

// checkRowsAffected turns a zero-row write into a not-found error.
func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}
