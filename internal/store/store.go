// Package store persists the sponsorship pipeline behind a driver-agnostic
// interface with SQLite and Postgres backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/confops/sponsor-pipeline/internal/model"
)

// ErrNotFound is returned when a write targets a record that does not exist.
var ErrNotFound = eris.New("store: not found")

// Store defines the persistence interface for the pipeline.
type Store interface {
	// Companies
	CreateCompany(ctx context.Context, c *model.Company) error
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	ListCompanies(ctx context.Context) ([]model.Company, error)
	UpdateCompany(ctx context.Context, c *model.Company) error
	DeleteCompany(ctx context.Context, id string) error

	// Knowledge base
	CreateDocument(ctx context.Context, d *model.Document) error
	ListDocuments(ctx context.Context, documentType string) ([]model.Document, error)

	// Outreach
	CreateTouch(ctx context.Context, t *model.Touch) error
	ListTouches(ctx context.Context, companyID string) ([]model.Touch, error)

	// Tasks
	CreateTask(ctx context.Context, t *model.Task) error
	UpdateTaskStatus(ctx context.Context, id, status string) error
	ListTasks(ctx context.Context, companyID string) ([]model.Task, error)

	// Activity feed
	CreateActivity(ctx context.Context, a *model.Activity) error
	ListActivities(ctx context.Context, limit int) ([]model.Activity, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
