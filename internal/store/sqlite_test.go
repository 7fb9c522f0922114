package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confops/sponsor-pipeline/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(t.TempDir() + "/test.db")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_CompanyRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	c := &model.Company{
		Name:      "Intel Corporation",
		Website:   "https://intel.com",
		Industry:  "Semiconductors",
		MarketCap: 200_000_000_000,
		DecisionMakers: []model.DecisionMaker{
			{Name: "Pat Gelsinger", Title: "CEO"},
		},
		PastSponsorYears: []string{"2021", "2019"},
		CreatedBy:        "alice",
	}
	require.NoError(t, s.CreateCompany(ctx, c))
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, model.StatusResearch, c.Status)

	got, err := s.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Intel Corporation", got.Name)
	assert.Equal(t, int64(200_000_000_000), got.MarketCap)
	require.Len(t, got.DecisionMakers, 1)
	assert.Equal(t, []string{"2021", "2019"}, got.PastSponsorYears)
	assert.Equal(t, "alice", got.CreatedBy)
}

func TestSQLiteStore_GetCompany_Missing(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetCompany(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_UpdateCompany(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	c := &model.Company{Name: "Wiz"}
	require.NoError(t, s.CreateCompany(ctx, c))

	c.Status = model.StatusContacted
	c.Notes = "intro sent"
	require.NoError(t, s.UpdateCompany(ctx, c))

	got, err := s.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusContacted, got.Status)
	assert.Equal(t, "intro sent", got.Notes)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestSQLiteStore_UpdateCompany_NotFound(t *testing.T) {
	s := newTestSQLite(t)

	err := s.UpdateCompany(context.Background(), &model.Company{ID: "ghost", Name: "Ghost"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_DeleteCompany(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	c := &model.Company{Name: "Acme"}
	require.NoError(t, s.CreateCompany(ctx, c))
	require.NoError(t, s.DeleteCompany(ctx, c.ID))

	got, err := s.GetCompany(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = s.DeleteCompany(ctx, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_ListCompanies_Order(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for _, name := range []string{"Alpha", "Beta", "Gamma"} {
		require.NoError(t, s.CreateCompany(ctx, &model.Company{Name: name}))
	}

	companies, err := s.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 3)
}

func TestSQLiteStore_Documents(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.CreateDocument(ctx, &model.Document{
		Title:        "Sponsorship tiers",
		Content:      "gold silver bronze",
		DocumentType: "playbook",
		Tags:         []string{"pricing"},
	}))
	require.NoError(t, s.CreateDocument(ctx, &model.Document{
		Title:   "Venue notes",
		Content: "hall capacity",
	}))

	all, err := s.ListDocuments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	playbooks, err := s.ListDocuments(ctx, "playbook")
	require.NoError(t, err)
	require.Len(t, playbooks, 1)
	assert.Equal(t, []string{"pricing"}, playbooks[0].Tags)
}

func TestSQLiteStore_Touches(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	c := &model.Company{Name: "Wiz"}
	require.NoError(t, s.CreateCompany(ctx, c))

	require.NoError(t, s.CreateTouch(ctx, &model.Touch{
		CompanyID: c.ID,
		Channel:   model.ChannelEmail,
		Summary:   "intro email",
		Outcome:   "sent",
	}))

	touches, err := s.ListTouches(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, touches, 1)
	assert.Equal(t, model.ChannelEmail, touches[0].Channel)

	none, err := s.ListTouches(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_Tasks(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	c := &model.Company{Name: "Wiz"}
	require.NoError(t, s.CreateCompany(ctx, c))

	due := time.Now().UTC().Add(48 * time.Hour)
	task := &model.Task{CompanyID: c.ID, Title: "Send deck", DueDate: &due}
	require.NoError(t, s.CreateTask(ctx, task))
	assert.Equal(t, model.TaskOpen, task.Status)

	require.NoError(t, s.UpdateTaskStatus(ctx, task.ID, model.TaskDone))

	tasks, err := s.ListTasks(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.TaskDone, tasks[0].Status)
	require.NotNil(t, tasks[0].DueDate)

	err = s.UpdateTaskStatus(ctx, "ghost", model.TaskDone)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_Activities(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateActivity(ctx, &model.Activity{
			Actor:  "alice",
			Action: "dedupe",
		}))
	}

	activities, err := s.ListActivities(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, activities, 2)

	activities, err = s.ListActivities(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, activities, 3)
}
