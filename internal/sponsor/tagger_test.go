package sponsor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confops/sponsor-pipeline/internal/model"
)

func TestMatchYears_Containment(t *testing.T) {
	roster := Roster{
		"2020": {{Name: "Intel", Tier: "gold"}},
	}

	years := MatchYears("Intel Corporation", roster)
	assert.Equal(t, []string{"2020"}, years)
}

func TestMatchYears_DedupedPerYearAndSortedDescending(t *testing.T) {
	roster := Roster{
		"2023": {{Name: "Check Point"}, {Name: "Check Point Software"}},
		"2025": {{Name: "Check Point"}},
		"2021": {{Name: "Wiz"}},
	}

	years := MatchYears("Check Point Software Technologies Ltd", roster)
	// Matched at most once per year even though two 2023 entries match.
	assert.Equal(t, []string{"2025", "2023"}, years)
}

func TestMatchYears_NoMatch(t *testing.T) {
	roster := Roster{"2024": {{Name: "Intel"}}}
	assert.Empty(t, MatchYears("Datadog", roster))
	assert.Empty(t, MatchYears("", roster))
}

type mockStore struct {
	companies  []model.Company
	updated    []model.Company
	activities []model.Activity
}

func (m *mockStore) ListCompanies(context.Context) ([]model.Company, error) {
	return m.companies, nil
}

func (m *mockStore) UpdateCompany(_ context.Context, c *model.Company) error {
	m.updated = append(m.updated, *c)
	return nil
}

func (m *mockStore) CreateActivity(_ context.Context, a *model.Activity) error {
	m.activities = append(m.activities, *a)
	return nil
}

func TestTaggerRun_OnlyMatchedCompaniesWritten(t *testing.T) {
	store := &mockStore{companies: []model.Company{
		{ID: "1", Name: "Intel Corporation"},
		{ID: "2", Name: "Datadog"},
	}}
	roster := Roster{"2020": {{Name: "Intel"}}}

	report, err := NewTagger(store, roster, 0, "admin").Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Report{Matched: 1, Updated: 1}, report)
	require.Len(t, store.updated, 1)
	assert.Equal(t, "1", store.updated[0].ID)
	assert.Equal(t, []string{"2020"}, store.updated[0].PastSponsorYears)
	require.Len(t, store.activities, 1)
	assert.Equal(t, "tag_sponsors", store.activities[0].Action)
}
