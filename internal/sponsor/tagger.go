package sponsor

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/confops/sponsor-pipeline/internal/dedupe"
	"github.com/confops/sponsor-pipeline/internal/model"
)

// MatchYears returns the roster years in which the company appears, sorted
// descending. A sponsor entry matches by name containment (dedupe.NamesMatch),
// so "Intel Corporation" matches a roster entry of "Intel". A company matches
// a year at most once even if several of that year's entries match it.
func MatchYears(companyName string, roster Roster) []string {
	var matched []string
	for _, year := range roster.Years() {
		for _, entry := range roster[year] {
			if dedupe.NamesMatch(companyName, entry.Name) {
				matched = append(matched, year)
				break
			}
		}
	}
	return matched
}

// Store is the persistence surface the tagger needs.
type Store interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
	UpdateCompany(ctx context.Context, c *model.Company) error
	CreateActivity(ctx context.Context, a *model.Activity) error
}

// Report summarizes a tagging run.
type Report struct {
	Matched int `json:"matched"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Tagger annotates companies with past sponsorship years from the roster.
type Tagger struct {
	store   Store
	roster  Roster
	limiter *rate.Limiter
	actor   string
}

// NewTagger creates a tagger. writeDelay paces store writes; zero disables.
func NewTagger(store Store, roster Roster, writeDelay time.Duration, actor string) *Tagger {
	var limiter *rate.Limiter
	if writeDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(writeDelay), 1)
	}
	return &Tagger{store: store, roster: roster, limiter: limiter, actor: actor}
}

// Run tags every company that matches the roster. Only matched companies are
// written back. Per-company write failures are counted and skipped.
func (t *Tagger) Run(ctx context.Context) (Report, error) {
	companies, err := t.store.ListCompanies(ctx)
	if err != nil {
		return Report{}, eris.Wrap(err, "sponsor: list companies")
	}

	var report Report
	for _, c := range companies {
		years := MatchYears(c.Name, t.roster)
		if len(years) == 0 {
			continue
		}
		report.Matched++

		c.PastSponsorYears = years
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return report, eris.Wrap(err, "sponsor: pacing wait")
			}
		}
		if err := t.store.UpdateCompany(ctx, &c); err != nil {
			report.Failed++
			zap.L().Warn("sponsor: tag update failed",
				zap.String("company_id", c.ID),
				zap.Error(err),
			)
			continue
		}
		report.Updated++
	}

	zap.L().Info("sponsor: tagging complete",
		zap.Int("matched", report.Matched),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed),
	)

	a := &model.Activity{
		Actor:  t.actor,
		Action: "tag_sponsors",
		Detail: fmt.Sprintf("matched=%d updated=%d failed=%d", report.Matched, report.Updated, report.Failed),
	}
	if err := t.store.CreateActivity(ctx, a); err != nil {
		zap.L().Warn("sponsor: record activity failed", zap.Error(err))
	}

	return report, nil
}
