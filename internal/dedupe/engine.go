package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/confops/sponsor-pipeline/internal/model"
)

// Store is the persistence surface the engine needs.
type Store interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
	UpdateCompany(ctx context.Context, c *model.Company) error
	DeleteCompany(ctx context.Context, id string) error
	CreateActivity(ctx context.Context, a *model.Activity) error
}

// Report summarizes a dedupe run.
type Report struct {
	Groups  int `json:"groups"`
	Merged  int `json:"merged"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// Engine runs full-collection duplicate merges. Each run reads every company,
// groups by normalized name, and collapses each duplicate group to its most
// recently updated member. Writes are paced by a rate limiter to stay under
// upstream limits. There is no locking and no transaction: two concurrent
// runs can race, and a crash between update and deletes leaves stale
// duplicates behind — both acceptable because re-running converges.
type Engine struct {
	store   Store
	limiter *rate.Limiter
	actor   string
}

// NewEngine creates a dedupe engine. writeDelay is the pause enforced between
// consecutive store writes; zero disables pacing.
func NewEngine(store Store, writeDelay time.Duration, actor string) *Engine {
	var limiter *rate.Limiter
	if writeDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(writeDelay), 1)
	}
	return &Engine{store: store, limiter: limiter, actor: actor}
}

// Run merges every duplicate group in the collection. Failures on individual
// groups are counted and skipped; the run continues (partial success).
func (e *Engine) Run(ctx context.Context) (Report, error) {
	companies, err := e.store.ListCompanies(ctx)
	if err != nil {
		return Report{}, eris.Wrap(err, "dedupe: list companies")
	}

	groups := DuplicateGroups(GroupDuplicates(companies))
	report := Report{Groups: len(groups)}

	zap.L().Info("dedupe: starting run",
		zap.Int("companies", len(companies)),
		zap.Int("duplicate_groups", len(groups)),
	)

	for _, g := range groups {
		if err := e.mergeGroup(ctx, g); err != nil {
			if ctx.Err() != nil {
				return report, eris.Wrap(ctx.Err(), "dedupe: run cancelled")
			}
			report.Failed++
			zap.L().Warn("dedupe: group merge failed",
				zap.String("name", g.Key),
				zap.Int("members", len(g.Companies)),
				zap.Error(err),
			)
			continue
		}
		report.Merged++
		report.Deleted += len(g.Companies) - 1
	}

	e.recordActivity(ctx, report)
	return report, nil
}

// mergeGroup applies one cluster merge: update the survivor, then delete the
// rest. Deliberately not transactional; see Engine doc.
func (e *Engine) mergeGroup(ctx context.Context, g Group) error {
	res, err := MergeCluster(g.Companies)
	if err != nil {
		return err
	}
	if len(res.Remove) == 0 {
		return nil
	}

	keep := res.Keep
	if err := keep.ApplyFieldMap(res.MergedFields); err != nil {
		return err
	}

	if err := e.wait(ctx); err != nil {
		return err
	}
	if err := e.store.UpdateCompany(ctx, &keep); err != nil {
		return eris.Wrapf(err, "dedupe: update survivor %s", keep.ID)
	}

	for _, r := range res.Remove {
		if err := e.wait(ctx); err != nil {
			return err
		}
		if err := e.store.DeleteCompany(ctx, r.ID); err != nil {
			return eris.Wrapf(err, "dedupe: delete duplicate %s", r.ID)
		}
	}

	zap.L().Info("dedupe: merged group",
		zap.String("name", g.Key),
		zap.String("survivor", keep.ID),
		zap.Int("removed", len(res.Remove)),
	)
	return nil
}

// MergeDecisionMakers deduplicates each company's decision-maker list
// case-insensitively by name, writing back only companies that changed.
func (e *Engine) MergeDecisionMakers(ctx context.Context) (Report, error) {
	companies, err := e.store.ListCompanies(ctx)
	if err != nil {
		return Report{}, eris.Wrap(err, "dedupe: list companies")
	}

	var report Report
	for _, c := range companies {
		deduped := DedupeDecisionMakers(c.DecisionMakers)
		if len(deduped) == len(c.DecisionMakers) {
			continue
		}
		c.DecisionMakers = deduped

		if err := e.wait(ctx); err != nil {
			return report, eris.Wrap(err, "dedupe: pacing wait")
		}
		if err := e.store.UpdateCompany(ctx, &c); err != nil {
			report.Failed++
			zap.L().Warn("dedupe: decision-maker update failed",
				zap.String("company_id", c.ID),
				zap.Error(err),
			)
			continue
		}
		report.Merged++
	}

	e.recordActivity(ctx, report)
	return report, nil
}

func (e *Engine) wait(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Wait(ctx)
}

// recordActivity appends a feed entry for the run. Best effort: a feed write
// failure never fails the run itself.
func (e *Engine) recordActivity(ctx context.Context, r Report) {
	a := &model.Activity{
		Actor:  e.actor,
		Action: "dedupe",
		Detail: fmt.Sprintf("groups=%d merged=%d deleted=%d failed=%d", r.Groups, r.Merged, r.Deleted, r.Failed),
	}
	if err := e.store.CreateActivity(ctx, a); err != nil {
		zap.L().Warn("dedupe: record activity failed", zap.Error(err))
	}
}
