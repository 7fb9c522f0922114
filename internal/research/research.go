// Package research enriches company records with LLM-based research.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/confops/sponsor-pipeline/internal/dedupe"
	"github.com/confops/sponsor-pipeline/internal/model"
	"github.com/confops/sponsor-pipeline/pkg/anthropic"
)

// Profile is the structured research result for one company.
type Profile struct {
	Website        string                `json:"website"`
	Industry       string                `json:"industry"`
	Size           string                `json:"size"`
	MarketCap      int64                 `json:"market_cap"`
	FundingRaised  int64                 `json:"funding_raised"`
	Description    string                `json:"description"`
	DecisionMakers []model.DecisionMaker `json:"decision_makers"`
}

// Store is the persistence surface the researcher needs.
type Store interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
	UpdateCompany(ctx context.Context, c *model.Company) error
	CreateActivity(ctx context.Context, a *model.Activity) error
}

// Report summarizes a research batch.
type Report struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// Researcher runs LLM research over companies still in the research stage.
type Researcher struct {
	store   Store
	ai      anthropic.Client
	model   string
	limiter *rate.Limiter
	actor   string
}

// NewResearcher creates a researcher. callDelay paces LLM calls and store
// writes; zero disables pacing.
func NewResearcher(store Store, ai anthropic.Client, llmModel string, callDelay time.Duration, actor string) *Researcher {
	var limiter *rate.Limiter
	if callDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(callDelay), 1)
	}
	return &Researcher{store: store, ai: ai, model: llmModel, limiter: limiter, actor: actor}
}

// Run researches up to limit companies in the research stage, sequentially.
// A failed LLM call or write is counted and skipped; the batch continues.
func (r *Researcher) Run(ctx context.Context, limit int) (Report, error) {
	companies, err := r.store.ListCompanies(ctx)
	if err != nil {
		return Report{}, eris.Wrap(err, "research: list companies")
	}

	var pending []model.Company
	for _, c := range companies {
		if c.Status == model.StatusResearch && c.Name != "" {
			pending = append(pending, c)
		}
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	zap.L().Info("research: starting batch",
		zap.Int("pending", len(pending)),
		zap.String("model", r.model),
	)

	var report Report
	for _, c := range pending {
		if ctx.Err() != nil {
			return report, eris.Wrap(ctx.Err(), "research: batch cancelled")
		}

		if err := r.researchOne(ctx, c); err != nil {
			report.Failed++
			zap.L().Warn("research: company failed",
				zap.String("company_id", c.ID),
				zap.String("name", c.Name),
				zap.Error(err),
			)
			continue
		}
		report.Processed++
	}

	a := &model.Activity{
		Actor:  r.actor,
		Action: "research",
		Detail: fmt.Sprintf("processed=%d failed=%d", report.Processed, report.Failed),
	}
	if err := r.store.CreateActivity(ctx, a); err != nil {
		zap.L().Warn("research: record activity failed", zap.Error(err))
	}

	return report, nil
}

func (r *Researcher) researchOne(ctx context.Context, c model.Company) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "research: pacing wait")
		}
	}

	resp, err := r.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     r.model,
		MaxTokens: 1024,
		System:    systemPrompt,
		Messages:  []anthropic.Message{{Role: "user", Content: userPrompt(c.Name, c.Notes)}},
	})
	if err != nil {
		return eris.Wrap(err, "research: llm request")
	}
	resp.Usage.LogUsage(r.model, "research")

	profile, err := ParseProfile(resp.Text())
	if err != nil {
		return err
	}

	Apply(&c, profile)
	if err := r.store.UpdateCompany(ctx, &c); err != nil {
		return eris.Wrapf(err, "research: update company %s", c.ID)
	}
	return nil
}

// ParseProfile extracts the profile JSON from an LLM response, tolerating
// surrounding prose.
func ParseProfile(text string) (Profile, error) {
	if strings.TrimSpace(text) == "" {
		return Profile{}, eris.New("research: empty llm response")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Profile{}, eris.Errorf("research: no JSON in response: %.120s", text)
	}

	var p Profile
	if err := json.Unmarshal([]byte(text[start:end+1]), &p); err != nil {
		return Profile{}, eris.Wrap(err, "research: parse profile JSON")
	}
	return p, nil
}

// Apply merges a research profile into a company. Scalars follow the
// keep-existing policy: a field already holding a non-empty value is never
// overwritten. Decision makers are appended, then deduplicated
// case-insensitively by name, so existing entries always win.
func Apply(c *model.Company, p Profile) {
	if c.Website == "" {
		c.Website = p.Website
	}
	if c.Industry == "" {
		c.Industry = p.Industry
	}
	if c.Size == "" {
		c.Size = p.Size
	}
	if c.MarketCap == 0 {
		c.MarketCap = p.MarketCap
	}
	if c.FundingRaised == 0 {
		c.FundingRaised = p.FundingRaised
	}
	if c.Description == "" {
		c.Description = p.Description
	}
	if len(p.DecisionMakers) > 0 {
		c.DecisionMakers = dedupe.DedupeDecisionMakers(append(c.DecisionMakers, p.DecisionMakers...))
	}
}
