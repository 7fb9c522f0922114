// Package export pushes the current pipeline snapshot to a Notion board so
// the wider organizing team can follow along without CLI access.
package export

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/confops/sponsor-pipeline/internal/dedupe"
	"github.com/confops/sponsor-pipeline/internal/model"
	"github.com/confops/sponsor-pipeline/pkg/notion"
)

// Store is the persistence surface the exporter needs.
type Store interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
	CreateActivity(ctx context.Context, a *model.Activity) error
}

// Report summarizes one export run.
type Report struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Exporter mirrors companies into a Notion database keyed by company name.
type Exporter struct {
	store  Store
	client notion.Client
	dbID   string
	actor  string
}

// NewExporter creates an Exporter targeting the given Notion database.
func NewExporter(store Store, client notion.Client, dbID, actor string) *Exporter {
	return &Exporter{store: store, client: client, dbID: dbID, actor: actor}
}

// Run assembles the snapshot (store and Notion reads fan out concurrently),
// then creates or updates one page per company. Per-company failures are
// counted and the run continues.
func (e *Exporter) Run(ctx context.Context) (Report, error) {
	var report Report

	var companies []model.Company
	var pages []notionapi.Page

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		companies, err = e.store.ListCompanies(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		pages, err = notion.QueryAll(gctx, e.client, e.dbID, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return report, eris.Wrap(err, "export: assemble snapshot")
	}

	existing := make(map[string]string, len(pages)) // normalized name → page id
	for _, p := range pages {
		if title := notion.PageTitle(p); title != "" {
			existing[dedupe.Normalize(title)] = p.ID.String()
		}
	}

	for _, c := range companies {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		props := pageProperties(c)

		if pageID, ok := existing[dedupe.Normalize(c.Name)]; ok {
			_, err := e.client.UpdatePage(ctx, pageID, &notionapi.PageUpdateRequest{Properties: props})
			if err != nil {
				zap.L().Warn("export: update page failed", zap.String("company", c.Name), zap.Error(err))
				report.Failed++
				continue
			}
			report.Updated++
			continue
		}

		_, err := e.client.CreatePage(ctx, &notionapi.PageCreateRequest{
			Parent:     notionapi.Parent{DatabaseID: notionapi.DatabaseID(e.dbID)},
			Properties: props,
		})
		if err != nil {
			zap.L().Warn("export: create page failed", zap.String("company", c.Name), zap.Error(err))
			report.Failed++
			continue
		}
		report.Created++
	}

	if err := e.store.CreateActivity(ctx, &model.Activity{
		Actor:  e.actor,
		Action: "export_notion",
	}); err != nil {
		zap.L().Warn("export: record activity failed", zap.Error(err))
	}

	zap.L().Info("notion export complete",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func pageProperties(c model.Company) notionapi.Properties {
	props := notionapi.Properties{
		"Name": &notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: c.Name}}},
		},
		"Status": &notionapi.SelectProperty{
			Select: notionapi.Option{Name: string(c.Status)},
		},
	}
	if c.Website != "" {
		props["Website"] = &notionapi.URLProperty{URL: c.Website}
	}
	if c.Industry != "" {
		props["Industry"] = &notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: c.Industry}}},
		}
	}
	if len(c.PastSponsorYears) > 0 {
		props["Sponsor Years"] = &notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: strings.Join(c.PastSponsorYears, ", ")}}},
		}
	}
	return props
}
