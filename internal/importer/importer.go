// Package importer loads candidate sponsor companies in bulk from CSV or XLSX
// prospect lists.
package importer

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/confops/sponsor-pipeline/internal/dedupe"
	"github.com/confops/sponsor-pipeline/internal/fetch"
	"github.com/confops/sponsor-pipeline/internal/model"
)

// Store is the persistence surface the importer needs.
type Store interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
	CreateCompany(ctx context.Context, c *model.Company) error
	CreateActivity(ctx context.Context, a *model.Activity) error
}

// Report summarizes one import run.
type Report struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Options configures one import run.
type Options struct {
	// Source is a local path or an http(s)/ftp URL.
	Source string
	// Charset names the CSV encoding when the file is not UTF-8.
	Charset string
	// Delimiter overrides the CSV field separator.
	Delimiter rune
}

// Importer creates companies from prospect lists.
type Importer struct {
	store   Store
	limiter *rate.Limiter
	actor   string
}

// New creates an Importer. writeDelay is the pause between consecutive
// creates, zero for none.
func New(store Store, writeDelay time.Duration, actor string) *Importer {
	limit := rate.Inf
	if writeDelay > 0 {
		limit = rate.Every(writeDelay)
	}
	return &Importer{
		store:   store,
		limiter: rate.NewLimiter(limit, 1),
		actor:   actor,
	}
}

// Run parses the source and creates one company per data row. Rows with an
// empty name, or whose normalized name already exists, are skipped. Failed
// creates are counted and the run continues.
func (i *Importer) Run(ctx context.Context, opts Options) (Report, error) {
	var report Report

	rc, err := fetch.Open(ctx, opts.Source)
	if err != nil {
		return report, err
	}
	defer rc.Close()

	var header []string
	var rows [][]string
	if fetch.IsXLSX(opts.Source) {
		header, rows, err = fetch.ReadXLSX(rc, fetch.XLSXOptions{})
	} else {
		header, rows, err = fetch.ReadCSV(rc, fetch.CSVOptions{
			Charset:   opts.Charset,
			Delimiter: opts.Delimiter,
			TrimSpace: true,
		})
	}
	if err != nil {
		return report, err
	}

	cols := indexColumns(header)
	if _, ok := cols["name"]; !ok {
		return report, eris.New("importer: source has no name column")
	}

	existing, err := i.store.ListCompanies(ctx)
	if err != nil {
		return report, err
	}
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[dedupe.Normalize(c.Name)] = true
	}

	for _, row := range rows {
		c := rowToCompany(row, cols)
		key := dedupe.Normalize(c.Name)
		if key == "" || seen[key] {
			report.Skipped++
			continue
		}

		if err := i.limiter.Wait(ctx); err != nil {
			return report, eris.Wrap(err, "importer: rate limiter wait")
		}
		c.CreatedBy = i.actor
		if err := i.store.CreateCompany(ctx, &c); err != nil {
			zap.L().Warn("importer: create failed",
				zap.String("name", c.Name),
				zap.Error(err),
			)
			report.Failed++
			continue
		}
		seen[key] = true
		report.Imported++
	}

	i.recordActivity(ctx, opts.Source)

	zap.L().Info("import complete",
		zap.String("source", opts.Source),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// indexColumns maps lowercased header names to their positions.
func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

func rowToCompany(row []string, cols map[string]int) model.Company {
	get := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	c := model.Company{
		Name:     get("name"),
		Website:  get("website"),
		Industry: get("industry"),
		Size:     get("size"),
		Notes:    get("notes"),
	}
	if status := model.Status(get("status")); status.Valid() {
		c.Status = status
	}
	return c
}

func (i *Importer) recordActivity(ctx context.Context, source string) {
	err := i.store.CreateActivity(ctx, &model.Activity{
		Actor:  i.actor,
		Action: "import",
		Detail: source,
	})
	if err != nil {
		zap.L().Warn("importer: record activity failed", zap.Error(err))
	}
}
