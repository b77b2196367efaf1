// Package pipeline orchestrates the two sub-pipelines: nested entity
// records into the flat tenure table, and the wide polling table into
// a long-form time series. Both share one pattern: parse, locate,
// normalize, derive.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adurocher/mandat/internal/audit"
	"github.com/adurocher/mandat/internal/cache"
	"github.com/adurocher/mandat/internal/extract"
	"github.com/adurocher/mandat/internal/llm"
	"github.com/adurocher/mandat/internal/model"
	"github.com/adurocher/mandat/internal/reshape"
	"github.com/adurocher/mandat/internal/source"
	"github.com/adurocher/mandat/internal/worker"
)

// Pipeline wires the boundary clients to the transformation stages.
type Pipeline struct {
	fetcher  *source.Fetcher
	entities *source.EntityClient
	roles    *extract.RoleExtractor
	dates    *extract.DateNormalizer
	metrics  *extract.MetricDeriver
	reshaper *reshape.Reshaper
	provider llm.Provider
	cfg      *model.Config
}

// New builds a pipeline from configuration. Configuration tables (the
// correction table, strip rules) are validated here, before any fetch.
func New(cfg *model.Config) (*Pipeline, error) {
	dates, err := extract.NewDateNormalizer(cfg.Tenure.Corrections)
	if err != nil {
		return nil, fmt.Errorf("correction table: %w", err)
	}
	reshaper, err := reshape.NewReshaper(cfg.Polls)
	if err != nil {
		return nil, fmt.Errorf("polls config: %w", err)
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		store = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cacheDir(cfg.Cache.Dir), cfg.Cache.DiskTTL)
	}

	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		provider, err = llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		}
	}

	return &Pipeline{
		fetcher:  source.NewFetcher(cfg.HTTP, store, cfg.Cache.DiskTTL),
		entities: source.NewEntityClient(cfg.HTTP, store, cfg.Cache.DiskTTL),
		roles:    extract.NewRoleExtractor(cfg.Tenure.RoleLabel),
		dates:    dates,
		metrics:  extract.NewMetricDeriver(),
		reshaper: reshaper,
		provider: provider,
		cfg:      cfg,
	}, nil
}

func cacheDir(configured string) string {
	if configured != "" {
		return configured
	}
	if base, err := os.UserCacheDir(); err == nil {
		return filepath.Join(base, "mandat")
	}
	return filepath.Join(os.TempDir(), "mandat-cache")
}

// TenureResult is the flat per-entity table plus its audit.
type TenureResult struct {
	Rows  []model.DerivedRow
	Audit audit.Report
}

// PollsResult is the tidy and long-form polling tables plus their
// audit.
type PollsResult struct {
	Tidy  []model.TidyRow
	Long  []model.LongRow
	Audit audit.Report
}

// RunTenure fetches the nested entity payload and derives one row per
// entity, in source order.
func (p *Pipeline) RunTenure(ctx context.Context) (*TenureResult, error) {
	entities, err := p.entities.Entities(ctx, p.cfg.Tenure.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("tenure source: %w", err)
	}

	issues := audit.NewCollector()
	rows := p.DeriveRows(ctx, entities, issues)
	return &TenureResult{Rows: rows, Audit: issues.Report()}, nil
}

// DeriveRows runs extract → normalize → derive for each entity.
// Entities are independent, so they go through the worker pool; the
// pool returns results in submission order, so output row order is
// source order regardless of scheduling.
func (p *Pipeline) DeriveRows(ctx context.Context, entities []model.Entity, issues *audit.Collector) []model.DerivedRow {
	pool := worker.NewPool(p.cfg.Concurrency.Workers)
	pool.Start()
	for _, e := range entities {
		pool.Submit(&entityJob{pipeline: p, entity: e, issues: issues})
	}

	results := pool.Wait()
	rows := make([]model.DerivedRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, r.(*entityResult).row)
	}
	return rows
}

type entityJob struct {
	pipeline *Pipeline
	entity   model.Entity
	issues   *audit.Collector
}

type entityResult struct {
	row model.DerivedRow
}

func (r *entityResult) GetError() error { return nil }

func (j *entityJob) Execute(ctx context.Context) worker.Result {
	p := j.pipeline
	raw := p.roles.Extract(j.entity, j.issues)
	interval := p.dates.Normalize(j.entity.Name, raw, j.issues)
	birth := p.dates.Birth(j.entity.Name, j.entity.BirthDate, j.issues)
	return &entityResult{row: p.metrics.Derive(j.entity, birth, interval, j.issues)}
}

// RunPolls fetches the wiki page, lifts the polling wikitable and runs
// the reshaper over it.
func (p *Pipeline) RunPolls(ctx context.Context) (*PollsResult, error) {
	body, err := p.fetcher.Fetch(ctx, p.cfg.Polls.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("polls source: %w", err)
	}

	raw, err := source.ParseTable(body, p.cfg.Polls.TableIndex)
	if err != nil {
		return nil, fmt.Errorf("polls table: %w", err)
	}

	issues := audit.NewCollector()
	tidy := p.reshaper.Reshape(raw, issues)
	long := p.reshaper.Pivot(tidy)
	return &PollsResult{Tidy: tidy, Long: long, Audit: issues.Report()}, nil
}

// Commentary asks the configured LLM provider for an audit commentary.
// It runs after the tables are final and never changes them; with no
// provider configured it returns an empty string.
func (p *Pipeline) Commentary(ctx context.Context, tenure *TenureResult, polls *PollsResult) (string, error) {
	if p.provider == nil {
		return "", nil
	}

	var digest llm.Digest
	var reports []audit.Report
	if tenure != nil {
		digest.Entities = len(tenure.Rows)
		digest.DerivedRows = len(tenure.Rows)
		if mean, ok := extract.MeanDuration(tenure.Rows); ok {
			digest.MeanDuration = &mean
		}
		reports = append(reports, tenure.Audit)
	}
	if polls != nil {
		digest.TidyRows = len(polls.Tidy)
		digest.LongRows = len(polls.Long)
		reports = append(reports, polls.Audit)
	}
	digest.Audit = audit.Merge(reports...)

	resp, err := p.provider.Summarize(ctx, llm.SummarizeRequest{Digest: digest})
	if err != nil {
		return "", fmt.Errorf("audit commentary: %w", err)
	}
	return resp.Summary, nil
}
