// Package pipeline runs the scrape, merge, clean, train and export stages against a
// data directory.
//
// Each stage loads its inputs from storage, transforms them fully in memory, and
// writes its artifact only once every step has succeeded. Stages can be run on their
// own, so changing eligibility floors only needs Clean to be rerun.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/nba-mvp/internal/config"
	"github.com/pfrederiksen/nba-mvp/internal/eligibility"
	"github.com/pfrederiksen/nba-mvp/internal/export"
	"github.com/pfrederiksen/nba-mvp/internal/logger"
	"github.com/pfrederiksen/nba-mvp/internal/merge"
	"github.com/pfrederiksen/nba-mvp/internal/metrics"
	"github.com/pfrederiksen/nba-mvp/internal/model"
	"github.com/pfrederiksen/nba-mvp/internal/scraper"
	"github.com/pfrederiksen/nba-mvp/internal/storage"
)

// Stage names
const (
	StageScrape = "scrape"
	StageMerge  = "merge"
	StageClean  = "clean"
	StageTrain  = "train"
	StageExport = "export"
)

// Report summarizes one stage run
type Report struct {
	RunID    string        `json:"run_id"`
	Stage    string        `json:"stage"`
	RowsIn   int           `json:"rows_in"`
	RowsOut  int           `json:"rows_out"`
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration_ns"`

	// Scrape
	Pages []*scraper.Summary `json:"pages,omitempty"`

	// Merge
	TradeRowsDropped int                   `json:"trade_rows_dropped,omitempty"`
	Teams            int                   `json:"teams,omitempty"`
	Warnings         []merge.FanoutWarning `json:"warnings,omitempty"`

	// Clean
	Filter string         `json:"filter,omitempty"`
	Filled map[string]int `json:"filled,omitempty"`

	// Train
	Seasons int          `json:"seasons,omitempty"`
	RMSE    float64      `json:"rmse,omitempty"`
	R2      float64      `json:"r2,omitempty"`
	Folds   []model.Fold `json:"folds,omitempty"`
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger. The run id is added to its fields.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics sets the metrics manager
func WithMetrics(m *metrics.Manager) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithRunID overrides the generated run id
func WithRunID(id string) Option {
	return func(p *Pipeline) {
		if id != "" {
			p.runID = id
		}
	}
}

// WithFloors overrides eligibility floors for the Clean stage
func WithFloors(floors ...eligibility.Floor) Option {
	return func(p *Pipeline) {
		p.floors = append(p.floors, floors...)
	}
}

// Pipeline runs stages for one configuration and data directory
type Pipeline struct {
	cfg     *config.Config
	store   *storage.Storage
	log     *logger.Logger
	metrics *metrics.Manager
	runID   string
	floors  []eligibility.Floor
}

// New creates a pipeline. Without options it logs through the default logger and
// records metrics on a private registry.
func New(cfg *config.Config, store *storage.Storage, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:     cfg,
		store:   store,
		log:     logger.Default(),
		metrics: metrics.NewManager(),
		runID:   uuid.NewString(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.With(logger.Fields{"run_id": p.runID})
	return p
}

// RunID returns the id attached to every report and log line
func (p *Pipeline) RunID() string {
	return p.runID
}

// Metrics returns the metrics manager
func (p *Pipeline) Metrics() *metrics.Manager {
	return p.metrics
}

// Scrape downloads every season of the given kinds and writes their processed tables.
// Options are passed to the scraper after the pipeline's logger and metrics.
func (p *Pipeline) Scrape(ctx context.Context, kinds []scraper.Kind, opts ...scraper.Option) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	years := p.cfg.Seasons.Years()
	p.log.Info("Starting stage", logger.Fields{
		"stage":    StageScrape,
		"data_dir": p.store.Dir(),
		"seasons":  len(years),
		"kinds":    len(kinds),
	})

	base := []scraper.Option{scraper.WithLogger(p.log), scraper.WithMetrics(p.metrics)}
	sc := scraper.New(ScraperOptions(p.cfg), p.store, append(base, opts...)...)

	sums, err := sc.ScrapeAll(ctx, kinds, years)
	if err != nil {
		return nil, p.fail(StageScrape, err)
	}

	report := &Report{
		RunID:    p.runID,
		Stage:    StageScrape,
		Output:   p.store.Dir(),
		Duration: time.Since(start),
		Pages:    sums,
	}
	for _, sum := range sums {
		report.RowsIn += sum.Seasons
		report.RowsOut += sum.Rows
	}
	p.finish(report)

	return report, nil
}

// Merge normalizes standings, reconciles team codes and joins the four source tables
// into the uncleaned merged artifact.
func (p *Pipeline) Merge(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	p.log.Info("Starting stage", logger.Fields{"stage": StageMerge, "data_dir": p.store.Dir()})

	in, err := p.loadInputs()
	if err != nil {
		return nil, p.fail(StageMerge, err)
	}

	res, err := merge.Merge(in, MergeOptions(p.cfg))
	if err != nil {
		return nil, p.fail(StageMerge, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, p.fail(StageMerge, err)
	}
	if err := p.store.SaveTable(storage.UncleanedMerged, res.Table); err != nil {
		return nil, p.fail(StageMerge, err)
	}

	report := &Report{
		RunID:            p.runID,
		Stage:            StageMerge,
		RowsIn:           in.PerGame.Len(),
		RowsOut:          res.Table.Len(),
		Output:           p.store.Path(storage.UncleanedMerged),
		Duration:         time.Since(start),
		TradeRowsDropped: res.TradeRowsDropped,
		Teams:            res.Teams.Len(),
		Warnings:         res.Warnings,
	}

	fanout := make(map[string]int)
	for _, w := range res.Warnings {
		fanout[w.Join]++
		p.log.Warn("Join fan-out", logger.Fields{
			"join":     w.Join,
			"key":      w.Key,
			"matches":  w.Matches,
			"resolved": w.Resolved,
		})
	}
	for join, n := range fanout {
		p.metrics.AddFanout(join, n)
	}
	p.metrics.SetTradeRowsDropped(res.TradeRowsDropped)
	p.finish(report)

	return report, nil
}

// Clean filters the merged artifact by eligibility, defaults inapplicable nulls and
// writes player_data.
func (p *Pipeline) Clean(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	p.log.Info("Starting stage", logger.Fields{"stage": StageClean, "data_dir": p.store.Dir()})

	merged, err := p.store.LoadTable(storage.UncleanedMerged)
	if err != nil {
		return nil, p.fail(StageClean, err)
	}

	f := EligibilityFilter(p.cfg, p.floors...)
	filtered, err := f.Apply(merged)
	if err != nil {
		return nil, p.fail(StageClean, fmt.Errorf("applying eligibility filter: %w", err))
	}

	out, filled, err := Normalizer(p.cfg).Normalize(f.Project(filtered))
	if err != nil {
		return nil, p.fail(StageClean, fmt.Errorf("normalizing missing values: %w", err))
	}
	out = out.WithName(storage.PlayerData.Name)

	if err := ctx.Err(); err != nil {
		return nil, p.fail(StageClean, err)
	}
	if err := p.store.SaveTable(storage.PlayerData, out); err != nil {
		return nil, p.fail(StageClean, err)
	}

	report := &Report{
		RunID:    p.runID,
		Stage:    StageClean,
		RowsIn:   merged.Len(),
		RowsOut:  out.Len(),
		Output:   p.store.Path(storage.PlayerData),
		Duration: time.Since(start),
		Filter:   f.String(),
		Filled:   filled.Filled,
	}
	p.finish(report)

	return report, nil
}

// Train evaluates the ridge model on player_data and writes per-season metrics,
// held-out predictions and the model fitted on every season.
func (p *Pipeline) Train(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	p.log.Info("Starting stage", logger.Fields{"stage": StageTrain, "data_dir": p.store.Dir()})

	data, err := p.store.LoadTable(storage.PlayerData)
	if err != nil {
		return nil, p.fail(StageTrain, err)
	}

	res, err := model.Evaluate(data, ModelOptions(p.cfg))
	if err != nil {
		return nil, p.fail(StageTrain, fmt.Errorf("evaluating model: %w", err))
	}

	if err := ctx.Err(); err != nil {
		return nil, p.fail(StageTrain, err)
	}
	if err := p.store.SaveTable(storage.ModelMetrics, res.MetricsTable(storage.ModelMetrics.Name)); err != nil {
		return nil, p.fail(StageTrain, err)
	}
	if err := p.store.SaveTable(storage.Predictions, res.PredictionsTable(storage.Predictions.Name)); err != nil {
		return nil, p.fail(StageTrain, err)
	}
	if err := p.store.SaveJSON(storage.RidgeModel, res.Model); err != nil {
		return nil, p.fail(StageTrain, err)
	}
	p.log.Debug("Model saved", logger.Fields{"path": p.store.Path(storage.RidgeModel), "features": len(res.Model.Features)})

	for _, f := range res.Folds {
		p.log.Info("Season evaluated", logger.Fields{
			"season":           f.Season,
			"rmse":             f.RMSE,
			"r2":               f.R2,
			"actual_winner":    f.Actual[0].Player,
			"predicted_winner": f.Predicted[0].Player,
		})
	}

	report := &Report{
		RunID:    p.runID,
		Stage:    StageTrain,
		RowsIn:   data.Len(),
		RowsOut:  len(res.Predictions),
		Output:   p.store.Path(storage.ModelMetrics),
		Duration: time.Since(start),
		Seasons:  len(res.Folds),
		RMSE:     res.RMSE,
		R2:       res.R2,
		Folds:    res.Folds,
	}
	p.finish(report)

	return report, nil
}

// Export publishes player_data through exp
func (p *Pipeline) Export(ctx context.Context, exp export.Exporter) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	p.log.Info("Starting stage", logger.Fields{"stage": StageExport, "table": p.cfg.Export.Table})

	data, err := p.store.LoadTable(storage.PlayerData)
	if err != nil {
		return nil, p.fail(StageExport, err)
	}
	if err := exp.Export(ctx, data); err != nil {
		return nil, p.fail(StageExport, fmt.Errorf("exporting %s: %w", data.Name, err))
	}

	report := &Report{
		RunID:    p.runID,
		Stage:    StageExport,
		RowsIn:   data.Len(),
		RowsOut:  data.Len(),
		Output:   p.cfg.Export.Table,
		Duration: time.Since(start),
	}
	p.finish(report)

	return report, nil
}

// Run executes Merge then Clean
func (p *Pipeline) Run(ctx context.Context) ([]*Report, error) {
	var reports []*Report
	for _, stage := range []func(context.Context) (*Report, error){p.Merge, p.Clean} {
		r, err := stage(ctx)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func (p *Pipeline) loadInputs() (merge.Inputs, error) {
	var in merge.Inputs
	var err error

	if in.Votes, err = p.store.LoadTable(storage.MVPVotings); err != nil {
		return in, err
	}
	if in.PerGame, err = p.store.LoadTable(storage.PlayerStats); err != nil {
		return in, err
	}
	if in.Standings, err = p.store.LoadTable(storage.TeamRecords); err != nil {
		return in, err
	}
	if p.cfg.Schema.Extended {
		if in.Advanced, err = p.store.LoadTable(storage.AdvancedStats); err != nil {
			return in, err
		}
	}
	return in, nil
}

func (p *Pipeline) finish(r *Report) {
	p.metrics.ObserveStage(r.Stage, r.RowsIn, r.RowsOut, r.Duration)
	p.log.Info("Stage finished", logger.Fields{
		"stage":       r.Stage,
		"rows_in":     r.RowsIn,
		"rows_out":    r.RowsOut,
		"duration_ms": r.Duration.Milliseconds(),
		"output":      r.Output,
	})
	p.flushMetrics()
}

func (p *Pipeline) fail(stage string, err error) error {
	p.log.Error("Stage failed", logger.Fields{"stage": stage}, err)
	p.flushMetrics()
	return fmt.Errorf("%s stage: %w", stage, err)
}

func (p *Pipeline) flushMetrics() {
	path := p.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := p.metrics.WriteTextfile(path); err != nil {
		p.log.Warn("Writing metrics failed", logger.Fields{"path": path, "error": err.Error()})
	}
}
