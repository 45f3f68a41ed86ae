package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"MarketTiming/internal/domain/models"
	domrepo "MarketTiming/internal/domain/repository"
	"MarketTiming/internal/services/align"
	"MarketTiming/internal/services/indicators"
	"MarketTiming/internal/services/series"
	"MarketTiming/internal/services/signals"
	"MarketTiming/internal/services/valuation"
	"MarketTiming/pkg/logger"
)

// PipelineConfig is everything one run needs besides its collaborators.
type PipelineConfig struct {
	Series          []models.SeriesDescriptor
	Indicators      models.IndicatorRules
	HistorySize     int
	DropWarmup      bool
	BondYield       series.BondYield
	ValuationSource string
	Valuation       valuation.Columns
}

// Pipeline runs load, align, indicators and signals once per call to Run.
type Pipeline struct {
	cfg        PipelineConfig
	source     domrepo.Source
	extractor  *series.Extractor
	indicators *indicators.Engine
	signals    *signals.Engine
	metrics    domrepo.Metrics
	log        *logger.Logger
	now        func() time.Time
}

func NewPipeline(cfg PipelineConfig, src domrepo.Source, sig *signals.Engine, metrics domrepo.Metrics, l *logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		source:     src,
		extractor:  series.NewExtractor(cfg.BondYield),
		indicators: indicators.NewEngine(cfg.Indicators),
		signals:    sig,
		metrics:    metrics,
		log:        l,
		now:        time.Now,
	}
}

// Run executes one full pipeline pass. A missing base series fails the run
// and no snapshot is returned; every other unavailable series degrades to its
// declared default and is reported in the snapshot statuses.
func (p *Pipeline) Run(ctx context.Context) (*models.Snapshot, error) {
	start := p.now()
	snap, err := p.run(ctx)
	elapsed := p.now().Sub(start)
	p.metrics.RecordRun(err == nil, elapsed.Seconds())
	if err != nil {
		p.metrics.RecordError("pipeline")
		p.log.Error("pipeline run failed", logger.Error(err), logger.Duration("duration_ms", elapsed))
		return nil, err
	}

	snap.GeneratedAt = p.now()
	snap.Duration = elapsed
	p.metrics.RecordSnapshot(snap)
	p.log.Info("pipeline run complete",
		logger.Time("as_of", snap.Latest.Date),
		logger.String("label", snap.Latest.Label),
		logger.Float64("score", snap.Latest.Score),
		logger.String("regime", snap.Latest.Regime),
		logger.Int("daily_rows", snap.Daily.Len()),
		logger.Int("monthly_rows", snap.Monthly.Len()),
		logger.Duration("duration_ms", elapsed),
	)
	return snap, nil
}

// loadResult remembers one source load so a source shared by several series
// is read once per run.
type loadResult struct {
	table *models.RawTable
	err   error
}

type extraction struct {
	origin  string
	dropped int
	err     error
}

func (p *Pipeline) run(ctx context.Context) (*models.Snapshot, error) {
	loaded := make(map[string]loadResult)
	load := func(key string) (*models.RawTable, error) {
		if r, ok := loaded[key]; ok {
			return r.table, r.err
		}
		t, err := p.source.Load(ctx, key)
		p.metrics.RecordSourceLoad(key, err)
		loaded[key] = loadResult{table: t, err: err}
		return t, err
	}

	set := make(map[string]*models.Series, len(p.cfg.Series))
	details := make(map[string]extraction, len(p.cfg.Series))
	for _, d := range p.cfg.Series {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := load(d.Source)
		if err != nil {
			details[d.Name] = extraction{err: &models.SeriesUnavailableError{Series: d.Name, Err: err}}
			continue
		}
		s, st, err := p.extractor.Extract(raw, d)
		details[d.Name] = extraction{origin: raw.Origin, dropped: st.Dropped, err: err}
		if err == nil {
			set[d.Name] = s
		}
	}

	daily, statuses, err := align.Align(p.cfg.Series, set, align.Options{DropWarmup: p.cfg.DropWarmup})
	if err != nil {
		for _, d := range p.cfg.Series {
			if d.Base && details[d.Name].err != nil {
				return nil, fmt.Errorf("align: %w: %v", err, details[d.Name].err)
			}
		}
		return nil, fmt.Errorf("align: %w", err)
	}
	statuses = p.annotate(statuses, details)

	daily, err = p.indicators.Daily(daily)
	if err != nil {
		return nil, fmt.Errorf("daily indicators: %w", err)
	}
	monthly := p.indicators.Monthly(align.Resample(daily, align.Aggregators(p.cfg.Series)))

	latest, ok := p.signals.Latest(monthly)
	if !ok {
		return nil, errors.New("no rows to evaluate")
	}

	snap := &models.Snapshot{
		Daily:    daily,
		Monthly:  monthly,
		Latest:   latest,
		History:  p.signals.History(monthly, p.cfg.HistorySize),
		Statuses: statuses,
	}

	if p.cfg.ValuationSource != "" {
		raw, err := load(p.cfg.ValuationSource)
		if err == nil {
			snap.Sectors, err = valuation.Sectors(raw, p.cfg.Valuation)
		}
		if err != nil {
			p.log.Warn("sector valuation unavailable", logger.String("source", p.cfg.ValuationSource), logger.Error(err))
		}
	}
	return snap, nil
}

// annotate adds where each series came from and why a defaulted series was
// unavailable, logging the latter.
func (p *Pipeline) annotate(statuses []models.SeriesStatus, details map[string]extraction) []models.SeriesStatus {
	for i := range statuses {
		st := &statuses[i]
		d := details[st.Name]
		st.Origin = d.origin
		st.Dropped = d.dropped
		if st.State != models.SeriesDefaulted {
			if d.dropped > 0 {
				p.log.Debug("malformed rows dropped", logger.String("series", st.Name), logger.Int("dropped", d.dropped))
			}
			continue
		}
		if d.err != nil {
			st.Message = d.err.Error() + "; " + st.Message
		}
		p.log.Warn("series unavailable, using default",
			logger.String("series", st.Name),
			logger.String("source", st.Source),
			logger.String("reason", st.Message),
		)
	}
	return statuses
}
