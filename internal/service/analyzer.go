package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ViktorAgafonov/ForecastOrder/internal/analysis"
	"github.com/ViktorAgafonov/ForecastOrder/internal/config"
	"github.com/ViktorAgafonov/ForecastOrder/internal/domain"
	"github.com/ViktorAgafonov/ForecastOrder/internal/ingest"
	"github.com/ViktorAgafonov/ForecastOrder/internal/mapping"
)

type RunStatus string

const (
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// Run tracks one analysis execution on the worker goroutine.
type Run struct {
	ID          string     `json:"id"`
	Status      RunStatus  `json:"status"`
	Percent     int        `json:"percent"`
	Message     string     `json:"message"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	result *Result
}

// Result is the output of a full pipeline run.
type Result struct {
	Groups          map[string][]domain.Item          `json:"groups"`
	Frequency       []domain.FrequencyRecord          `json:"frequency"`
	Seasonal        map[string]domain.SeasonalProfile `json:"seasonal"`
	Forecasts       []domain.ForecastRecord           `json:"forecasts"`
	Recommendations []domain.Recommendation           `json:"recommendations"`
	Parsed          int                               `json:"parsed"`
	Skipped         int                               `json:"skipped"`
}

// Analyzer orchestrates the full pipeline (resolution, frequency analysis,
// seasonality, forecasting, recommendations) over a shared mapping store.
// Runs execute on worker goroutines; progress is observable by run id. The
// store is a single-writer resource, guarded by storeMu.
type Analyzer struct {
	cfg *config.Config

	storeMu sync.Mutex
	store   *mapping.Store

	mu   sync.Mutex
	runs map[string]*Run
}

func NewAnalyzer(cfg *config.Config, store *mapping.Store) *Analyzer {
	return &Analyzer{
		cfg:   cfg,
		store: store,
		runs:  make(map[string]*Run),
	}
}

// Store exposes the underlying mapping store for the manual-editing surface.
func (a *Analyzer) Store() *mapping.Store {
	return a.store
}

// LoadLedgers ingests several ledger files concurrently and merges their
// rows in input order.
func (a *Analyzer) LoadLedgers(ctx context.Context, paths []string) (*ingest.Ledger, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no ledger files given")
	}

	g, _ := errgroup.WithContext(ctx)
	ledgers := make([]*ingest.Ledger, len(paths))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			ledger, err := ingest.LoadFile(path)
			if err != nil {
				return err
			}
			ledgers[i] = ledger
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &ingest.Ledger{}
	for _, ledger := range ledgers {
		merged.Merge(ledger)
	}
	return merged, nil
}

// Analyze runs the full pipeline synchronously, reporting aggregate progress
// 0..100. An empty ledger yields an empty result, not an error.
func (a *Analyzer) Analyze(ledger *ingest.Ledger, progress domain.ProgressFunc) (*Result, error) {
	return a.AnalyzeAt(time.Now(), ledger, progress)
}

// AnalyzeAt is Analyze with an explicit "today", the anchor for the forecast
// horizon and the recommendation window.
func (a *Analyzer) AnalyzeAt(today time.Time, ledger *ingest.Ledger, progress domain.ProgressFunc) (*Result, error) {
	report := func(p int, msg string) {
		if progress != nil {
			progress(p, msg)
		}
	}

	result := &Result{
		Groups:   make(map[string][]domain.Item),
		Seasonal: make(map[string]domain.SeasonalProfile),
	}
	if ledger != nil {
		result.Parsed = ledger.Parsed
		result.Skipped = ledger.Skipped
	}

	if ledger == nil || len(ledger.Rows) == 0 {
		log.Warn().Msg("empty ledger, nothing to analyze")
		report(100, "Нет данных для обработки")
		return result, nil
	}

	opts := a.cfg.Analysis

	a.storeMu.Lock()
	resolver := mapping.NewResolver(a.store, opts.SimilarityThreshold)
	resolution := resolver.Resolve(ledger.Items(), stageProgress(report, 0, 40))
	result.Groups = resolution.Groups

	// Seed the store with the newly discovered groups. A persist failure is
	// reported but the run continues on the in-memory state.
	if _, err := a.store.UpdateFromResolution(resolution.Groups); err != nil {
		log.Error().Err(err).Msg("failed to persist resolved groups")
	}
	a.storeMu.Unlock()

	result.Frequency = analysis.AnalyzeFrequency(resolution.Groups, ledger.Rows, stageProgress(report, 40, 70))
	result.Seasonal = analysis.DetectSeasonality(result.Frequency)
	report(75, "Сезонные паттерны обнаружены")

	leadTimes := ingest.BuildLeadTimeTable(ledger.Rows)
	result.Forecasts = analysis.BuildForecast(result.Frequency, result.Seasonal, analysis.ForecastParams{
		Today:               today,
		ForecastDays:        opts.ForecastDays,
		DefaultLeadTimeDays: opts.DefaultLeadTimeDays,
		UseItemLeadTimes:    opts.UseItemLeadTimes,
		LeadTimes:           leadTimes,
	})
	report(90, fmt.Sprintf("Прогноз создан для %d групп", len(result.Forecasts)))

	history := analysis.BuildQuantityHistory(resolution.Groups, ledger.Rows)
	result.Recommendations = analysis.GenerateRecommendations(result.Forecasts, today, opts.RecommendDaysAhead, history)

	report(100, fmt.Sprintf("Сгенерировано %d рекомендаций", len(result.Recommendations)))
	return result, nil
}

// StartAnalysis launches Analyze on a worker goroutine and returns a
// point-in-time snapshot of the freshly registered run. All later state is
// read through Run, under the analyzer mutex; the worker only ever mutates
// the registered copy, never the returned one.
func (a *Analyzer) StartAnalysis(ledger *ingest.Ledger) Run {
	run := &Run{
		ID:        uuid.NewString(),
		Status:    RunProcessing,
		StartedAt: time.Now(),
	}
	snapshot := *run

	a.mu.Lock()
	a.runs[run.ID] = run
	a.mu.Unlock()

	go func() {
		result, err := a.Analyze(ledger, func(percent int, message string) {
			a.mu.Lock()
			run.Percent = percent
			run.Message = message
			a.mu.Unlock()
		})

		now := time.Now()
		a.mu.Lock()
		defer a.mu.Unlock()
		run.CompletedAt = &now
		if err != nil {
			run.Status = RunFailed
			run.Error = err.Error()
			return
		}
		run.Status = RunCompleted
		run.Percent = 100
		run.result = result
	}()

	return snapshot
}

// Run returns a snapshot of a run's state.
func (a *Analyzer) Run(id string) (Run, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	run, ok := a.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// Result returns the output of a completed run.
func (a *Analyzer) Result(id string) (*Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	run, ok := a.runs[id]
	if !ok || run.Status != RunCompleted {
		return nil, false
	}
	return run.result, true
}

// stageProgress rescales a stage's 0..100 progress into the [from, to] band
// of the aggregate run.
func stageProgress(report domain.ProgressFunc, from, to int) domain.ProgressFunc {
	return func(percent int, message string) {
		report(from+(to-from)*percent/100, message)
	}
}
