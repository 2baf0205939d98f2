package demodata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"success-hq/backend/internal/analytics"
	"success-hq/backend/internal/demodata/domain"
	"success-hq/backend/internal/demodata/synth"
	"success-hq/backend/internal/docstore"
	"success-hq/backend/internal/seedsource"
	"success-hq/backend/internal/telemetry"
)

// Document collections and analytics tables the pipeline rebuilds.
const (
	collUsers     = "users"
	collCompanies = "companies"
	collProjects  = "projects"
	collTrending  = "trending"
	collRenewals  = "renewals"

	tableCompanyEvents = "company_events"
	tableUserEvents    = "user_events"
)

// ErrNoSeedUsers means the seed table is empty; nothing can be generated.
var ErrNoSeedUsers = errors.New("demodata: no seed user records available")

// Replacer is the document-store surface the pipeline uses.
type Replacer interface {
	Replace(ctx context.Context, collection string, records []any) (docstore.ReplaceResult, error)
	UpdateByMatch(ctx context.Context, collection, field, value string, patch map[string]any) error
}

// Ingestor is the analytics surface the pipeline uses.
type Ingestor interface {
	Truncate(ctx context.Context, table string) error
	Insert(ctx context.Context, table string, rows []analytics.Row) (int, error)
}

// Service runs the dataset generation pipeline: rebuild the document
// collections, then truncate and refill the analytics event tables. Stages
// run strictly in order; the first failure aborts the run.
type Service struct {
	seeds   seedsource.Source
	docs    Replacer
	tables  Ingestor
	emitter telemetry.EventEmitter
	params  Params

	stageDuration metric.Float64Histogram

	// now and sleep are swapped in tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewService wires a pipeline service. emitter may be nil (telemetry is
// best-effort); meter may be nil to skip stage duration metrics.
func NewService(seeds seedsource.Source, docs Replacer, tables Ingestor, emitter telemetry.EventEmitter, meter metric.Meter, params Params) *Service {
	s := &Service{
		seeds:   seeds,
		docs:    docs,
		tables:  tables,
		emitter: emitter,
		params:  params,
		now:     time.Now,
		sleep:   time.Sleep,
	}
	if meter != nil {
		hist, err := meter.Float64Histogram("pipeline.stage.duration",
			metric.WithDescription("Duration of one dataset pipeline stage"),
			metric.WithUnit("s"))
		if err != nil {
			log.Printf("demodata: stage duration histogram: %v", err)
		} else {
			s.stageDuration = hist
		}
	}
	return s
}

// RunOptions control one pipeline run. UserLimit caps how many seed users are
// read (<= 0 means all). Seed fixes the random stream; 0 derives one from the
// clock.
type RunOptions struct {
	UserLimit int
	Seed      uint64
}

// Stats counts what a run produced.
type Stats struct {
	Users           int `json:"users"`
	Companies       int `json:"companies"`
	Projects        int `json:"projects"`
	TrendingEntries int `json:"trending_entries"`
	Renewals        int `json:"renewals"`
	CompanyEvents   int `json:"company_events"`
	UserEvents      int `json:"user_events"`
}

// Result reports a pipeline run. On failure, FailedStage names the stage that
// aborted the run and Stats covers the stages that completed before it.
type Result struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Stats       Stats  `json:"stats"`
	FailedStage string `json:"failed_stage,omitempty"`
	Err         error  `json:"-"`
}

// Run executes the pipeline once.
func (s *Service) Run(ctx context.Context, opts RunOptions) Result {
	runID := uuid.NewString()
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(s.now().UnixNano())
	}
	rng := synth.NewRand(seed)
	now := s.now()
	log.Printf("demodata: run %s starting (user_limit=%d)", runID, opts.UserLimit)

	var stats Stats
	fail := func(stage string, err error) Result {
		log.Printf("demodata: run %s failed at stage %s: %v", runID, stage, err)
		return Result{
			Message:     fmt.Sprintf("demo data creation failed: %v", err),
			Stats:       stats,
			FailedStage: stage,
			Err:         err,
		}
	}

	var users []domain.User
	if err := s.stage(ctx, runID, "users", &stats.Users, func() (int, error) {
		seedUsers, err := s.seeds.FetchUsers(ctx, opts.UserLimit)
		if err != nil {
			return 0, err
		}
		if len(seedUsers) == 0 {
			return 0, ErrNoSeedUsers
		}
		users = buildUsers(rng, now, seedUsers, s.params.MaxRegDelayMinutes)
		if _, err := s.docs.Replace(ctx, collUsers, toAny(users)); err != nil {
			return 0, err
		}
		return len(users), nil
	}); err != nil {
		return fail("users", err)
	}

	var companies []domain.Company
	if err := s.stage(ctx, runID, "companies", &stats.Companies, func() (int, error) {
		companies = buildCompanies(users)
		if _, err := s.docs.Replace(ctx, collCompanies, toAny(companies)); err != nil {
			return 0, err
		}
		return len(companies), nil
	}); err != nil {
		return fail("companies", err)
	}

	if err := s.stage(ctx, runID, "projects", &stats.Projects, func() (int, error) {
		projects := buildProjects(rng, now, companies, s.params)
		if _, err := s.docs.Replace(ctx, collProjects, toAny(projects)); err != nil {
			return 0, err
		}
		return len(projects), nil
	}); err != nil {
		return fail("projects", err)
	}

	if err := s.stage(ctx, runID, "trending", &stats.TrendingEntries, func() (int, error) {
		trending := buildTrending(rng, now, companies, s.params)
		if _, err := s.docs.Replace(ctx, collTrending, toAny(trending)); err != nil {
			return 0, err
		}
		return len(trending), nil
	}); err != nil {
		return fail("trending", err)
	}

	var companyEvents []domain.CompanyEvent
	if err := s.stage(ctx, runID, "company_events", &stats.CompanyEvents, func() (int, error) {
		for _, c := range companies {
			companyEvents = append(companyEvents, synth.CompanyEvents(rng, now, c.Name, c.EarliestReg)...)
		}
		return len(companyEvents), nil
	}); err != nil {
		return fail("company_events", err)
	}

	if err := s.stage(ctx, runID, "clear_tables", nil, func() (int, error) {
		for _, table := range []string{tableCompanyEvents, tableUserEvents} {
			if err := s.tables.Truncate(ctx, table); err != nil {
				return 0, fmt.Errorf("truncate %s: %w", table, err)
			}
		}
		// Give the store a moment to settle so the first insert after
		// truncation does not race the table state.
		s.sleep(s.params.TruncateSettleDelay)
		return 2, nil
	}); err != nil {
		return fail("clear_tables", err)
	}

	if err := s.stage(ctx, runID, "ingest_company_events", nil, func() (int, error) {
		return s.tables.Insert(ctx, tableCompanyEvents, companyRows(companyEvents))
	}); err != nil {
		return fail("ingest_company_events", err)
	}

	var rollups map[string]Rollup
	if err := s.stage(ctx, runID, "aggregate", nil, func() (int, error) {
		rollups = AggregateCompanyEvents(companyEvents)
		return len(rollups), nil
	}); err != nil {
		return fail("aggregate", err)
	}

	if err := s.stage(ctx, runID, "renewals", &stats.Renewals, func() (int, error) {
		renewals := buildRenewals(rng, now, rollups, s.params)
		if _, err := s.docs.Replace(ctx, collRenewals, toAny(renewals)); err != nil {
			return 0, err
		}
		return len(renewals), nil
	}); err != nil {
		return fail("renewals", err)
	}

	if err := s.stage(ctx, runID, "company_totals", nil, func() (int, error) {
		return s.patchCompanyTotals(ctx, rollups)
	}); err != nil {
		return fail("company_totals", err)
	}

	var userEvents []domain.UserEvent
	if err := s.stage(ctx, runID, "user_events", &stats.UserEvents, func() (int, error) {
		for _, u := range users {
			userEvents = append(userEvents, synth.UserEvents(rng, now, u)...)
		}
		return len(userEvents), nil
	}); err != nil {
		return fail("user_events", err)
	}

	if err := s.stage(ctx, runID, "ingest_user_events", nil, func() (int, error) {
		return s.tables.Insert(ctx, tableUserEvents, userRows(userEvents))
	}); err != nil {
		return fail("ingest_user_events", err)
	}

	log.Printf("demodata: run %s completed: %+v", runID, stats)
	return Result{Success: true, Message: "demo data created successfully", Stats: stats}
}

// stage emits started/completed/failed events around fn and records its
// duration. When out is non-nil, the stage's count is stored there on success.
func (s *Service) stage(ctx context.Context, runID, name string, out *int, fn func() (int, error)) error {
	telemetry.EmitAsync(s.emitter, ctx, &telemetry.PipelineEvent{
		RunID: runID, Stage: name, Status: telemetry.StatusStarted, CreatedAt: s.now(),
	})
	start := time.Now()
	count, err := fn()
	if s.stageDuration != nil {
		s.stageDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("stage", name)))
	}
	if err != nil {
		telemetry.EmitAsync(s.emitter, ctx, &telemetry.PipelineEvent{
			RunID: runID, Stage: name, Status: telemetry.StatusFailed, Error: err.Error(), CreatedAt: s.now(),
		})
		return err
	}
	if out != nil {
		*out = count
	}
	telemetry.EmitAsync(s.emitter, ctx, &telemetry.PipelineEvent{
		RunID: runID, Stage: name, Status: telemetry.StatusCompleted, Count: count, CreatedAt: s.now(),
	})
	return nil
}

// patchCompanyTotals merges purchase and provisioning totals into each company
// document. A company document that cannot be found is logged and skipped; the
// remaining companies are still patched.
func (s *Service) patchCompanyTotals(ctx context.Context, rollups map[string]Rollup) (int, error) {
	patched := 0
	for _, name := range slices.Sorted(maps.Keys(rollups)) {
		r := rollups[name]
		err := s.docs.UpdateByMatch(ctx, collCompanies, "name", name, map[string]any{
			"boxes_bought": r.Purchased,
			"boxes_prov":   r.Provisioned,
		})
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				log.Printf("demodata: company document %q not found, skipping totals", name)
				continue
			}
			return patched, err
		}
		patched++
	}
	return patched, nil
}

func toAny[T any](items []T) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func companyRows(events []domain.CompanyEvent) []analytics.Row {
	rows := make([]analytics.Row, len(events))
	for i, e := range events {
		rows[i] = analytics.Row(e.Row())
	}
	return rows
}

func userRows(events []domain.UserEvent) []analytics.Row {
	rows := make([]analytics.Row, len(events))
	for i, e := range events {
		rows[i] = analytics.Row(e.Row())
	}
	return rows
}
