package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-tracker/internal/accountability"
	"github.com/spec-kit/sla-tracker/internal/calendar"
	"github.com/spec-kit/sla-tracker/internal/domain"
	"github.com/spec-kit/sla-tracker/internal/evaluator"
	"github.com/spec-kit/sla-tracker/internal/events"
	"github.com/spec-kit/sla-tracker/internal/observability"
	"github.com/spec-kit/sla-tracker/internal/repository"
	apperrors "github.com/spec-kit/sla-tracker/pkg/util/errorutil"
)

const (
	// handoffHorizon is how far past the window shifts are loaded, so tickets
	// created in a late gap can be handed to the next shift.
	handoffHorizon = 7 * 24 * time.Hour

	defaultSnapshotLimit = 20
	maxSnapshotLimit     = 100
)

// ReportService runs SLA evaluations and serves stored snapshots.
type ReportService struct {
	tickets    repository.TicketRepository
	shifts     repository.ShiftRepository
	snapshots  repository.SnapshotRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger

	cal      *calendar.Calendar
	roster   *domain.Roster
	timeline accountability.Options
	workers  int
	lookback time.Duration
	clock    func() time.Time

	runMu sync.Mutex
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	TicketRepo   repository.TicketRepository
	ShiftRepo    repository.ShiftRepository
	SnapshotRepo repository.SnapshotRepository
	Dispatcher   events.Dispatcher
	Metrics      *observability.Metrics
	Logger       *zap.Logger

	Calendar *calendar.Calendar
	Roster   *domain.Roster
	Timeline accountability.Options
	Workers  int
	Lookback time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// RunRequest selects the ticket creation window of a run. Zero values default to
// the trailing lookback window ending now.
type RunRequest struct {
	From    time.Time
	To      time.Time
	Now     time.Time
	Trigger domain.RunTrigger
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	cal := deps.Calendar
	if cal == nil {
		cal = calendar.New(time.UTC, deps.Roster)
	}
	lookback := deps.Lookback
	if lookback <= 0 {
		lookback = 30 * 24 * time.Hour
	}
	return &ReportService{
		tickets:    deps.TicketRepo,
		shifts:     deps.ShiftRepo,
		snapshots:  deps.SnapshotRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		cal:        cal,
		roster:     deps.Roster,
		timeline:   deps.Timeline,
		workers:    deps.Workers,
		lookback:   lookback,
		clock:      clock,
	}
}

// Evaluate runs the engine over caller-supplied tickets and shifts. Nothing is
// persisted and no events are published.
func (s *ReportService) Evaluate(ctx context.Context, tickets []domain.Ticket, shifts []domain.Shift, now time.Time) (*domain.Report, error) {
	if now.IsZero() {
		now = s.clock()
	}
	return s.evaluate(ctx, tickets, shifts, now)
}

// Run loads tickets created in the window, evaluates them against the stored
// schedule, persists a snapshot and publishes breach events. Only one run
// executes at a time.
func (s *ReportService) Run(ctx context.Context, req RunRequest) (*domain.Snapshot, error) {
	if !s.runMu.TryLock() {
		return nil, apperrors.NewConflict("an evaluation run is already in progress", nil)
	}
	defer s.runMu.Unlock()

	req = s.normalize(req)
	if !req.From.Before(req.To) {
		return nil, apperrors.NewValidationError("window start must be before window end", map[string]any{
			"from": req.From,
			"to":   req.To,
		})
	}

	started := s.clock()
	snapshot, err := s.run(ctx, req)
	if err != nil {
		s.metrics.RecordRunFailure(string(req.Trigger))
		s.logger.Error("evaluation run failed",
			zap.String("trigger", string(req.Trigger)),
			zap.Time("from", req.From),
			zap.Time("to", req.To),
			zap.Error(err))
		return nil, err
	}
	elapsed := s.clock().Sub(started)
	s.metrics.RecordRun(string(req.Trigger), snapshot.Outcomes, snapshot.Skipped, elapsed)

	s.logger.Info("evaluation run recorded",
		zap.String("snapshot_id", snapshot.ID),
		zap.String("trigger", string(req.Trigger)),
		zap.Int("examined", snapshot.Examined),
		zap.Int("outcomes", len(snapshot.Outcomes)),
		zap.Float64("overall_rate", snapshot.Summary.Overall.Rate),
		zap.Duration("elapsed", elapsed))
	return snapshot, nil
}

func (s *ReportService) run(ctx context.Context, req RunRequest) (*domain.Snapshot, error) {
	tickets, err := s.tickets.ListCreatedBetween(ctx, req.From, req.To)
	if err != nil {
		return nil, err
	}
	shifts, err := s.shifts.ListBetween(ctx, req.From, req.To.Add(handoffHorizon))
	if err != nil {
		return nil, err
	}

	report, err := s.evaluate(ctx, tickets, shifts, req.Now)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.Snapshot{
		ID:         uuid.NewString(),
		RunAt:      s.clock().UTC(),
		Trigger:    req.Trigger,
		WindowFrom: req.From,
		WindowTo:   req.To,
		Report:     *report,
	}
	if err := s.snapshots.Create(ctx, snapshot); err != nil {
		return nil, err
	}

	s.publish(ctx, snapshot)
	return snapshot, nil
}

func (s *ReportService) evaluate(ctx context.Context, tickets []domain.Ticket, shifts []domain.Shift, now time.Time) (*domain.Report, error) {
	timeline, err := accountability.NewTimeline(shifts, s.cal, s.timeline)
	if err != nil {
		return nil, apperrors.NewUnprocessable("INVALID_SCHEDULE", "shift schedule is invalid", err)
	}

	eval := evaluator.New(evaluator.Dependencies{
		Calendar: s.cal,
		Timeline: timeline,
		Roster:   s.roster,
		Workers:  s.workers,
	})
	batch, err := eval.EvaluateBatch(ctx, tickets, now)
	if err != nil {
		return nil, err
	}

	return &domain.Report{
		Examined: batch.Examined,
		Skipped:  batch.Skipped,
		Summary:  batch.Summary,
		Outcomes: batch.Outcomes,
	}, nil
}

func (s *ReportService) publish(ctx context.Context, snapshot *domain.Snapshot) {
	if s.dispatcher == nil {
		return
	}
	breaches := snapshot.Breaches()
	for _, o := range breaches {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:         uuid.NewString(),
			Type:       events.EventSLABreached,
			SnapshotID: snapshot.ID,
			Timestamp:  snapshot.RunAt,
			Payload:    events.BreachedPayload(o),
		})
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventSnapshotRecorded,
		SnapshotID: snapshot.ID,
		Timestamp:  snapshot.RunAt,
		Payload: events.SnapshotRecordedPayload{
			Trigger:     snapshot.Trigger,
			WindowFrom:  snapshot.WindowFrom,
			WindowTo:    snapshot.WindowTo,
			Examined:    snapshot.Examined,
			Outcomes:    len(snapshot.Outcomes),
			Breaches:    len(breaches),
			OverallRate: snapshot.Summary.Overall.Rate,
		},
	})
}

func (s *ReportService) normalize(req RunRequest) RunRequest {
	if req.Now.IsZero() {
		req.Now = s.clock()
	}
	if req.To.IsZero() {
		req.To = req.Now
	}
	if req.From.IsZero() {
		req.From = req.To.Add(-s.lookback)
	}
	if req.Trigger == "" {
		req.Trigger = domain.TriggerManual
	}
	return req
}

// LatestSnapshot returns the most recent snapshot.
func (s *ReportService) LatestSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	snapshot, err := s.snapshots.Latest(ctx)
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		return nil, apperrors.NewNotFound("snapshot", nil)
	}
	return snapshot, err
}

// GetSnapshot returns the snapshot with the given id.
func (s *ReportService) GetSnapshot(ctx context.Context, id string) (*domain.Snapshot, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("snapshot", map[string]any{"id": id})
	}
	snapshot, err := s.snapshots.GetByID(ctx, id)
	if errors.Is(err, repository.ErrSnapshotNotFound) {
		return nil, apperrors.NewNotFound("snapshot", map[string]any{"id": id})
	}
	return snapshot, err
}

// ListSnapshots returns recent snapshot headers, newest first.
func (s *ReportService) ListSnapshots(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	switch {
	case limit <= 0:
		limit = defaultSnapshotLimit
	case limit > maxSnapshotLimit:
		limit = maxSnapshotLimit
	}
	return s.snapshots.List(ctx, limit)
}
