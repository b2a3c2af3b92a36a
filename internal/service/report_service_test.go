package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/sla-tracker/internal/calendar"
	"github.com/spec-kit/sla-tracker/internal/config"
	"github.com/spec-kit/sla-tracker/internal/domain"
	"github.com/spec-kit/sla-tracker/internal/events"
	"github.com/spec-kit/sla-tracker/internal/observability"
	"github.com/spec-kit/sla-tracker/internal/repository"
	apperrors "github.com/spec-kit/sla-tracker/pkg/util/errorutil"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.June, day, hour, minute, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

type fakeTickets struct {
	tickets  []domain.Ticket
	from, to time.Time
}

func (f *fakeTickets) ListCreatedBetween(_ context.Context, from, to time.Time) ([]domain.Ticket, error) {
	f.from, f.to = from, to
	return f.tickets, nil
}

type fakeShifts struct {
	shifts   []domain.Shift
	from, to time.Time
	err      error
}

func (f *fakeShifts) ListBetween(_ context.Context, from, to time.Time) ([]domain.Shift, error) {
	f.from, f.to = from, to
	return f.shifts, f.err
}

type fakeSnapshots struct {
	mu      sync.Mutex
	created []domain.Snapshot
	limit   int
}

func (f *fakeSnapshots) Create(_ context.Context, s *domain.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *s)
	return nil
}

func (f *fakeSnapshots) Latest(context.Context) (*domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.created) == 0 {
		return nil, repository.ErrSnapshotNotFound
	}
	s := f.created[len(f.created)-1]
	return &s, nil
}

func (f *fakeSnapshots) GetByID(_ context.Context, id string) (*domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.created {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, repository.ErrSnapshotNotFound
}

func (f *fakeSnapshots) List(_ context.Context, limit int) ([]domain.Snapshot, error) {
	f.limit = limit
	return f.created, nil
}

type fixture struct {
	svc       *ReportService
	tickets   *fakeTickets
	shifts    *fakeShifts
	snapshots *fakeSnapshots
	metrics   *observability.Metrics
	published []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	roster := domain.NewRoster(domain.DefaultWorkingHours, []domain.Actor{
		{ID: "alice", OnCallResponder: true, SLAResponder: true},
		{ID: "bob", OnCallResponder: true},
	})
	f := &fixture{
		tickets: &fakeTickets{tickets: []domain.Ticket{
			{Key: "OPS-1", CreatedAt: at(3, 14, 0), FirstResponder: "alice", FirstResponderCommentAt: ptr(at(3, 16, 0)), GoalMinutes: ptr(60)},
			{Key: "OPS-2", CreatedAt: at(3, 14, 0), FirstResponder: "alice", FirstResponderCommentAt: ptr(at(3, 15, 0)), GoalMinutes: ptr(120)},
			{Key: "OPS-3", CreatedAt: at(3, 15, 0)},
		}},
		shifts:    &fakeShifts{shifts: []domain.Shift{{ActorID: "alice", Start: at(3, 13, 0), End: at(3, 22, 0)}}},
		snapshots: &fakeSnapshots{},
		metrics:   observability.NewMetrics(),
	}

	dispatcher := events.NewInMemoryDispatcher(nil)
	record := func(_ context.Context, e events.Event) error {
		f.published = append(f.published, e)
		return nil
	}
	dispatcher.Subscribe(events.EventSLABreached, record)
	dispatcher.Subscribe(events.EventSnapshotRecorded, record)

	f.svc = NewReportService(ReportDependencies{
		TicketRepo:   f.tickets,
		ShiftRepo:    f.shifts,
		SnapshotRepo: f.snapshots,
		Dispatcher:   dispatcher,
		Metrics:      f.metrics,
		Calendar:     calendar.New(time.UTC, roster),
		Roster:       roster,
		Workers:      2,
		Lookback:     48 * time.Hour,
		Clock:        func() time.Time { return at(4, 12, 0) },
	})
	return f
}

func TestReportService_Run(t *testing.T) {
	f := newFixture(t)

	snapshot, err := f.svc.Run(context.Background(), RunRequest{From: at(3, 0, 0), To: at(4, 0, 0)})
	require.NoError(t, err)

	assert.NotEmpty(t, snapshot.ID)
	assert.Equal(t, domain.TriggerManual, snapshot.Trigger)
	assert.Equal(t, 3, snapshot.Examined)
	assert.Equal(t, map[string]int{"missing_goal": 1, "missing_assignment": 2}, snapshot.Skipped)
	require.Len(t, snapshot.Outcomes, 2)
	assert.Equal(t, 120, snapshot.Outcomes[0].BusinessMinutes)
	assert.False(t, snapshot.Outcomes[0].Met)
	assert.Equal(t, 60, snapshot.Outcomes[1].BusinessMinutes)
	assert.True(t, snapshot.Outcomes[1].Met)
	assert.Equal(t, domain.ComplianceCounts{Met: 1, Breached: 1, Total: 2, Rate: 50}, snapshot.Summary.Overall)

	assert.True(t, at(3, 0, 0).Equal(f.tickets.from))
	assert.True(t, at(4, 0, 0).Equal(f.tickets.to))
	assert.True(t, at(11, 0, 0).Equal(f.shifts.to), "shifts load past the window for handoffs")

	require.Len(t, f.snapshots.created, 1)
	assert.Equal(t, snapshot.ID, f.snapshots.created[0].ID)

	require.Len(t, f.published, 2)
	assert.Equal(t, events.EventSLABreached, f.published[0].Type)
	breach, ok := f.published[0].Payload.(events.SLABreachedPayload)
	require.True(t, ok)
	assert.Equal(t, "OPS-1", breach.TicketKey)
	assert.Equal(t, events.EventSnapshotRecorded, f.published[1].Type)
	recorded, ok := f.published[1].Payload.(events.SnapshotRecordedPayload)
	require.True(t, ok)
	assert.Equal(t, 1, recorded.Breaches)
	assert.Equal(t, 50.0, recorded.OverallRate)

	m := f.metrics.Snapshot()
	assert.Equal(t, int64(1), m.Runs["manual"])
	assert.Equal(t, int64(2), m.Skips["missing_assignment"])
	assert.Equal(t, int64(2), m.Outcomes["on-call|responded"])
}

func TestReportService_RunDefaultsWindow(t *testing.T) {
	f := newFixture(t)

	snapshot, err := f.svc.Run(context.Background(), RunRequest{Trigger: domain.TriggerScheduled})
	require.NoError(t, err)
	assert.True(t, at(2, 12, 0).Equal(snapshot.WindowFrom))
	assert.True(t, at(4, 12, 0).Equal(snapshot.WindowTo))
	assert.Equal(t, domain.TriggerScheduled, snapshot.Trigger)
}

func TestReportService_RunRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Run(context.Background(), RunRequest{From: at(4, 0, 0), To: at(3, 0, 0)})
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	f.svc.runMu.Lock()
	_, err = f.svc.Run(context.Background(), RunRequest{})
	f.svc.runMu.Unlock()
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)

	f.shifts.err = errors.New("db down")
	_, err = f.svc.Run(context.Background(), RunRequest{})
	assert.EqualError(t, err, "db down")
	assert.Equal(t, int64(1), f.metrics.Snapshot().Runs["manual|failed"])
	assert.Empty(t, f.snapshots.created)
}

func TestReportService_Evaluate(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.Evaluate(context.Background(), f.tickets.tickets, f.shifts.shifts, time.Time{})
	require.NoError(t, err)
	assert.Len(t, report.Outcomes, 2)
	assert.Empty(t, f.snapshots.created)
	assert.Empty(t, f.published)

	overlapping := []domain.Shift{
		{ActorID: "alice", Start: at(3, 13, 0), End: at(3, 22, 0)},
		{ActorID: "bob", Start: at(3, 20, 0), End: at(4, 2, 0)},
	}
	_, err = f.svc.Evaluate(context.Background(), f.tickets.tickets, overlapping, at(4, 0, 0))
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "INVALID_SCHEDULE", de.Code)
	assert.Equal(t, 422, de.HTTPStatus)
}

func TestReportService_Snapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.LatestSnapshot(ctx)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

	created, err := f.svc.Run(ctx, RunRequest{})
	require.NoError(t, err)

	latest, err := f.svc.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, latest.ID)

	got, err := f.svc.GetSnapshot(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = f.svc.GetSnapshot(ctx, "not-a-uuid")
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	_, err = f.svc.GetSnapshot(ctx, "6f1b2a4e-0d6c-4c57-9d84-1b1f1f0c3e11")
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

	_, err = f.svc.ListSnapshots(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultSnapshotLimit, f.snapshots.limit)
	_, err = f.svc.ListSnapshots(ctx, 5000)
	require.NoError(t, err)
	assert.Equal(t, maxSnapshotLimit, f.snapshots.limit)
}

func TestNotificationService_LogsSLAEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(nil)
	roster := domain.NewRoster(domain.DefaultWorkingHours, []domain.Actor{
		{ID: "alice", DisplayName: "Alice Liddell", OnCallResponder: true},
	})
	n := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{WebhookURL: "https://hooks.example.test/sla"}, roster)
	n.RegisterHandlers()

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:       events.EventSLABreached,
		SnapshotID: "s1",
		Payload:    events.SLABreachedPayload{TicketKey: "OPS-1", Responsible: "alice", Status: domain.StatusResponded},
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{
		Type:       events.EventSLABreached,
		SnapshotID: "s1",
		Payload:    events.SLABreachedPayload{TicketKey: "OPS-2", Responsible: string(domain.GapAfterHours), Status: domain.StatusNoResponse},
	}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventSnapshotRecorded, SnapshotID: "s1"}))

	breached := logs.FilterMessage("SLABreached").All()
	require.Len(t, breached, 2)
	assert.Equal(t, "OPS-1", breached[0].ContextMap()["ticket_key"])
	assert.Equal(t, "Alice Liddell", breached[0].ContextMap()["responsible_name"])
	assert.Equal(t, "after-hours", breached[1].ContextMap()["responsible_name"])
	assert.Equal(t, 1, logs.FilterMessage("SnapshotRecorded").Len())
	assert.Equal(t, 3, logs.FilterMessage("sendWebhookNotificationStub").Len())
}
