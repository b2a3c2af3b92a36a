package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-tracker/internal/api/dto"
	"github.com/spec-kit/sla-tracker/internal/domain"
	"github.com/spec-kit/sla-tracker/internal/observability"
	"github.com/spec-kit/sla-tracker/internal/service"
	apperrors "github.com/spec-kit/sla-tracker/pkg/util/errorutil"
)

// ReportService is the evaluation surface used by the SLA endpoints.
type ReportService interface {
	Evaluate(ctx context.Context, tickets []domain.Ticket, shifts []domain.Shift, now time.Time) (*domain.Report, error)
	Run(ctx context.Context, req service.RunRequest) (*domain.Snapshot, error)
	LatestSnapshot(ctx context.Context) (*domain.Snapshot, error)
	GetSnapshot(ctx context.Context, id string) (*domain.Snapshot, error)
	ListSnapshots(ctx context.Context, limit int) ([]domain.Snapshot, error)
}

// SLAHandler manages evaluation and snapshot endpoints.
type SLAHandler struct {
	service ReportService
	metrics *observability.Metrics
}

// NewSLAHandler constructs handler.
func NewSLAHandler(reports ReportService, metrics *observability.Metrics) *SLAHandler {
	return &SLAHandler{service: reports, metrics: metrics}
}

// Evaluate POST /sla/evaluate.
func (h *SLAHandler) Evaluate(c *fiber.Ctx) error {
	var req dto.EvaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	tickets := make([]domain.Ticket, 0, len(req.Tickets))
	for _, t := range req.Tickets {
		tickets = append(tickets, t.ToDomain())
	}
	shifts := make([]domain.Shift, 0, len(req.Shifts))
	for i, s := range req.Shifts {
		shift, err := s.ToDomain()
		if err != nil {
			return apperrors.NewValidationError("invalid shift", map[string]any{"index": i, "reason": err.Error()})
		}
		shifts = append(shifts, shift)
	}

	now, err := parseBound("now", req.Now)
	if err != nil {
		return err
	}

	report, err := h.service.Evaluate(c.UserContext(), tickets, shifts, now)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// Run POST /sla/runs.
func (h *SLAHandler) Run(c *fiber.Ctx) error {
	var req dto.RunRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}

	from, err := parseBound("from", req.From)
	if err != nil {
		return err
	}
	to, err := parseBound("to", req.To)
	if err != nil {
		return err
	}

	run := service.RunRequest{From: from, To: to, Trigger: domain.TriggerManual}
	snapshot, err := h.service.Run(c.UserContext(), run)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": snapshot})
}

// ListSnapshots GET /sla/snapshots.
func (h *SLAHandler) ListSnapshots(c *fiber.Ctx) error {
	snapshots, err := h.service.ListSnapshots(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	items := make([]dto.SnapshotHeader, 0, len(snapshots))
	for _, s := range snapshots {
		items = append(items, dto.NewSnapshotHeader(s))
	}
	return c.JSON(fiber.Map{"data": items})
}

// LatestSnapshot GET /sla/snapshots/latest.
func (h *SLAHandler) LatestSnapshot(c *fiber.Ctx) error {
	snapshot, err := h.service.LatestSnapshot(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snapshot})
}

// GetSnapshot GET /sla/snapshots/:id.
func (h *SLAHandler) GetSnapshot(c *fiber.Ctx) error {
	snapshot, err := h.service.GetSnapshot(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snapshot})
}

// Metrics GET /sla/metrics.
func (h *SLAHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}

// parseBound parses an optional timestamp field; absent means the zero time.
func parseBound(field string, raw *string) (time.Time, error) {
	if raw == nil {
		return time.Time{}, nil
	}
	parsed := dto.ParseOptionalTime(raw)
	if parsed == nil {
		return time.Time{}, apperrors.NewValidationError(field+" must be an RFC3339 timestamp", nil)
	}
	return *parsed, nil
}
