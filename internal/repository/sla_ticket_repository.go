package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-tracker/internal/domain"
)

// TicketRepository reads the SLA view of tickets synced from the issue tracker.
type TicketRepository interface {
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool, logger *zap.Logger) TicketRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ticketRepository{pool: pool, logger: logger}
}

const ticketColumns = `ticket_key, created_at, resolved_at, assigned_at, owner_comment_at,
               first_responder_comment_at, first_responder_assign_at, first_responder,
               current_owner, goals`

func (r *ticketRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Ticket, error) {
	if r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	query := `SELECT ` + ticketColumns + `
        FROM sla_tickets
        WHERE created_at >= $1 AND created_at < $2
        ORDER BY created_at, ticket_key`
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		var row ticketRow
		if err := rows.Scan(
			&row.Key,
			&row.CreatedAt,
			&row.ResolvedAt,
			&row.AssignedAt,
			&row.OwnerCommentAt,
			&row.FirstResponderCommentAt,
			&row.FirstResponderAssignAt,
			&row.FirstResponder,
			&row.CurrentOwner,
			&row.Goals,
		); err != nil {
			return nil, err
		}
		tickets = append(tickets, row.toDomain(r.logger))
	}
	return tickets, rows.Err()
}

type ticketRow struct {
	Key                     string
	CreatedAt               *time.Time
	ResolvedAt              *time.Time
	AssignedAt              *time.Time
	OwnerCommentAt          *time.Time
	FirstResponderCommentAt *time.Time
	FirstResponderAssignAt  *time.Time
	FirstResponder          string
	CurrentOwner            string
	Goals                   []byte
}

// toDomain maps the row. Unreadable goals leave GoalMinutes nil so the ticket is
// skipped as missing_goal instead of failing the whole window.
func (r ticketRow) toDomain(logger *zap.Logger) domain.Ticket {
	ticket := domain.Ticket{
		Key:                     r.Key,
		ResolvedAt:              r.ResolvedAt,
		AssignedAt:              r.AssignedAt,
		OwnerCommentAt:          r.OwnerCommentAt,
		FirstResponderCommentAt: r.FirstResponderCommentAt,
		FirstResponderAssignAt:  r.FirstResponderAssignAt,
		FirstResponder:          r.FirstResponder,
		CurrentOwner:            r.CurrentOwner,
	}
	if r.CreatedAt != nil {
		ticket.CreatedAt = *r.CreatedAt
	}
	if len(r.Goals) > 0 {
		var goals []domain.SLAGoal
		if err := json.Unmarshal(r.Goals, &goals); err != nil {
			logger.Warn("ignoring unreadable sla goals", zap.String("ticket", r.Key), zap.Error(err))
			return ticket
		}
		ticket.GoalMinutes = domain.SelectGoalMinutes(goals)
	}
	return ticket
}
