package evaluator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/sla-tracker/internal/aggregate"
	"github.com/spec-kit/sla-tracker/internal/domain"
)

// chunksPerWorker keeps workers busy when chunks take uneven time.
const chunksPerWorker = 4

// BatchResult is the evaluation of a ticket collection.
type BatchResult struct {
	Outcomes []domain.SLAOutcome
	Summary  domain.AggregateSummary
	// Examined counts every ticket handed in, including skipped ones.
	Examined int
	// Skipped counts pathway skips by reason; a ticket without a goal counts once.
	Skipped map[string]int
}

type chunkResult struct {
	acc     *aggregate.Accumulator
	skipped map[string]int
}

// EvaluateBatch evaluates tickets concurrently. Outcomes keep ticket order. The only
// error returned is the context's.
func (e *Evaluator) EvaluateBatch(ctx context.Context, tickets []domain.Ticket, now time.Time) (*BatchResult, error) {
	perTicket := make([]Result, len(tickets))
	chunkSize := chunkSizeFor(len(tickets), e.workers)
	chunks := make([]chunkResult, (len(tickets)+chunkSize-1)/chunkSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for c := range chunks {
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lo := c * chunkSize
			hi := min(lo+chunkSize, len(tickets))
			part := chunkResult{acc: aggregate.NewAccumulator(e.cal.Location()), skipped: map[string]int{}}
			for i := lo; i < hi; i++ {
				res := e.Evaluate(tickets[i], now)
				perTicket[i] = res
				part.acc.AddAll(res.Outcomes)
				for _, err := range res.Skipped {
					part.skipped[SkipReason(err)]++
				}
			}
			chunks[c] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := aggregate.NewAccumulator(e.cal.Location())
	result := &BatchResult{
		Outcomes: make([]domain.SLAOutcome, 0, len(tickets)),
		Examined: len(tickets),
		Skipped:  map[string]int{},
	}
	for _, part := range chunks {
		total.Merge(part.acc)
		for reason, n := range part.skipped {
			result.Skipped[reason] += n
		}
	}
	for _, res := range perTicket {
		result.Outcomes = append(result.Outcomes, res.Outcomes...)
	}
	result.Summary = total.Summary()
	return result, nil
}

func chunkSizeFor(n, workers int) int {
	if n == 0 {
		return 1
	}
	size := n / (workers * chunksPerWorker)
	if size < 1 {
		size = 1
	}
	return size
}
