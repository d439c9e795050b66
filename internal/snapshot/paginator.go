package snapshot

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// PageFunc fetches one page at the given offset and reports how many items
// it received. Errors propagate unchanged, so a retry-exhausted fetch
// (errs.ErrFetchFailed) is never mistaken for end of data.
type PageFunc func(ctx context.Context, first, skip int) (int, error)

// Paginator drives first/skip paging over a hub list query. A page shorter
// than PageSize signals exhaustion. A fixed pause separates successive page
// fetches to stay under the hub's rate ceiling; pages are never fetched
// concurrently.
type Paginator struct {
	PageSize int
	Pause    time.Duration

	clock clockwork.Clock
}

func NewPaginator(pageSize int, pause time.Duration, clock clockwork.Clock) *Paginator {
	if pageSize <= 0 {
		pageSize = BatchSize
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Paginator{PageSize: pageSize, Pause: pause, clock: clock}
}

func (p *Paginator) Each(ctx context.Context, fetch PageFunc) error {
	skip := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := fetch(ctx, p.PageSize, skip)
		if err != nil {
			return err
		}
		if n < p.PageSize {
			return nil
		}
		skip += p.PageSize

		if p.Pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-p.clock.After(p.Pause):
			}
		}
	}
}
