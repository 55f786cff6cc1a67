package sheets

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/camden-git/clubdash/metrics"
)

// DefaultMinInterval is the minimum spacing between remote calls.
const DefaultMinInterval = time.Second

// Throttled spaces calls to the wrapped store at least interval apart and
// records call metrics. Callers block until their turn or until ctx ends.
type Throttled struct {
	next    RowStore
	limiter *rate.Limiter
}

// NewThrottled wraps next. A non-positive interval disables the spacing.
func NewThrottled(next RowStore, interval time.Duration) *Throttled {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(limit, 1)}
}

func (t *Throttled) wait(ctx context.Context) error {
	start := time.Now()
	err := t.limiter.Wait(ctx)
	metrics.ThrottleWait.Observe(time.Since(start).Seconds())
	return err
}

func (t *Throttled) do(ctx context.Context, op string, fn func() error) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	metrics.SheetLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())

	result := metrics.ResultOK
	switch {
	case err == nil:
	case IsRateLimit(err):
		result = metrics.ResultRateLimited
	default:
		result = metrics.ResultError
	}
	metrics.SheetCalls.WithLabelValues(op, result).Inc()
	return err
}

func (t *Throttled) Title(ctx context.Context, spreadsheetID string) (title string, err error) {
	err = t.do(ctx, "title", func() error {
		title, err = t.next.Title(ctx, spreadsheetID)
		return err
	})
	return title, err
}

func (t *Throttled) Worksheets(ctx context.Context, spreadsheetID string) (titles []string, err error) {
	err = t.do(ctx, "worksheets", func() error {
		titles, err = t.next.Worksheets(ctx, spreadsheetID)
		return err
	})
	return titles, err
}

func (t *Throttled) ReadGrid(ctx context.Context, spreadsheetID, worksheet string) (grid [][]string, err error) {
	err = t.do(ctx, "read", func() error {
		grid, err = t.next.ReadGrid(ctx, spreadsheetID, worksheet)
		return err
	})
	return grid, err
}

func (t *Throttled) AppendRows(ctx context.Context, spreadsheetID, worksheet string, rows [][]string) error {
	return t.do(ctx, "append", func() error {
		return t.next.AppendRows(ctx, spreadsheetID, worksheet, rows)
	})
}

func (t *Throttled) UpdateRange(ctx context.Context, spreadsheetID, worksheet, a1 string, rows [][]string) error {
	return t.do(ctx, "update", func() error {
		return t.next.UpdateRange(ctx, spreadsheetID, worksheet, a1, rows)
	})
}

func (t *Throttled) AddWorksheet(ctx context.Context, spreadsheetID, title string, headers []string) error {
	return t.do(ctx, "add_worksheet", func() error {
		return t.next.AddWorksheet(ctx, spreadsheetID, title, headers)
	})
}
