package analytics

import "context"

// QueryExecutor runs the raw aggregate queries against the order data store.
// Each call must reflect a consistent snapshot of the store.
type QueryExecutor interface {
	OrderTotals(ctx context.Context, f Filter) (Totals, error)
	// DailyTotals returns one row per day that has matching orders. Days are
	// midnight instants in UTC.
	DailyTotals(ctx context.Context, f Filter) ([]DayTotal, error)
	// ProductTotals returns one row per product with matching orders.
	ProductTotals(ctx context.Context, f Filter) ([]ProductTotal, error)
	// CategoryTotals returns one row per category with matching orders.
	CategoryTotals(ctx context.Context, f Filter) ([]CategoryTotal, error)
}
