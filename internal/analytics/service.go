package analytics

import (
	"context"
	"fmt"
	"strconv"

	"github.com/serroba/trendmart-analytics/internal/cache"
	"github.com/serroba/trendmart-analytics/internal/clock"
)

// OverviewDays is the fixed look-back of the overview.
const OverviewDays = 30

// Service serves the four analytics aggregations through the response cache.
type Service struct {
	exec  QueryExecutor
	cache *cache.Cache
	clock clock.Clock
}

// NewService creates an analytics service.
func NewService(exec QueryExecutor, c *cache.Cache, clk clock.Clock) *Service {
	return &Service{
		exec:  exec,
		cache: c,
		clock: clk,
	}
}

func (s *Service) completed(p Period) Filter {
	return Filter{
		Status: StatusCompleted,
		Range:  p.RangeEnding(s.clock.Now().UTC()),
	}
}

// Overview returns revenue, order count and average order value over the last 30 days.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	key := cache.Key("overview", map[string]string{"days": strconv.Itoa(OverviewDays)})

	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (Overview, error) {
		totals, err := s.exec.OrderTotals(ctx, s.completed(Period{Days: OverviewDays}))
		if err != nil {
			return Overview{}, fmt.Errorf("order totals: %w", err)
		}

		return BuildOverview(totals), nil
	})
}

// SalesTrends returns the dense daily series for the period.
func (s *Service) SalesTrends(ctx context.Context, p Period) ([]DailySales, error) {
	key := cache.Key("sales-trends", map[string]string{"period": p.Name})

	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]DailySales, error) {
		f := s.completed(p)
		if f.Range.IsZero() {
			return nil, fmt.Errorf("%w: sales trends need a bounded period", ErrInvalidPeriod)
		}

		rows, err := s.exec.DailyTotals(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("daily totals: %w", err)
		}

		return DenseDaily(f.Range.Start, f.Range.End, rows), nil
	})
}

// TopProducts returns the limit best-selling products by revenue.
func (s *Service) TopProducts(ctx context.Context, limit int, p Period) ([]TopProduct, error) {
	key := cache.Key("top-products", map[string]string{
		"limit":  strconv.Itoa(limit),
		"period": p.Name,
	})

	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]TopProduct, error) {
		rows, err := s.exec.ProductTotals(ctx, s.completed(p))
		if err != nil {
			return nil, fmt.Errorf("product totals: %w", err)
		}

		return RankProducts(rows, limit), nil
	})
}

// CategoryPerformance returns every category with completed orders, ranked by revenue.
func (s *Service) CategoryPerformance(ctx context.Context, p Period) ([]CategoryPerformance, error) {
	key := cache.Key("category-performance", map[string]string{"period": p.Name})

	return cache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]CategoryPerformance, error) {
		rows, err := s.exec.CategoryTotals(ctx, s.completed(p))
		if err != nil {
			return nil, fmt.Errorf("category totals: %w", err)
		}

		return RankCategories(rows), nil
	})
}
