package analytics

import (
	"slices"
	"time"
)

// BuildOverview turns raw totals into the presented overview.
func BuildOverview(t Totals) Overview {
	return Overview{
		TotalRevenue:      Round2(t.Revenue),
		TotalOrders:       t.Orders,
		AverageOrderValue: Round2(Average(t.Revenue, t.Orders)),
	}
}

// DenseDaily returns one entry per calendar day from start to end inclusive, in
// ascending order. Days without a row get zero revenue and orders. Calendar days
// are taken in start's location.
func DenseDaily(start, end time.Time, rows []DayTotal) []DailySales {
	loc := start.Location()

	byDay := make(map[string]DayTotal, len(rows))
	for _, r := range rows {
		byDay[r.Day.In(loc).Format(time.DateOnly)] = r
	}

	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	end = end.In(loc)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)

	days := int(last.Sub(first).Hours()/24) + 1
	if days < 0 {
		days = 0
	}

	out := make([]DailySales, 0, days)

	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		r := byDay[key]

		out = append(out, DailySales{
			Date:    key,
			Revenue: Round2(r.Revenue),
			Orders:  r.Orders,
		})
	}

	return out
}

// RankProducts sorts products by revenue, highest first, and keeps the first n.
// Products with equal revenue keep their input order.
func RankProducts(rows []ProductTotal, n int) []TopProduct {
	ranked := slices.Clone(rows)
	slices.SortStableFunc(ranked, func(a, b ProductTotal) int {
		return compareDesc(a.Revenue, b.Revenue)
	})

	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}

	out := make([]TopProduct, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, TopProduct{
			ProductID:    r.ProductID,
			Name:         r.Name,
			TotalRevenue: Round2(r.Revenue),
			UnitsSold:    r.Units,
		})
	}

	return out
}

// RankCategories sorts categories by revenue, highest first, keeping input order on ties.
func RankCategories(rows []CategoryTotal) []CategoryPerformance {
	ranked := slices.Clone(rows)
	slices.SortStableFunc(ranked, func(a, b CategoryTotal) int {
		return compareDesc(a.Revenue, b.Revenue)
	})

	out := make([]CategoryPerformance, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, CategoryPerformance{
			CategoryName: r.Name,
			TotalRevenue: Round2(r.Revenue),
			TotalOrders:  r.Orders,
			AveragePrice: Round2(r.AvgPrice),
		})
	}

	return out
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
