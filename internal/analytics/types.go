package analytics

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusCompleted OrderStatus = "completed"
	StatusPending   OrderStatus = "pending"
	StatusCancelled OrderStatus = "cancelled"
)

// Range is a closed time interval. A zero Range is unbounded.
type Range struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the range is unbounded.
func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether t falls inside the range, bounds included.
func (r Range) Contains(t time.Time) bool {
	if r.IsZero() {
		return true
	}

	return !t.Before(r.Start) && !t.After(r.End)
}

// Filter selects the orders an aggregation runs over.
type Filter struct {
	Status OrderStatus
	Range  Range
}

// Totals is the raw sum and count of matching orders.
type Totals struct {
	Revenue float64
	Orders  int64
}

// DayTotal is the raw revenue and order count of one calendar day.
type DayTotal struct {
	Day     time.Time
	Revenue float64
	Orders  int64
}

// ProductTotal is the raw revenue and units sold of one product.
type ProductTotal struct {
	ProductID int64
	Name      string
	Revenue   float64
	Units     int64
}

// CategoryTotal is the raw revenue and order count of one category. AvgPrice is
// the mean list price over the category's whole catalog, not weighted by sales.
type CategoryTotal struct {
	CategoryID int64
	Name       string
	Revenue    float64
	Orders     int64
	AvgPrice   float64
}

// Overview summarises completed orders over the last 30 days.
type Overview struct {
	TotalRevenue      float64 `doc:"Sum of completed order amounts"   json:"total_revenue"`
	TotalOrders       int64   `doc:"Number of completed orders"       json:"total_orders"`
	AverageOrderValue float64 `doc:"Revenue divided by order count"   json:"average_order_value"`
}

// DailySales is one day of a dense sales series.
type DailySales struct {
	Date    string  `doc:"Calendar day"      example:"2024-05-10" json:"date"`
	Revenue float64 `doc:"Revenue that day"                       json:"revenue"`
	Orders  int64   `doc:"Orders that day"                        json:"orders"`
}

// TopProduct is one row of the top products ranking.
type TopProduct struct {
	ProductID    int64   `json:"product_id"`
	Name         string  `json:"name"`
	TotalRevenue float64 `json:"total_revenue"`
	UnitsSold    int64   `json:"units_sold"`
}

// CategoryPerformance is one row of the category ranking.
type CategoryPerformance struct {
	CategoryName string  `json:"category_name"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalOrders  int64   `json:"total_orders"`
	AveragePrice float64 `doc:"Mean catalog price of the category" json:"average_price"`
}
