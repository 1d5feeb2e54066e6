package store

import (
	"context"
	"sync"
	"time"

	"github.com/serroba/trendmart-analytics/internal/analytics"
	"github.com/serroba/trendmart-analytics/internal/orders"
	"github.com/shopspring/decimal"
)

// Category is a product grouping.
type Category struct {
	ID   int64
	Name string
}

// MemoryStore is an in-memory order data store implementing both
// analytics.QueryExecutor and orders.Repository. Every query runs under the
// read lock, so each sees a consistent snapshot.
type MemoryStore struct {
	mu          sync.RWMutex
	categories  map[int64]Category
	products    map[int64]orders.Product
	orders      []orders.Order
	nextOrderID int64
}

// NewMemoryStore creates an empty data store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		categories: make(map[int64]Category),
		products:   make(map[int64]orders.Product),
	}
}

// AddCategory inserts or replaces a category.
func (m *MemoryStore) AddCategory(c Category) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.categories[c.ID] = c
}

// AddProduct inserts or replaces a product.
func (m *MemoryStore) AddProduct(p orders.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products[p.ID] = p
}

// AddOrder appends an order as is. A zero ID is assigned the next sequence value.
func (m *MemoryStore) AddOrder(o orders.Order) orders.Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.appendOrder(o)
}

func (m *MemoryStore) appendOrder(o orders.Order) orders.Order {
	if o.ID == 0 {
		m.nextOrderID++
		o.ID = m.nextOrderID
	} else if o.ID > m.nextOrderID {
		m.nextOrderID = o.ID
	}

	m.orders = append(m.orders, o)

	return o
}

func (m *MemoryStore) GetProduct(_ context.Context, id int64) (orders.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return orders.Product{}, orders.ErrProductNotFound
	}

	return p, nil
}

func (m *MemoryStore) CreateOrder(_ context.Context, o *orders.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[o.ProductID]; !ok {
		return orders.ErrProductNotFound
	}

	o.ID = 0
	*o = m.appendOrder(*o)

	return nil
}

func matches(o orders.Order, f analytics.Filter) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}

	return f.Range.Contains(o.OrderDate)
}

func (m *MemoryStore) OrderTotals(_ context.Context, f analytics.Filter) (analytics.Totals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := decimal.Zero

	var n int64

	for _, o := range m.orders {
		if !matches(o, f) {
			continue
		}

		sum = sum.Add(decimal.NewFromFloat(o.TotalAmount))
		n++
	}

	return analytics.Totals{Revenue: sum.InexactFloat64(), Orders: n}, nil
}

func (m *MemoryStore) DailyTotals(_ context.Context, f analytics.Filter) ([]analytics.DayTotal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type acc struct {
		day    time.Time
		sum    decimal.Decimal
		orders int64
	}

	var days []*acc

	byDay := make(map[time.Time]*acc)

	for _, o := range m.orders {
		if !matches(o, f) {
			continue
		}

		d := o.OrderDate.UTC().Truncate(24 * time.Hour)

		a, ok := byDay[d]
		if !ok {
			a = &acc{day: d, sum: decimal.Zero}
			byDay[d] = a
			days = append(days, a)
		}

		a.sum = a.sum.Add(decimal.NewFromFloat(o.TotalAmount))
		a.orders++
	}

	out := make([]analytics.DayTotal, 0, len(days))
	for _, a := range days {
		out = append(out, analytics.DayTotal{Day: a.day, Revenue: a.sum.InexactFloat64(), Orders: a.orders})
	}

	return out, nil
}

func (m *MemoryStore) ProductTotals(_ context.Context, f analytics.Filter) ([]analytics.ProductTotal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type acc struct {
		id    int64
		sum   decimal.Decimal
		units int64
	}

	var seen []*acc

	byProduct := make(map[int64]*acc)

	for _, o := range m.orders {
		if !matches(o, f) {
			continue
		}

		a, ok := byProduct[o.ProductID]
		if !ok {
			a = &acc{id: o.ProductID, sum: decimal.Zero}
			byProduct[o.ProductID] = a
			seen = append(seen, a)
		}

		a.sum = a.sum.Add(decimal.NewFromFloat(o.TotalAmount))
		a.units += int64(o.Quantity)
	}

	out := make([]analytics.ProductTotal, 0, len(seen))
	for _, a := range seen {
		out = append(out, analytics.ProductTotal{
			ProductID: a.id,
			Name:      m.products[a.id].Name,
			Revenue:   a.sum.InexactFloat64(),
			Units:     a.units,
		})
	}

	return out, nil
}

func (m *MemoryStore) CategoryTotals(_ context.Context, f analytics.Filter) ([]analytics.CategoryTotal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type acc struct {
		id     int64
		sum    decimal.Decimal
		orders int64
	}

	var seen []*acc

	byCategory := make(map[int64]*acc)

	for _, o := range m.orders {
		if !matches(o, f) {
			continue
		}

		p, ok := m.products[o.ProductID]
		if !ok {
			continue
		}

		a, ok := byCategory[p.CategoryID]
		if !ok {
			a = &acc{id: p.CategoryID, sum: decimal.Zero}
			byCategory[p.CategoryID] = a
			seen = append(seen, a)
		}

		a.sum = a.sum.Add(decimal.NewFromFloat(o.TotalAmount))
		a.orders++
	}

	out := make([]analytics.CategoryTotal, 0, len(seen))
	for _, a := range seen {
		out = append(out, analytics.CategoryTotal{
			CategoryID: a.id,
			Name:       m.categories[a.id].Name,
			Revenue:    a.sum.InexactFloat64(),
			Orders:     a.orders,
			AvgPrice:   m.catalogAvgPrice(a.id),
		})
	}

	return out, nil
}

// catalogAvgPrice averages the price of every product in the category,
// whether or not it sold. Callers hold the read lock.
func (m *MemoryStore) catalogAvgPrice(categoryID int64) float64 {
	sum := decimal.Zero

	var n int64

	for _, p := range m.products {
		if p.CategoryID != categoryID {
			continue
		}

		sum = sum.Add(decimal.NewFromFloat(p.Price))
		n++
	}

	if n == 0 {
		return 0
	}

	return sum.Div(decimal.NewFromInt(n)).InexactFloat64()
}

// Compile-time checks.
var (
	_ analytics.QueryExecutor = (*MemoryStore)(nil)
	_ orders.Repository       = (*MemoryStore)(nil)
)
