package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/trendmart-analytics/internal/analytics"
	"github.com/serroba/trendmart-analytics/internal/orders"
)

//go:embed schema.sql
var schemaSQL string

// PostgresStore is a PostgreSQL implementation of analytics.QueryExecutor and
// orders.Repository. Each aggregate is a single statement, so it reads one snapshot.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed data store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the tables if they do not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	return nil
}

// where renders the filter as a WHERE clause over the orders alias o.
func where(f analytics.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("o.status = $%d", len(args)))
	}

	if !f.Range.IsZero() {
		args = append(args, f.Range.Start, f.Range.End)
		conds = append(conds, fmt.Sprintf("o.order_date BETWEEN $%d AND $%d", len(args)-1, len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func (p *PostgresStore) OrderTotals(ctx context.Context, f analytics.Filter) (analytics.Totals, error) {
	cond, args := where(f)
	query := `
		SELECT COALESCE(SUM(o.total_amount), 0)::float8, COUNT(*)
		FROM orders o
		` + cond

	var t analytics.Totals

	if err := p.pool.QueryRow(ctx, query, args...).Scan(&t.Revenue, &t.Orders); err != nil {
		return analytics.Totals{}, fmt.Errorf("order totals: %w", err)
	}

	return t, nil
}

func (p *PostgresStore) DailyTotals(ctx context.Context, f analytics.Filter) ([]analytics.DayTotal, error) {
	cond, args := where(f)
	query := `
		SELECT date_trunc('day', o.order_date AT TIME ZONE 'UTC') AS day,
		       SUM(o.total_amount)::float8,
		       COUNT(*)
		FROM orders o
		` + cond + `
		GROUP BY day
		ORDER BY day
	`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.DayTotal, error) {
		var (
			d   analytics.DayTotal
			day time.Time
		)

		err := row.Scan(&day, &d.Revenue, &d.Orders)
		d.Day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}

	return out, nil
}

func (p *PostgresStore) ProductTotals(ctx context.Context, f analytics.Filter) ([]analytics.ProductTotal, error) {
	cond, args := where(f)
	query := `
		SELECT pr.id, pr.name, SUM(o.total_amount)::float8, SUM(o.quantity)
		FROM orders o
		JOIN products pr ON pr.id = o.product_id
		` + cond + `
		GROUP BY pr.id, pr.name
		ORDER BY MIN(o.id)
	`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("product totals: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.ProductTotal, error) {
		var t analytics.ProductTotal
		err := row.Scan(&t.ProductID, &t.Name, &t.Revenue, &t.Units)

		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("product totals: %w", err)
	}

	return out, nil
}

func (p *PostgresStore) CategoryTotals(ctx context.Context, f analytics.Filter) ([]analytics.CategoryTotal, error) {
	cond, args := where(f)
	query := `
		SELECT c.id, c.name,
		       SUM(o.total_amount)::float8,
		       COUNT(o.id),
		       (SELECT COALESCE(AVG(cp.price), 0)::float8 FROM products cp WHERE cp.category_id = c.id)
		FROM orders o
		JOIN products pr ON pr.id = o.product_id
		JOIN categories c ON c.id = pr.category_id
		` + cond + `
		GROUP BY c.id, c.name
		ORDER BY MIN(o.id)
	`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.CategoryTotal, error) {
		var t analytics.CategoryTotal
		err := row.Scan(&t.CategoryID, &t.Name, &t.Revenue, &t.Orders, &t.AvgPrice)

		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}

	return out, nil
}

func (p *PostgresStore) GetProduct(ctx context.Context, id int64) (orders.Product, error) {
	query := `
		SELECT id, name, category_id, price::float8, stock
		FROM products
		WHERE id = $1
	`

	var pr orders.Product

	err := p.pool.QueryRow(ctx, query, id).Scan(&pr.ID, &pr.Name, &pr.CategoryID, &pr.Price, &pr.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orders.Product{}, orders.ErrProductNotFound
		}

		return orders.Product{}, err
	}

	return pr, nil
}

func (p *PostgresStore) CreateOrder(ctx context.Context, o *orders.Order) error {
	query := `
		INSERT INTO orders (product_id, quantity, total_amount, status, order_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	return p.pool.QueryRow(ctx, query,
		o.ProductID,
		o.Quantity,
		o.TotalAmount,
		string(o.Status),
		o.OrderDate,
	).Scan(&o.ID)
}

// CreateCategory inserts a category and returns its id.
func (p *PostgresStore) CreateCategory(ctx context.Context, name string) (int64, error) {
	var id int64

	err := p.pool.QueryRow(ctx, `INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&id)

	return id, err
}

// CreateProduct inserts a product and sets its ID.
func (p *PostgresStore) CreateProduct(ctx context.Context, pr *orders.Product) error {
	query := `
		INSERT INTO products (name, category_id, price, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	return p.pool.QueryRow(ctx, query, pr.Name, pr.CategoryID, pr.Price, pr.Stock).Scan(&pr.ID)
}

// Ping checks connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Compile-time checks.
var (
	_ analytics.QueryExecutor = (*PostgresStore)(nil)
	_ orders.Repository       = (*PostgresStore)(nil)
)
