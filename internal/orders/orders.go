package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/trendmart-analytics/internal/analytics"
	"github.com/serroba/trendmart-analytics/internal/notify"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("not enough stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// StockError reports a request for more units than a product has.
type StockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("Not enough stock for product %s. Available: %d, Requested: %d",
		e.ProductName, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}

type Product struct {
	ID         int64
	Name       string
	CategoryID int64
	Price      float64
	Stock      int
}

type Order struct {
	ID          int64
	ProductID   int64
	Quantity    int
	TotalAmount float64
	Status      analytics.OrderStatus
	OrderDate   time.Time
}

// Repository reads products and persists orders.
type Repository interface {
	// GetProduct returns ErrProductNotFound when id does not exist.
	GetProduct(ctx context.Context, id int64) (Product, error)
	// CreateOrder commits o and sets its ID.
	CreateOrder(ctx context.Context, o *Order) error
}

// Notifier delivers the inventory alert for a committed order.
type Notifier interface {
	Dispatch(ctx context.Context, p notify.Payload) notify.Result
}
