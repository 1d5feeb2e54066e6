package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/serroba/trendmart-analytics/internal/analytics"
	"github.com/serroba/trendmart-analytics/internal/clock"
	"github.com/serroba/trendmart-analytics/internal/notify"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service simulates purchases.
type Service struct {
	repo     Repository
	notifier Notifier
	clock    clock.Clock
	logger   *zap.Logger
}

// NewService creates an order service.
func NewService(repo Repository, notifier Notifier, clk clock.Clock, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		clock:    clk,
		logger:   logger,
	}
}

// Simulate records a completed order for quantity units of a product, then
// sends an inventory alert. Stock is checked but not decremented, so the alert
// reports the stock the product would have left. The alert outcome never
// changes the result: once the order is committed, Simulate succeeds.
func (s *Service) Simulate(ctx context.Context, productID int64, quantity int) (Order, error) {
	if quantity <= 0 {
		return Order{}, ErrInvalidQuantity
	}

	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return Order{}, err
		}

		return Order{}, fmt.Errorf("get product %d: %w", productID, err)
	}

	if product.Stock < quantity {
		return Order{}, &StockError{
			ProductName: product.Name,
			Available:   product.Stock,
			Requested:   quantity,
		}
	}

	total, _ := decimal.NewFromFloat(product.Price).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).
		Float64()

	order := Order{
		ProductID:   product.ID,
		Quantity:    quantity,
		TotalAmount: total,
		Status:      analytics.StatusCompleted,
		OrderDate:   s.clock.Now().UTC(),
	}

	if err := s.repo.CreateOrder(ctx, &order); err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order simulated",
		zap.Int64("orderId", order.ID),
		zap.Int64("productId", product.ID),
		zap.Int("quantity", quantity),
		zap.Float64("total", total),
	)

	res := s.notifier.Dispatch(ctx, notify.Payload{
		ProductID:    product.ID,
		QuantitySold: quantity,
		CurrentStock: product.Stock - quantity,
	})

	if res.Outcome != notify.Sent {
		s.logger.Warn("order committed without inventory alert",
			zap.Int64("orderId", order.ID),
			zap.Int("attempts", res.Attempts),
		)
	}

	return order, nil
}
