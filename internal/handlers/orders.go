package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/trendmart-analytics/internal/orders"
	"go.uber.org/zap"
)

const orderSimulatedMessage = "Order simulated successfully and inventory alert triggered."

// OrderSimulator records simulated purchases.
type OrderSimulator interface {
	Simulate(ctx context.Context, productID int64, quantity int) (orders.Order, error)
}

// OrderHandler serves the order simulation endpoint.
type OrderHandler struct {
	orders OrderSimulator
	logger *zap.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders OrderSimulator, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

func (h *OrderHandler) Simulate(ctx context.Context, req *SimulateOrderRequest) (*SimulateOrderResponse, error) {
	order, err := h.orders.Simulate(ctx, req.ProductID, req.Quantity)
	if err != nil {
		var stockErr *orders.StockError

		switch {
		case errors.Is(err, orders.ErrProductNotFound):
			return nil, huma.Error404NotFound("Product not found")
		case errors.As(err, &stockErr):
			return nil, huma.Error400BadRequest(stockErr.Error())
		case errors.Is(err, orders.ErrInvalidQuantity):
			return nil, huma.Error400BadRequest(err.Error())
		}

		h.logger.Error("order simulation failed",
			zap.Int64("productId", req.ProductID),
			zap.String("requestId", RequestMetaFromContext(ctx).RequestID),
			zap.Error(err),
		)

		return nil, huma.Error500InternalServerError("failed to simulate order")
	}

	resp := &SimulateOrderResponse{Status: http.StatusCreated}
	resp.Body.Message = orderSimulatedMessage
	resp.Body.OrderID = order.ID

	return resp, nil
}
