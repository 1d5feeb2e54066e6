package handlers

import (
	"context"

	"go.uber.org/zap"
)

// MockInventoryHandler stands in for the downstream inventory service and
// accepts every alert.
type MockInventoryHandler struct {
	logger *zap.Logger
}

// NewMockInventoryHandler creates a new mock inventory handler.
func NewMockInventoryHandler(logger *zap.Logger) *MockInventoryHandler {
	return &MockInventoryHandler{logger: logger}
}

func (h *MockInventoryHandler) Alert(_ context.Context, req *InventoryAlertRequest) (*InventoryAlertResponse, error) {
	h.logger.Info("mock inventory service received alert",
		zap.Int64("productId", req.Body.ProductID),
		zap.Int("quantitySold", req.Body.QuantitySold),
		zap.Int("currentStock", req.Body.CurrentStock),
	)

	resp := &InventoryAlertResponse{}
	resp.Body.Status = "success"
	resp.Body.Message = "Inventory update received by mock service"

	return resp, nil
}
