package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/trendmart-analytics/internal/ratelimit"
)

// RegisterRoutes registers the analytics, order and mock inventory routes.
// Only the overview carries rate limit metadata.
func RegisterRoutes(
	api huma.API,
	analyticsHandler *AnalyticsHandler,
	orderHandler *OrderHandler,
	inventoryHandler *MockInventoryHandler,
) {
	huma.Register(api, huma.Operation{
		OperationID: "analytics-overview",
		Method:      http.MethodGet,
		Path:        "/api/analytics/overview",
		Summary:     "Analytics overview",
		Description: "Total revenue, order count and average order value of completed orders in the last 30 days.",
		Tags:        []string{"Analytics"},
		Metadata: map[string]any{
			ratelimit.MetadataKey: ratelimit.EndpointConfig{},
		},
	}, analyticsHandler.Overview)

	huma.Register(api, huma.Operation{
		OperationID: "analytics-sales-trends",
		Method:      http.MethodGet,
		Path:        "/api/analytics/sales-trends",
		Summary:     "Daily sales",
		Description: "Revenue and order count per calendar day, with zero-filled days.",
		Tags:        []string{"Analytics"},
	}, analyticsHandler.SalesTrends)

	huma.Register(api, huma.Operation{
		OperationID: "analytics-top-products",
		Method:      http.MethodGet,
		Path:        "/api/analytics/top-products",
		Summary:     "Top products",
		Description: "Products ranked by revenue from completed orders.",
		Tags:        []string{"Analytics"},
	}, analyticsHandler.TopProducts)

	huma.Register(api, huma.Operation{
		OperationID: "analytics-category-performance",
		Method:      http.MethodGet,
		Path:        "/api/analytics/category-performance",
		Summary:     "Category performance",
		Description: "Revenue, order count and average catalog price per category.",
		Tags:        []string{"Analytics"},
	}, analyticsHandler.CategoryPerformance)

	huma.Register(api, huma.Operation{
		OperationID:   "orders-simulate",
		Method:        http.MethodPost,
		Path:          "/api/orders/simulate",
		Summary:       "Simulate order",
		Description:   "Records a completed order and sends an inventory alert downstream.",
		Tags:          []string{"Orders"},
		DefaultStatus: http.StatusCreated,
	}, orderHandler.Simulate)

	huma.Register(api, huma.Operation{
		OperationID: "mock-inventory-alert",
		Method:      http.MethodPost,
		Path:        "/mock-inventory-alert",
		Summary:     "Mock inventory service",
		Tags:        []string{"Mock"},
	}, inventoryHandler.Alert)
}
