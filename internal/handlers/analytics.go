package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/trendmart-analytics/internal/analytics"
	"go.uber.org/zap"
)

// AnalyticsService computes the cached aggregations.
type AnalyticsService interface {
	Overview(ctx context.Context) (analytics.Overview, error)
	SalesTrends(ctx context.Context, p analytics.Period) ([]analytics.DailySales, error)
	TopProducts(ctx context.Context, limit int, p analytics.Period) ([]analytics.TopProduct, error)
	CategoryPerformance(ctx context.Context, p analytics.Period) ([]analytics.CategoryPerformance, error)
}

// AnalyticsHandler serves the analytics endpoints.
type AnalyticsHandler struct {
	service AnalyticsService
	logger  *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(service AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, logger: logger}
}

func (h *AnalyticsHandler) Overview(ctx context.Context, _ *struct{}) (*OverviewResponse, error) {
	overview, err := h.service.Overview(ctx)
	if err != nil {
		return nil, h.queryFailed(ctx, "overview", err)
	}

	return &OverviewResponse{Body: overview}, nil
}

func (h *AnalyticsHandler) SalesTrends(ctx context.Context, req *SalesTrendsRequest) (*SalesTrendsResponse, error) {
	name := req.Period
	if name == "" {
		name = "30d"
	}

	period, err := analytics.ParsePeriod(name)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid period. Must be '7d', '30d', or '90d'.")
	}

	days, err := h.service.SalesTrends(ctx, period)
	if err != nil {
		return nil, h.queryFailed(ctx, "sales trends", err)
	}

	return &SalesTrendsResponse{Body: days}, nil
}

func (h *AnalyticsHandler) TopProducts(ctx context.Context, req *TopProductsRequest) (*TopProductsResponse, error) {
	period, err := analytics.ParsePeriod(req.Period)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid period. Must be '7d', '30d', or '90d'.")
	}

	products, err := h.service.TopProducts(ctx, req.Limit, period)
	if err != nil {
		return nil, h.queryFailed(ctx, "top products", err)
	}

	return &TopProductsResponse{Body: products}, nil
}

func (h *AnalyticsHandler) CategoryPerformance(
	ctx context.Context, req *CategoryPerformanceRequest,
) (*CategoryPerformanceResponse, error) {
	period, err := analytics.ParsePeriod(req.Period)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid period. Must be '7d', '30d', or '90d'.")
	}

	categories, err := h.service.CategoryPerformance(ctx, period)
	if err != nil {
		return nil, h.queryFailed(ctx, "category performance", err)
	}

	return &CategoryPerformanceResponse{Body: categories}, nil
}

func (h *AnalyticsHandler) queryFailed(ctx context.Context, what string, err error) error {
	if errors.Is(err, context.Canceled) {
		return huma.Error503ServiceUnavailable("request cancelled")
	}

	h.logger.Error("analytics query failed",
		zap.String("query", what),
		zap.String("requestId", RequestMetaFromContext(ctx).RequestID),
		zap.Error(err),
	)

	return huma.Error500InternalServerError("failed to compute " + what)
}
