package handlers

import "github.com/serroba/trendmart-analytics/internal/analytics"

// OverviewResponse is the response for the analytics overview.
type OverviewResponse struct {
	Body analytics.Overview
}

// SalesTrendsRequest selects the look-back period of the daily series.
type SalesTrendsRequest struct {
	Period string `default:"30d" doc:"Time period (7d, 30d, 90d)" example:"7d" query:"period"`
}

// SalesTrendsResponse is one entry per calendar day in the period, oldest first.
type SalesTrendsResponse struct {
	Body []analytics.DailySales
}

// TopProductsRequest selects how many products to rank and over which period.
type TopProductsRequest struct {
	Limit  int    `default:"10" doc:"Number of top products to return" maximum:"50" minimum:"1" query:"limit"`
	Period string `doc:"Optional time period (7d, 30d, 90d); all time when empty" example:"30d" query:"period"`
}

// TopProductsResponse lists products by revenue, highest first.
type TopProductsResponse struct {
	Body []analytics.TopProduct
}

// CategoryPerformanceRequest selects the period of the category breakdown.
type CategoryPerformanceRequest struct {
	Period string `doc:"Optional time period (7d, 30d, 90d); all time when empty" example:"30d" query:"period"`
}

// CategoryPerformanceResponse lists categories by revenue, highest first.
type CategoryPerformanceResponse struct {
	Body []analytics.CategoryPerformance
}

// SimulateOrderRequest is the request for simulating a purchase.
type SimulateOrderRequest struct {
	ProductID int64 `doc:"ID of the product to order" example:"1" query:"product_id" required:"true"`
	Quantity  int   `doc:"Quantity of the product"    example:"2" minimum:"1"        query:"quantity" required:"true"`
}

// SimulateOrderResponse is the response for a simulated order.
type SimulateOrderResponse struct {
	Status int
	Body   struct {
		Message string `doc:"Outcome message"       example:"Order simulated successfully and inventory alert triggered." json:"message"`
		OrderID int64  `doc:"ID of the new order" example:"221"                                                         json:"order_id"`
	}
}

// InventoryAlertRequest is the alert accepted by the mock inventory service.
type InventoryAlertRequest struct {
	Body struct {
		ProductID    int64 `doc:"Product that sold"             json:"product_id"`
		QuantitySold int   `doc:"Units sold"                    json:"quantity_sold"`
		CurrentStock int   `doc:"Stock left after the sale" json:"current_stock"`
	}
}

// InventoryAlertResponse acknowledges an inventory alert.
type InventoryAlertResponse struct {
	Body struct {
		Status  string `example:"success"                                    json:"status"`
		Message string `example:"Inventory update received by mock service" json:"message"`
	}
}
