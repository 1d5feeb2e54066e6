package notify

import "time"

// Payload is the inventory alert sent downstream after an order is written.
type Payload struct {
	ProductID    int64 `json:"product_id"`
	QuantitySold int   `json:"quantity_sold"`
	CurrentStock int   `json:"current_stock"`
}

// FailedAlert is an alert whose delivery was exhausted, handed to the fallback.
type FailedAlert struct {
	Payload  Payload   `json:"payload"`
	Attempts int       `json:"attempts"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failedAt"`
}
