package models

import "time"

// Event types
const (
	EventTypeProductImported   = "PRODUCT_IMPORTED"
	EventTypeStockUpdated      = "STOCK_UPDATED"
	EventTypeProductDeleted    = "PRODUCT_DELETED"
	EventTypeProductNormalized = "PRODUCT_NORMALIZED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductImportedEvent published by the vendor importer after raw data is stored
type ProductImportedEvent struct {
	BaseEvent
	ProductID int64  `json:"product_id"`
	Code      string `json:"code"`
}

// StockUpdatedEvent published when store quantities or prices change
type StockUpdatedEvent struct {
	BaseEvent
	ProductID int64 `json:"product_id"`
}

// ProductDeletedEvent requests a hard delete of a product
type ProductDeletedEvent struct {
	BaseEvent
	ProductID int64 `json:"product_id"`
}

// ProductNormalizedEvent published when a product has been fully processed
type ProductNormalizedEvent struct {
	BaseEvent
	ProductID  int64   `json:"product_id"`
	Code       string  `json:"code"`
	Price      float64 `json:"price"`
	PromoPrice float64 `json:"promo_price"`
	InStock    bool    `json:"in_stock"`
	Active     bool    `json:"active"`
}
