// Package models holds the canonical order schema every upstream source is
// normalized into, plus the persisted completion record.
package models

import "time"

// LineItem is a single line of an order as shown on the display.
type LineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Variant  string `json:"variant,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// Order is the canonical shape shared by all sources. Orders are never
// persisted; they are rebuilt from the upstreams on every fetch, and
// Completed is derived from the completion set at merge time.
type Order struct {
	ID          string            `json:"id"`
	Source      string            `json:"source"`
	OrderNumber string            `json:"orderNumber"`
	CreatedAt   time.Time         `json:"createdAt"`
	Items       []LineItem        `json:"items"`
	Completed   bool              `json:"completed"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// CompletionRecord is the one fact this system persists: which order ids
// staff have marked done. At most one record exists per order id.
type CompletionRecord struct {
	OrderID     string    `json:"orderId"`
	CompletedAt time.Time `json:"completedAt"`
}
