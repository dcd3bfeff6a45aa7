// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them in the audit log.
package queue

import "time"

// Queue names. Each is a durable queue on the default exchange.
const (
	ProductChangedQueue      = "product.changed"
	SubscriptionUpdatedQueue = "subscription.updated"
)

// Product change actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ProductChangedEvent is published after a pharmacy creates, edits or
// removes a product.
type ProductChangedEvent struct {
	ProductID uint64    `json:"product_id"`
	OwnerID   uint64    `json:"pharmacy_owner_id"`
	Name      string    `json:"name,omitempty"`
	Category  string    `json:"category,omitempty"`
	Action    string    `json:"action"`
	At        time.Time `json:"at"`
}

// SubscriptionUpdatedEvent is published when a pharmacy changes plan.
type SubscriptionUpdatedEvent struct {
	PharmacyID uint64     `json:"pharmacy_owner_id"`
	UserID     uint64     `json:"user_id"`
	PlanType   string     `json:"plan_type"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	At         time.Time  `json:"at"`
}
