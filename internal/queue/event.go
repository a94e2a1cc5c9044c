// Package queue defines message payloads exchanged over the message broker
// and the consumer that processes them.
package queue

import (
	"time"

	"github.com/iliyamo/gameforge-studio/internal/model"
)

// PurchaseQueue is the durable queue purchase events are routed to.
const PurchaseQueue = "purchase.completed"

// PurchaseCompletedEvent is published after a purchase is recorded with
// status completed. Exactly one of AssetID and BundleID is set.
type PurchaseCompletedEvent struct {
	PurchaseID  string `json:"purchase_id"`
	UserID      string `json:"user_id"`
	AssetID     string `json:"asset_id,omitempty"`
	BundleID    string `json:"bundle_id,omitempty"`
	PriceCents  int    `json:"price_cents"`
	CompletedAt string `json:"completed_at"`
}

// NewPurchaseCompletedEvent describes p.
func NewPurchaseCompletedEvent(p model.Purchase) PurchaseCompletedEvent {
	ev := PurchaseCompletedEvent{
		PurchaseID:  p.ID,
		UserID:      p.UserID,
		PriceCents:  p.Price,
		CompletedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.AssetID != nil {
		ev.AssetID = *p.AssetID
	}
	if p.BundleID != nil {
		ev.BundleID = *p.BundleID
	}
	return ev
}
