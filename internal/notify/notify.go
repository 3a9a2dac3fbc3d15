// Package notify publishes document lifecycle events for the external
// notification service to deliver to connected clients.
package notify

import (
	"context"

	"docqa/internal/model"
)

// StatusEvent is emitted once per terminal status transition.
type StatusEvent struct {
	DocumentID string               `json:"document_id"`
	OwnerID    string               `json:"owner_id"`
	Status     model.DocumentStatus `json:"status"`
}

// StatusNotifier is the document-status sink consumed by the ingestion
// pipeline. Implementations must be safe for concurrent use.
type StatusNotifier interface {
	NotifyStatus(ctx context.Context, event StatusEvent) error
}

// NopNotifier discards events. Useful when no broker is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyStatus(context.Context, StatusEvent) error { return nil }
