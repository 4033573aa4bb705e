package service

import (
	"context"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/infra"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/worker"
)

// EmailQueue is satisfied by *worker.Dispatcher.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, payload worker.EmailJobPayload) error
}

// OrderEventPublisher is satisfied by *infra.EventPublisher.
type OrderEventPublisher interface {
	Enabled() bool
	PublishOrderPlaced(ctx context.Context, ev infra.OrderPlacedEvent) error
}

// CatalogClient is satisfied by *infra.EbayClient.
type CatalogClient interface {
	Search(ctx context.Context, q infra.CatalogSearch) ([]infra.CatalogItem, error)
	GetItem(ctx context.Context, id string) (*infra.CatalogItem, error)
}

// CatalogCache is satisfied by *infra.JSONCache.
type CatalogCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, v interface{}) error
	Invalidate(ctx context.Context, prefix string) error
}
