// Package ports defines the storage contract for rate limit counters.
package ports

import (
	"context"
	"time"

	"id-recon/internal/ratelimit/models"
)

// BucketStore counts requests per key inside a window.
type BucketStore interface {
	// Allow consumes one request from the key's budget when it has room.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}
