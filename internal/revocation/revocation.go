// Package revocation tracks access tokens that were invalidated before their expiry.
package revocation

import (
	"context"
	"time"
)

// Store records revoked token ids until the token would have expired anyway.
type Store interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Noop is used when no revocation backend is configured: logout then only clears cookies
// and the stored refresh token.
type Noop struct{}

func (Noop) Revoke(context.Context, string, time.Time) error    { return nil }
func (Noop) IsRevoked(context.Context, string) (bool, error) { return false, nil }
