package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRepo keeps the ids of revoked access tokens in Redis.  Each entry
// expires with the token it revokes, so the list never outgrows the set of
// still-valid tokens.
type TokenRepo struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

// NewTokenRepo returns a TokenRepo, or nil when rdb is nil.  A nil
// *TokenRepo reports nothing as revoked and ignores revocations.
func NewTokenRepo(rdb *redis.Client) *TokenRepo {
	if rdb == nil {
		return nil
	}
	return &TokenRepo{rdb: rdb, prefix: "revoked", now: time.Now}
}

// Enabled reports whether revocations are recorded.  It is false for a nil
// *TokenRepo.
func (r *TokenRepo) Enabled() bool { return r != nil }

func (r *TokenRepo) key(tokenID string) string { return r.prefix + ":" + tokenID }

// Revoke marks tokenID as revoked until exp.  Tokens already past exp are
// not stored since verification rejects them anyway.
func (r *TokenRepo) Revoke(ctx context.Context, tokenID string, exp time.Time) error {
	if r == nil || tokenID == "" {
		return nil
	}
	ttl := exp.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.rdb.Set(ctx, r.key(tokenID), 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token %s: %w", tokenID, err)
	}
	return nil
}

// IsRevoked reports whether tokenID has been revoked.
func (r *TokenRepo) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r == nil || tokenID == "" {
		return false, nil
	}
	err := r.rdb.Get(ctx, r.key(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check token %s: %w", tokenID, err)
	}
	return true, nil
}
