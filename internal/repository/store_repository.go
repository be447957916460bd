// Package repository contains data access logic separated from HTTP handlers.
// This file holds the read-only store queries used by the store-owner API.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/store-rating-api/internal/model"
)

// StoreRepo encapsulates the aggregate queries over stores and their
// ratings.  It depends on a sql.DB connection which should be configured
// elsewhere.
type StoreRepo struct {
	db *sql.DB
}

// NewStoreRepo constructs a StoreRepo with the provided DB handle.
func NewStoreRepo(db *sql.DB) *StoreRepo {
	return &StoreRepo{db: db}
}

// ListByOwnerWithStats returns every store owned by ownerID with its rating
// aggregates, newest store first.  Stores without ratings report an average
// of 0.  The result is never nil.
func (r *StoreRepo) ListByOwnerWithStats(ctx context.Context, ownerID uint64) ([]model.StoreWithStats, error) {
	const q = `
		SELECT s.id, s.name, s.email, s.address, s.owner_id, s.created_at,
		       ROUND(COALESCE(AVG(r.rating), 0), 2) AS average_rating,
		       COUNT(r.id) AS total_ratings,
		       COUNT(DISTINCT r.user_id) AS total_rating_users
		FROM stores s
		LEFT JOIN ratings r ON r.store_id = s.id
		WHERE s.owner_id = ?
		GROUP BY s.id, s.name, s.email, s.address, s.owner_id, s.created_at
		ORDER BY s.created_at DESC, s.id DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list stores for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	out := make([]model.StoreWithStats, 0)
	for rows.Next() {
		var s model.StoreWithStats
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Address, &s.OwnerID, &s.CreatedAt,
			&s.AverageRating, &s.TotalRatings, &s.TotalRatingUsers); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stores: %w", err)
	}
	return out, nil
}

// RatingSummariesByOwner returns the unrounded average and count of ratings
// for each store owned by ownerID, including stores with no ratings.
func (r *StoreRepo) RatingSummariesByOwner(ctx context.Context, ownerID uint64) ([]model.StoreRatingSummary, error) {
	const q = `
		SELECT s.id, COALESCE(AVG(r.rating), 0) AS average_rating, COUNT(r.id) AS total_ratings
		FROM stores s
		LEFT JOIN ratings r ON r.store_id = s.id
		WHERE s.owner_id = ?
		GROUP BY s.id`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("summarize stores for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	var out []model.StoreRatingSummary
	for rows.Next() {
		var s model.StoreRatingSummary
		if err := rows.Scan(&s.StoreID, &s.Average, &s.Count); err != nil {
			return nil, fmt.Errorf("scan store summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate store summaries: %w", err)
	}
	return out, nil
}
