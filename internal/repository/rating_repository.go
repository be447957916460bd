package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/store-rating-api/internal/model"
)

// RatingRepo reads ratings joined with their raters and stores.
type RatingRepo struct{ db *sql.DB }

func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

// Page bounds a listing.  The zero value means no bound.
type Page struct {
	Limit  int
	Offset int
}

// ListForOwner returns ratings of all stores owned by ownerID, newest
// first.  The result is never nil.
func (r *RatingRepo) ListForOwner(ctx context.Context, ownerID uint64, page Page) ([]model.RatingDetail, error) {
	q := `
		SELECT r.id, r.rating, r.review, r.user_id, r.store_id, r.created_at, r.updated_at,
		       u.name, u.email, s.name
		FROM ratings r
		JOIN users u ON u.id = r.user_id
		JOIN stores s ON s.id = r.store_id
		WHERE s.owner_id = ?
		ORDER BY r.created_at DESC, r.id DESC`
	args := []any{ownerID}
	if page.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, page.Limit, page.Offset)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list ratings for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	out := make([]model.RatingDetail, 0)
	for rows.Next() {
		var (
			d      model.RatingDetail
			review sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Rating.Rating, &review, &d.UserID, &d.StoreID, &d.CreatedAt, &d.UpdatedAt,
			&d.UserName, &d.UserEmail, &d.StoreName); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		if review.Valid {
			d.Review = &review.String
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return out, nil
}

// CountForOwner counts ratings of all stores owned by ownerID.
func (r *RatingRepo) CountForOwner(ctx context.Context, ownerID uint64) (int64, error) {
	const q = `
		SELECT COUNT(*)
		FROM ratings r
		JOIN stores s ON s.id = r.store_id
		WHERE s.owner_id = ?`
	var n int64
	if err := r.db.QueryRowContext(ctx, q, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ratings for owner %d: %w", ownerID, err)
	}
	return n, nil
}
