package model

import "time"

// Rating models an entry in the `ratings` table.  A user rates a store at
// most once; the pair (user_id, store_id) is unique.
type Rating struct {
	ID        uint64    `json:"id"`
	Rating    int       `json:"rating"`
	Review    *string   `json:"review"`
	UserID    uint64    `json:"user_id"`
	StoreID   uint64    `json:"store_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingDetail is a rating joined with the rater and the rated store, as
// listed to store owners.
type RatingDetail struct {
	Rating
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	StoreName string `json:"store_name"`
}
