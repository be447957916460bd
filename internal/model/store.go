package model

import "time"

// Store represents a row in the `stores` table.  Each store belongs to one
// user with the store_owner role.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – store name.
//  Email     – contact email of the store.
//  Address   – postal address.
//  OwnerID   – users.id of the owner.
//  CreatedAt – timestamp when the store was created.
type Store struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	OwnerID   uint64    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// StoreWithStats is a store joined with the aggregate of its ratings.
// AverageRating is rounded to two decimals and is 0 when the store has no
// ratings.
type StoreWithStats struct {
	Store
	AverageRating    float64 `json:"average_rating"`
	TotalRatings     int64   `json:"total_ratings"`
	TotalRatingUsers int64   `json:"total_rating_users"`
}
