package model

import "math"

// StoreRatingSummary is the unrounded average and count of one store's
// ratings.
type StoreRatingSummary struct {
	StoreID uint64
	Average float64
	Count   int64
}

// DashboardStats is the owner dashboard payload.
type DashboardStats struct {
	AverageRating float64 `json:"averageRating"`
	TotalRatings  int64   `json:"totalRatings"`
	StoreCount    int     `json:"storeCount"`
}

// Summarize folds per-store summaries into dashboard statistics.  The
// overall average is weighted by each store's rating count and is 0 when no
// store has ratings.  Stores without ratings still count towards StoreCount.
func Summarize(stores []StoreRatingSummary) DashboardStats {
	var (
		weighted float64
		total    int64
	)
	for _, s := range stores {
		if s.Count <= 0 {
			continue
		}
		weighted += s.Average * float64(s.Count)
		total += s.Count
	}
	out := DashboardStats{TotalRatings: total, StoreCount: len(stores)}
	if total > 0 {
		out.AverageRating = Round2(weighted / float64(total))
	}
	return out
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
