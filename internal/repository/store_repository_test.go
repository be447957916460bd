package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var storeStatCols = []string{"id", "name", "email", "address", "owner_id", "created_at",
	"average_rating", "total_ratings", "total_rating_users"}

func TestListByOwnerWithStatsEmpty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStoreRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN ratings r ON r.store_id = s.id WHERE s.owner_id = ?")).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows(storeStatCols))

	stores, err := repo.ListByOwnerWithStats(context.Background(), 4)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if stores == nil || len(stores) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", stores)
	}
}

func TestListByOwnerWithStatsRows(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStoreRepo(db)

	now := time.Now().UTC()
	mock.ExpectQuery("FROM stores s").
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows(storeStatCols).
			AddRow(int64(2), "Corner Shop", "corner@shop.io", "2 Side St", int64(4), now, 4.0, int64(3), int64(3)).
			AddRow(int64(1), "Bakery", "bake@shop.io", "1 Main St", int64(4), now.Add(-time.Hour), 0.0, int64(0), int64(0)))

	stores, err := repo.ListByOwnerWithStats(context.Background(), 4)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stores) != 2 {
		t.Fatalf("len = %d", len(stores))
	}
	if stores[0].Name != "Corner Shop" || stores[0].AverageRating != 4.0 || stores[0].TotalRatings != 3 {
		t.Fatalf("first store = %+v", stores[0])
	}
	if stores[1].AverageRating != 0 || stores[1].TotalRatingUsers != 0 {
		t.Fatalf("unrated store = %+v", stores[1])
	}
}

func TestListByOwnerWithStatsQueryError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStoreRepo(db)

	boom := errors.New("boom")
	mock.ExpectQuery("FROM stores s").WillReturnError(boom)

	if _, err := repo.ListByOwnerWithStats(context.Background(), 4); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestRatingSummariesByOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStoreRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id, COALESCE(AVG(r.rating), 0)")).
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "average_rating", "total_ratings"}).
			AddRow(int64(1), 4.5, int64(2)).
			AddRow(int64(2), 4.666666, int64(3)).
			AddRow(int64(3), 0.0, int64(0)))

	got, err := repo.RatingSummariesByOwner(context.Background(), 9)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if len(got) != 3 || got[1].Count != 3 || got[2].Average != 0 {
		t.Fatalf("summaries = %+v", got)
	}
}
