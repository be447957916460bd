package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/store-rating-api/internal/model"
	"github.com/iliyamo/store-rating-api/internal/queue"
	"github.com/iliyamo/store-rating-api/internal/repository"
)

type fakeUsers struct {
	mu      sync.Mutex
	users   map[uint64]model.User
	nextID  uint64
	failAll error
	// raceOnCreate makes Create report a duplicate even though
	// ExistsByEmail said the email was free.
	raceOnCreate bool
}

func newFakeUsers() *fakeUsers { return &fakeUsers{users: map[uint64]model.User{}, nextID: 1} }

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	if f.raceOnCreate {
		return repository.ErrEmailExists
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrEmailExists
		}
	}
	u.ID = f.nextID
	u.CreatedAt = time.Now().UTC()
	f.nextID++
	f.users[u.ID] = *u
	return nil
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return model.User{}, f.failAll
	}
	for _, u := range f.users {
		if u.Email == repository.NormalizeEmail(email) {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return model.User{}, f.failAll
	}
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) delete(id uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

type fakeRevoker struct {
	mu       sync.Mutex
	revoked  map[string]time.Time
	err      error
	disabled bool
}

func (f *fakeRevoker) Enabled() bool { return !f.disabled }

func (f *fakeRevoker) Revoke(_ context.Context, id string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.revoked == nil {
		f.revoked = map[string]time.Time{}
	}
	f.revoked[id] = exp
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[id]
	return ok, nil
}

type fakePublisher struct{ events chan queue.AuthEvent }

func newFakePublisher() *fakePublisher { return &fakePublisher{events: make(chan queue.AuthEvent, 16)} }

func (f *fakePublisher) Publish(_ context.Context, ev queue.AuthEvent) error {
	f.events <- ev
	return nil
}

type fakeStores struct {
	stores    []model.StoreWithStats
	summaries []model.StoreRatingSummary
	err       error
	calls     int
}

func (f *fakeStores) ListByOwnerWithStats(context.Context, uint64) ([]model.StoreWithStats, error) {
	f.calls++
	if f.stores == nil {
		return []model.StoreWithStats{}, f.err
	}
	return f.stores, f.err
}

func (f *fakeStores) RatingSummariesByOwner(context.Context, uint64) ([]model.StoreRatingSummary, error) {
	f.calls++
	return f.summaries, f.err
}

type fakeRatings struct {
	ratings  []model.RatingDetail
	total    int64
	lastPage repository.Page
	lastUser uint64
}

func (f *fakeRatings) ListForOwner(_ context.Context, ownerID uint64, page repository.Page) ([]model.RatingDetail, error) {
	f.lastPage, f.lastUser = page, ownerID
	return f.ratings, nil
}

func (f *fakeRatings) CountForOwner(context.Context, uint64) (int64, error) { return f.total, nil }
