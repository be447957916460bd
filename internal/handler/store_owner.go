package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/store-rating-api/internal/middleware"
	"github.com/iliyamo/store-rating-api/internal/model"
	"github.com/iliyamo/store-rating-api/internal/repository"
	"github.com/iliyamo/store-rating-api/internal/utils"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// OwnedStores reads the stores of one owner.  *repository.StoreRepo
// implements it.
type OwnedStores interface {
	ListByOwnerWithStats(ctx context.Context, ownerID uint64) ([]model.StoreWithStats, error)
	RatingSummariesByOwner(ctx context.Context, ownerID uint64) ([]model.StoreRatingSummary, error)
}

// OwnedRatings reads the ratings left on one owner's stores.
// *repository.RatingRepo implements it.
type OwnedRatings interface {
	ListForOwner(ctx context.Context, ownerID uint64, page repository.Page) ([]model.RatingDetail, error)
	CountForOwner(ctx context.Context, ownerID uint64) (int64, error)
}

// StoreOwnerHandler serves the read-only /store-owner endpoints.  Every
// route runs behind JWTAuth and RequireRole, so the caller id is always set.
type StoreOwnerHandler struct {
	Stores  OwnedStores
	Ratings OwnedRatings
	Log     *zap.Logger
}

func NewStoreOwnerHandler(stores OwnedStores, ratings OwnedRatings, log *zap.Logger) *StoreOwnerHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StoreOwnerHandler{Stores: stores, Ratings: ratings, Log: log.With(zap.String("handler", "store_owner"))}
}

// ListStores lists the caller's stores with their rating aggregates.
func (h *StoreOwnerHandler) ListStores(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	stores, err := h.Stores.ListByOwnerWithStats(ctx, middleware.UserIDFrom(c))
	if err != nil {
		return err
	}
	return utils.OK(c, http.StatusOK, "Stores retrieved successfully", stores)
}

// DashboardStats returns the rating-weighted average over all the caller's
// stores, the total number of ratings and the number of stores.
func (h *StoreOwnerHandler) DashboardStats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	summaries, err := h.Stores.RatingSummariesByOwner(ctx, middleware.UserIDFrom(c))
	if err != nil {
		return err
	}
	return utils.OK(c, http.StatusOK, "Dashboard stats retrieved successfully", model.Summarize(summaries))
}

type pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type ratingsData struct {
	Ratings    []model.RatingDetail `json:"ratings"`
	Total      int64                `json:"total"`
	Pagination *pagination          `json:"pagination,omitempty"`
}

// ListRatings lists ratings on the caller's stores, newest first.  Without
// page/per_page the whole list is returned.
func (h *StoreOwnerHandler) ListRatings(c echo.Context) error {
	page, perPage, paged, errs := parsePage(c)
	if errs != nil {
		return utils.BadRequest(c, utils.MsgValidation, errs)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	ownerID := middleware.UserIDFrom(c)
	var bounds repository.Page
	if paged {
		bounds = repository.Page{Limit: perPage, Offset: utils.CalculateOffset(page, perPage)}
	}
	ratings, err := h.Ratings.ListForOwner(ctx, ownerID, bounds)
	if err != nil {
		return err
	}
	total, err := h.Ratings.CountForOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	data := ratingsData{Ratings: ratings, Total: total}
	if paged {
		data.Pagination = &pagination{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: utils.CalculateTotalPages(total, perPage),
		}
	}
	return utils.OK(c, http.StatusOK, "Ratings retrieved successfully", data)
}

// parsePage reads optional page/per_page query parameters.  paged is false
// when neither is present.  Pages whose offset would pass MaxInt32 rows are
// rejected rather than sent to MySQL.
func parsePage(c echo.Context) (page, perPage int, paged bool, errs map[string]string) {
	rawPage, rawPer := c.QueryParam("page"), c.QueryParam("per_page")
	if rawPage == "" && rawPer == "" {
		return 0, 0, false, nil
	}

	page, perPage = 1, defaultPerPage
	errs = map[string]string{}
	if rawPage != "" {
		n, err := strconv.Atoi(rawPage)
		if err != nil || n < 1 {
			errs["page"] = "Must be a positive integer"
		}
		page = n
	}
	if rawPer != "" {
		n, err := strconv.Atoi(rawPer)
		if err != nil || n < 1 || n > maxPerPage {
			errs["per_page"] = "Must be between 1 and " + strconv.Itoa(maxPerPage)
		}
		perPage = n
	}
	if len(errs) == 0 && page-1 > math.MaxInt32/perPage {
		errs["page"] = "Page is out of range"
	}
	if len(errs) > 0 {
		return 0, 0, false, errs
	}
	return page, perPage, true, nil
}
