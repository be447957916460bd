package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/store-rating-api/internal/middleware"
	"github.com/iliyamo/store-rating-api/internal/model"
	"github.com/iliyamo/store-rating-api/internal/queue"
	"github.com/iliyamo/store-rating-api/internal/repository"
	"github.com/iliyamo/store-rating-api/internal/service"
	"github.com/iliyamo/store-rating-api/internal/utils"
)

// UserStore is the persistence the auth endpoints need.
// *repository.UserRepo implements it.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenRevoker records revoked token ids.  *repository.TokenRepo
// implements it, including a nil one, which reports Enabled false.
type TokenRevoker interface {
	Enabled() bool
	Revoke(ctx context.Context, tokenID string, exp time.Time) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users   UserStore
	Tokens  *utils.TokenIssuer
	Hasher  *utils.Hasher
	Revoked TokenRevoker
	Events  service.Publisher
	Log     *zap.Logger
}

func NewAuthHandler(users UserStore, tokens *utils.TokenIssuer, hasher *utils.Hasher,
	revoked TokenRevoker, events service.Publisher, log *zap.Logger) *AuthHandler {
	if events == nil {
		events = service.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		Users:   users,
		Tokens:  tokens,
		Hasher:  hasher,
		Revoked: revoked,
		Events:  events,
		Log:     log.With(zap.String("handler", "auth")),
	}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name" validate:"required,max=60"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72,bcryptmax"`
	Address  string `json:"address" validate:"max=400"`
}

func (r *registerReq) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = repository.NormalizeEmail(r.Email)
	r.Address = strings.TrimSpace(r.Address)
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *loginReq) normalize() { r.Email = repository.NormalizeEmail(r.Email) }

type authData struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

type tokenData struct {
	Token string `json:"token"`
}

type logoutData struct {
	Revoked bool `json:"revoked"`
}

// Register creates a normal_user account and signs the caller in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if ok, err := bind(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	exists, err := h.Users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if exists {
		return utils.BadRequest(c, utils.MsgUserExists, nil)
	}

	hash, err := h.Hasher.Hash(req.Password)
	if err != nil {
		return err
	}
	u := model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Address:      req.Address,
		Role:         model.RoleNormalUser,
	}
	if err := h.Users.Create(ctx, &u); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrEmailExists) {
			return utils.BadRequest(c, utils.MsgUserExists, nil)
		}
		return err
	}

	tok, err := h.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		return err
	}
	h.Log.Info("user registered", zap.Uint64("user_id", u.ID))
	h.publish(c, queue.EventRegistered, u)
	return utils.OK(c, http.StatusCreated, "User registered successfully", authData{User: u, Token: tok.Token})
}

// Login exchanges credentials for a token.  An unknown email and a wrong
// password produce the same response and take the same bcrypt work.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if ok, err := bind(c, &req); !ok {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		h.Hasher.CompareDummy(req.Password)
		return utils.Unauthorized(c, utils.MsgInvalidCredentials)
	}
	if err != nil {
		return err
	}
	if !h.Hasher.Compare(req.Password, u.PasswordHash) {
		return utils.Unauthorized(c, utils.MsgInvalidCredentials)
	}

	tok, err := h.Tokens.Issue(u.ID, u.Role)
	if err != nil {
		return err
	}
	h.publish(c, queue.EventLoggedIn, u)
	return utils.OK(c, http.StatusOK, "Login successful", authData{User: u, Token: tok.Token})
}

// Verify returns the current user record for a valid token along with the
// same token.  Runs behind middleware.JWTAuth.
func (h *AuthHandler) Verify(c echo.Context) error {
	u, ok, err := h.currentUser(c)
	if !ok {
		return err
	}
	return utils.OK(c, http.StatusOK, "Token is valid", authData{User: u, Token: middleware.TokenFrom(c)})
}

// Refresh issues a new token carrying the same userId and role as the
// presented one, with a new id and expiry.  Runs behind middleware.JWTAuth.
func (h *AuthHandler) Refresh(c echo.Context) error {
	if _, ok, err := h.currentUser(c); !ok {
		return err
	}
	claims, _ := middleware.ClaimsFrom(c)
	tok, err := h.Tokens.Reissue(claims)
	if err != nil {
		return err
	}
	return utils.OK(c, http.StatusOK, "Token refreshed", tokenData{Token: tok.Token})
}

// Logout revokes the presented token until it would have expired.  Runs
// behind middleware.JWTAuth.  Without a revocation store the call still
// succeeds but answers revoked=false, since the token stays valid until exp.
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return utils.Unauthorized(c, utils.MsgInvalidToken)
	}

	revoked := h.Revoked != nil && h.Revoked.Enabled()
	if revoked {
		ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
		defer cancel()
		if err := h.Revoked.Revoke(ctx, claims.TokenID(), claims.ExpiresAtTime()); err != nil {
			return err
		}
	}

	h.publish(c, queue.EventLoggedOut, model.User{ID: claims.UserID, Role: claims.Role})
	if !revoked {
		h.Log.Warn("logout without revocation store", zap.Uint64("user_id", claims.UserID))
		return utils.OK(c, http.StatusOK, "Logged out; token remains valid until it expires", logoutData{Revoked: false})
	}
	return utils.OK(c, http.StatusOK, "Logged out successfully", logoutData{Revoked: true})
}

// currentUser loads the user named by the verified claims.  A user that no
// longer exists makes the token invalid.  When ok is false the response is
// already decided and err is what the handler should return.
func (h *AuthHandler) currentUser(c echo.Context) (u model.User, ok bool, err error) {
	claims, found := middleware.ClaimsFrom(c)
	if !found {
		return model.User{}, false, utils.Unauthorized(c, utils.MsgInvalidToken)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err = h.Users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, false, utils.Unauthorized(c, utils.MsgInvalidToken)
	}
	if err != nil {
		return model.User{}, false, err
	}
	return u, true, nil
}

// publish sends an auth event in the background.  Broker failures are
// logged and never affect the response.
func (h *AuthHandler) publish(c echo.Context, typ string, u model.User) {
	ev := queue.NewAuthEvent(typ, u, c.RealIP())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Events.Publish(ctx, ev); err != nil {
			h.Log.Warn("publish auth event failed", zap.String("type", typ), zap.Error(err))
		}
	}()
}
