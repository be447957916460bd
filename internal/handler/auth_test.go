package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/store-rating-api/internal/middleware"
	"github.com/iliyamo/store-rating-api/internal/model"
	"github.com/iliyamo/store-rating-api/internal/queue"
	"github.com/iliyamo/store-rating-api/internal/utils"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type authFixture struct {
	e       *echo.Echo
	users   *fakeUsers
	revoker *fakeRevoker
	events  *fakePublisher
	issuer  *utils.TokenIssuer
	hasher  *utils.Hasher
	clock   *clock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:   newFakeUsers(),
		revoker: &fakeRevoker{},
		events:  newFakePublisher(),
		hasher:  utils.NewHasher(bcrypt.MinCost),
		clock:   &clock{now: time.Now()},
	}
	f.issuer = utils.NewTokenIssuer("test-secret", time.Hour).WithClock(f.clock.Now)

	h := NewAuthHandler(f.users, f.issuer, f.hasher, f.revoker, f.events, zap.NewNop())
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop())
	g := e.Group("/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	authed := g.Group("", middleware.JWTAuth(f.issuer, f.revoker))
	authed.GET("/verify", h.Verify)
	authed.POST("/refresh", h.Refresh)
	authed.POST("/logout", h.Logout)
	f.e = e
	return f
}

func (f *authFixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *authFixture) seed(t *testing.T, email, password string, role model.Role) model.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	if err != nil {
		t.Fatal(err)
	}
	u := model.User{Name: "Seeded", Email: email, PasswordHash: hash, Role: role}
	if err := f.users.Create(context.Background(), &u); err != nil {
		t.Fatal(err)
	}
	return u
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v", rec.Body, err)
	}
	return env
}

func decodeAuth(t *testing.T, rec *httptest.ResponseRecorder) (map[string]any, string) {
	t.Helper()
	var data struct {
		User  map[string]any `json:"user"`
		Token string         `json:"token"`
	}
	if err := json.Unmarshal(decode(t, rec).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return data.User, data.Token
}

func nextEvent(t *testing.T, p *fakePublisher) queue.AuthEvent {
	t.Helper()
	select {
	case ev := <-p.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
	}
	return queue.AuthEvent{}
}

const aliceBody = `{"name":"Alice","email":" Alice@Example.com ","password":"s3cret-pass","address":"1 Main St"}`

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.do(http.MethodPost, "/auth/register", aliceBody, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	if strings.Contains(rec.Body.String(), "password") || strings.Contains(rec.Body.String(), "$2a$") {
		t.Fatalf("password leaked: %s", rec.Body)
	}
	user, token := decodeAuth(t, rec)
	if user["email"] != "alice@example.com" || user["role"] != "normal_user" {
		t.Fatalf("user = %v", user)
	}
	claims, err := f.issuer.Verify(token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != uint64(user["id"].(float64)) || claims.Role != model.RoleNormalUser {
		t.Fatalf("claims = %+v", claims)
	}
	if ev := nextEvent(t, f.events); ev.Type != queue.EventRegistered || ev.UserID != claims.UserID {
		t.Fatalf("event = %+v", ev)
	}
}

func TestRegisterTwiceIsUserExists(t *testing.T) {
	f := newAuthFixture(t)
	if rec := f.do(http.MethodPost, "/auth/register", aliceBody, ""); rec.Code != http.StatusCreated {
		t.Fatalf("first: %d", rec.Code)
	}
	rec := f.do(http.MethodPost, "/auth/register",
		`{"name":"Other","email":"alice@example.com","password":"another-pass"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if env := decode(t, rec); env.Success || env.Message != utils.MsgUserExists {
		t.Fatalf("body = %s", rec.Body)
	}
}

func TestRegisterDuplicateKeyRace(t *testing.T) {
	f := newAuthFixture(t)
	f.users.raceOnCreate = true
	rec := f.do(http.MethodPost, "/auth/register", aliceBody, "")
	if rec.Code != http.StatusBadRequest || decode(t, rec).Message != utils.MsgUserExists {
		t.Fatalf("%d %s", rec.Code, rec.Body)
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.do(http.MethodPost, "/auth/register", `{"name":"","email":"nope","password":"short"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decode(t, rec)
	if env.Message != utils.MsgValidation {
		t.Fatalf("message = %q", env.Message)
	}
	for _, field := range []string{"name", "email", "password"} {
		if env.Errors[field] == "" {
			t.Errorf("no error for %s: %v", field, env.Errors)
		}
	}

	rec = f.do(http.MethodPost, "/auth/register", `{"name":`, "")
	if rec.Code != http.StatusBadRequest || decode(t, rec).Message != utils.MsgInvalidBody {
		t.Fatalf("bad json: %d %s", rec.Code, rec.Body)
	}
}

func TestRegisterRejectsPasswordOverBcryptByteLimit(t *testing.T) {
	f := newAuthFixture(t)

	// 40 runes, 80 bytes
	pw := strings.Repeat("é", 40)
	body := `{"name":"Zoé","email":"zoe@example.com","password":"` + pw + `"}`
	rec := f.do(http.MethodPost, "/auth/register", body, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	env := decode(t, rec)
	if env.Message != utils.MsgValidation || env.Errors["password"] == "" {
		t.Fatalf("body = %s", rec.Body)
	}

	// 36 runes, 72 bytes fits
	pw = strings.Repeat("é", 36)
	body = `{"name":"Zoé","email":"zoe@example.com","password":"` + pw + `"}`
	if rec := f.do(http.MethodPost, "/auth/register", body, ""); rec.Code != http.StatusCreated {
		t.Fatalf("72-byte password: %d %s", rec.Code, rec.Body)
	}
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	seeded := f.seed(t, "owner@example.com", "correct-horse", model.RoleStoreOwner)

	rec := f.do(http.MethodPost, "/auth/login", `{"email":"OWNER@example.com","password":"correct-horse"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	_, token := decodeAuth(t, rec)
	claims, err := f.issuer.Verify(token)
	if err != nil || claims.UserID != seeded.ID || claims.Role != model.RoleStoreOwner {
		t.Fatalf("claims = %+v err = %v", claims, err)
	}
	if ev := nextEvent(t, f.events); ev.Type != queue.EventLoggedIn {
		t.Fatalf("event = %+v", ev)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.seed(t, "bob@example.com", "right-password", model.RoleNormalUser)

	wrong := f.do(http.MethodPost, "/auth/login", `{"email":"bob@example.com","password":"wrong-password"}`, "")
	unknown := f.do(http.MethodPost, "/auth/login", `{"email":"nobody@example.com","password":"wrong-password"}`, "")

	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("codes = %d, %d", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Fatalf("bodies differ:\n%s\n%s", wrong.Body, unknown.Body)
	}
	if decode(t, wrong).Message != utils.MsgInvalidCredentials {
		t.Fatalf("body = %s", wrong.Body)
	}
}

func TestVerify(t *testing.T) {
	f := newAuthFixture(t)
	u := f.seed(t, "carol@example.com", "pass-word-1", model.RoleNormalUser)
	tok, err := f.issuer.Issue(u.ID, u.Role)
	if err != nil {
		t.Fatal(err)
	}

	rec := f.do(http.MethodGet, "/auth/verify", "", tok.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	user, token := decodeAuth(t, rec)
	if token != tok.Token || user["email"] != "carol@example.com" {
		t.Fatalf("user = %v token changed = %v", user, token != tok.Token)
	}

	if rec := f.do(http.MethodGet, "/auth/verify", "", ""); rec.Code != http.StatusUnauthorized ||
		decode(t, rec).Message != utils.MsgNoToken {
		t.Fatalf("no token: %d %s", rec.Code, rec.Body)
	}

	f.users.delete(u.ID)
	rec = f.do(http.MethodGet, "/auth/verify", "", tok.Token)
	if rec.Code != http.StatusUnauthorized || decode(t, rec).Message != utils.MsgInvalidToken {
		t.Fatalf("deleted user: %d %s", rec.Code, rec.Body)
	}
}

func TestRefreshKeepsClaimsAndExtendsExpiry(t *testing.T) {
	f := newAuthFixture(t)
	u := f.seed(t, "dan@example.com", "pass-word-1", model.RoleStoreOwner)
	old, err := f.issuer.Issue(u.ID, u.Role)
	if err != nil {
		t.Fatal(err)
	}

	f.clock.Advance(time.Minute)
	rec := f.do(http.MethodPost, "/auth/refresh", "", old.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(decode(t, rec).Data, &data); err != nil {
		t.Fatal(err)
	}
	fresh, err := f.issuer.Verify(data.Token)
	if err != nil {
		t.Fatalf("refreshed token: %v", err)
	}
	if fresh.UserID != old.Claims.UserID || fresh.Role != old.Claims.Role {
		t.Fatalf("claims changed: %+v vs %+v", fresh, old.Claims)
	}
	if !fresh.ExpiresAtTime().After(old.Exp) {
		t.Fatalf("exp %v not after %v", fresh.ExpiresAtTime(), old.Exp)
	}
	if fresh.TokenID() == old.Claims.TokenID() {
		t.Fatal("refresh reused the token id")
	}
}

func TestRefreshInSameSecondExtendsExpiry(t *testing.T) {
	f := newAuthFixture(t)
	u := f.seed(t, "dee@example.com", "pass-word-1", model.RoleNormalUser)
	old, err := f.issuer.Issue(u.ID, u.Role)
	if err != nil {
		t.Fatal(err)
	}

	rec := f.do(http.MethodPost, "/auth/refresh", "", old.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(decode(t, rec).Data, &data); err != nil {
		t.Fatal(err)
	}
	fresh, err := f.issuer.Verify(data.Token)
	if err != nil {
		t.Fatalf("refreshed token: %v", err)
	}
	if !fresh.ExpiresAtTime().After(old.Exp) {
		t.Fatalf("exp %v not after %v", fresh.ExpiresAtTime(), old.Exp)
	}
}

func TestRefreshRejectsDeletedUser(t *testing.T) {
	f := newAuthFixture(t)
	u := f.seed(t, "erin@example.com", "pass-word-1", model.RoleNormalUser)
	tok, err := f.issuer.Issue(u.ID, u.Role)
	if err != nil {
		t.Fatal(err)
	}
	f.users.delete(u.ID)

	rec := f.do(http.MethodPost, "/auth/refresh", "", tok.Token)
	if rec.Code != http.StatusUnauthorized || decode(t, rec).Message != utils.MsgInvalidToken {
		t.Fatalf("%d %s", rec.Code, rec.Body)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	u := f.seed(t, "fay@example.com", "pass-word-1", model.RoleNormalUser)
	tok, err := f.issuer.Issue(u.ID, u.Role)
	if err != nil {
		t.Fatal(err)
	}

	out := f.do(http.MethodPost, "/auth/logout", "", tok.Token)
	if out.Code != http.StatusOK || !strings.Contains(string(decode(t, out).Data), `"revoked":true`) {
		t.Fatalf("logout: %d %s", out.Code, out.Body)
	}
	if exp := f.revoker.revoked[tok.Claims.TokenID()]; !exp.Equal(tok.Exp) {
		t.Fatalf("revoked until %v, want %v", exp, tok.Exp)
	}
	if ev := nextEvent(t, f.events); ev.Type != queue.EventLoggedOut || ev.UserID != u.ID {
		t.Fatalf("event = %+v", ev)
	}

	rec := f.do(http.MethodGet, "/auth/verify", "", tok.Token)
	if rec.Code != http.StatusUnauthorized || decode(t, rec).Message != utils.MsgInvalidToken {
		t.Fatalf("revoked token accepted: %d %s", rec.Code, rec.Body)
	}
}

func TestLogoutWithoutRevocationStoreSaysTokenStaysValid(t *testing.T) {
	f := newAuthFixture(t)
	f.revoker.disabled = true
	u := f.seed(t, "gus@example.com", "pass-word-1", model.RoleNormalUser)
	tok, err := f.issuer.Issue(u.ID, u.Role)
	if err != nil {
		t.Fatal(err)
	}

	rec := f.do(http.MethodPost, "/auth/logout", "", tok.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", rec.Code, rec.Body)
	}
	env := decode(t, rec)
	if !env.Success || !strings.Contains(string(env.Data), `"revoked":false`) || env.Message == "Logged out successfully" {
		t.Fatalf("body = %s", rec.Body)
	}
	if len(f.revoker.revoked) != 0 {
		t.Fatalf("disabled store recorded %v", f.revoker.revoked)
	}
	if ev := nextEvent(t, f.events); ev.Type != queue.EventLoggedOut {
		t.Fatalf("event = %+v", ev)
	}
}

func TestPersistenceFailureIsGeneric500(t *testing.T) {
	f := newAuthFixture(t)
	f.users.failAll = errors.New("dial tcp 10.0.0.5:3306: connection refused")

	rec := f.do(http.MethodPost, "/auth/login", `{"email":"x@example.com","password":"whatever1"}`, "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if env := decode(t, rec); env.Success || env.Message != utils.MsgInternal {
		t.Fatalf("body = %s", rec.Body)
	}
	if strings.Contains(rec.Body.String(), "3306") {
		t.Fatalf("storage detail leaked: %s", rec.Body)
	}
}
