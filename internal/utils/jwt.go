package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/store-rating-api/internal/model"
)

// DefaultTokenTTL is the access token lifetime when none is configured.
const DefaultTokenTTL = 24 * time.Hour

// ErrInvalidToken is the umbrella for every verification failure.  The
// specific kinds below wrap it so callers can either match the kind or
// collapse all of them into one response.
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrTokenSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrInvalidToken)
)

// Claims is the payload of an access token.  UserID and Role identify the
// caller; RegisteredClaims carries sub, jti, iat and exp.
type Claims struct {
	UserID uint64     `json:"userId"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenID returns the jti claim.
func (c Claims) TokenID() string { return c.ID }

// ExpiresAtTime returns the exp claim as time, zero when absent.
func (c Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// AccessToken represents a signed JWT along with its decoded claims.
type AccessToken struct {
	Token  string    // the serialized JWT string
	Exp    time.Time // the UTC expiration time
	Claims Claims
}

// TokenIssuer signs and verifies HS256 access tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer builds a TokenIssuer.  A non-positive ttl falls back to
// DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock returns a copy of the issuer that reads time from now.  Tests
// use it to move issuance and verification across expiry.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	cp := *i
	cp.now = now
	return &cp
}

// TTL reports the configured token lifetime.
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Issue builds and signs a token for a user.  The JWT includes the custom
// userId and role claims and the standard sub, jti, iat and exp claims.
func (i *TokenIssuer) Issue(userID uint64, role model.Role) (AccessToken, error) {
	now := i.now().UTC()
	return i.sign(userID, role, now, now.Add(i.ttl))
}

// Reissue signs a new token for the user and role in prev with a fresh jti.
// exp is stored in whole seconds, so when a full TTL from now would not land
// after prev's expiry the new expiry is prev's plus one second.
func (i *TokenIssuer) Reissue(prev Claims) (AccessToken, error) {
	now := i.now().UTC()
	exp := now.Add(i.ttl).Truncate(time.Second)
	if old := prev.ExpiresAtTime(); !exp.After(old) {
		exp = old.Truncate(time.Second).Add(time.Second)
	}
	return i.sign(prev.UserID, prev.Role, now, exp)
}

func (i *TokenIssuer) sign(userID uint64, role model.Role, now, exp time.Time) (AccessToken, error) {
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: claims.ExpiresAt.Time, Claims: claims}, nil
}

// Verify parses raw, checks the HS256 signature and expiry, and returns the
// claims.  Every failure wraps ErrInvalidToken.
func (i *TokenIssuer) Verify(raw string) (Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return Claims{}, ErrTokenSignature
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
	}
	if !tok.Valid || claims.UserID == 0 || !claims.Role.Valid() {
		return Claims{}, ErrTokenMalformed
	}
	return claims, nil
}
