package stubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultUserField is the token claim naming the operator.
const DefaultUserField = "userid"

type userKey struct{}

// UserFrom returns the operator carried by an authenticated request, or "".
func UserFrom(ctx context.Context) string {
	u, _ := ctx.Value(userKey{}).(string)
	return u
}

// Auth verifies HS256 bearer tokens on the store API.
type Auth struct {
	secret    []byte
	userField string
}

// NewAuth creates an Auth for secret. An empty secret returns nil, which
// disables authentication.
func NewAuth(secret, userField string) *Auth {
	if secret == "" {
		return nil
	}
	if userField == "" {
		userField = DefaultUserField
	}
	return &Auth{secret: []byte(secret), userField: userField}
}

// NewToken signs a token for user. A zero ttl yields a token without expiry.
func (a *Auth) NewToken(user string, ttl time.Duration) (string, error) {
	if user == "" {
		return "", errors.New("user is required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		a.userField: user,
		"iat":       now.Unix(),
	}
	if ttl > 0 {
		claims["exp"] = now.Add(ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Verify parses a token and returns the operator it names.
func (a *Auth) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims format")
	}
	user, _ := claims[a.userField].(string)
	if user == "" {
		return "", fmt.Errorf("token has no %q claim", a.userField)
	}
	return user, nil
}

// Middleware rejects requests without a valid bearer token. A nil Auth lets
// every request through.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	if a == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "bearer token required")
			return
		}
		user, err := a.Verify(tokenString)
		if err != nil {
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}
