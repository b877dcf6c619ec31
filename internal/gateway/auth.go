// Package gateway is the narrow external transport for the matching
// engine: a REST surface for order commands and a WebSocket surface for
// the market-data event stream. It never touches book state directly —
// every request is translated into a command against an
// engine.SymbolEngine and every published frame is a re-encoding of an
// engine.EventBatch. Grounded on the teacher's internal/router and
// internal/websocket packages (Yusufzhafir-go-orderbook).
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

// authKey is the context key under which UserClaims are stashed by
// AuthMiddleware, mirroring the teacher's middleware.AuthKey.
const authKey contextKey = "auth"

// UserClaims is the bearer-token payload accepted at the gateway. The
// engine itself has no notion of accounts; ClientID names the token
// holder and is not passed on to the engine with any command.
type UserClaims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// JWTMaker issues and verifies HS256 bearer tokens. Grounded on the
// teacher's middleware.JWTMaker contract (referenced from
// internal/router/middleware/middleware.go and claim.go but never
// checked into the retrieved snapshot); reconstructed here against the
// same golang-jwt/jwt/v5 API the teacher's UserClaims and
// AuthMiddleware already assume. Token IDs use google/uuid in place of
// the teacher's TigerBeetle-derived ID generator, since TigerBeetle is
// out of scope for this system (see DESIGN.md).
type JWTMaker struct {
	secret []byte
}

// NewJWTMaker constructs a maker from a shared HMAC secret.
func NewJWTMaker(secret string) *JWTMaker {
	return &JWTMaker{secret: []byte(secret)}
}

// CreateToken issues a bearer token for clientID valid for duration.
func (m *JWTMaker) CreateToken(clientID string, duration time.Duration) (string, *UserClaims, error) {
	claims := &UserClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// VerifyToken parses and validates a bearer token, returning its claims.
func (m *JWTMaker) VerifyToken(tokenStr string) (*UserClaims, error) {
	claims := &UserClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// AuthMiddleware rejects requests without a valid Bearer token and
// stashes its claims in the request context. Grounded on the teacher's
// middleware.AuthMiddleware (internal/router/middleware/middleware.go).
func AuthMiddleware(maker *JWTMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromHeader(r, maker)
			if err != nil {
				http.Error(w, fmt.Sprintf("error verifying token: %v", err), http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), authKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimsFromHeader(r *http.Request, maker *JWTMaker) (*UserClaims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, fmt.Errorf("authorization header is missing")
	}
	fields := strings.Fields(header)
	if len(fields) != 2 || fields[0] != "Bearer" {
		return nil, fmt.Errorf("invalid authorization header")
	}
	claims, err := maker.VerifyToken(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// ClaimsFromContext retrieves the UserClaims stashed by AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*UserClaims, bool) {
	claims, ok := ctx.Value(authKey).(*UserClaims)
	return claims, ok
}
