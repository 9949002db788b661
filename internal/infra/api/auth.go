package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/infra/logging"
	"content-marketplace/internal/infra/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const tokenIssuer = "content-marketplace"

var (
	errMissingToken = errors.New("missing token")
	errInvalidToken = errors.New("invalid token")
)

// TokenManager mints and parses the HS256 bearer tokens handed out at login.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

type UserClaims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

func (m *TokenManager) Mint(u *model.User) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := UserClaims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (m *TokenManager) Parse(tok string) (*UserClaims, error) {
	claims := &UserClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

func bearer(r *http.Request) (string, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" {
		return "", errMissingToken
	}
	parts := strings.SplitN(hdr, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errInvalidToken
	}
	return strings.TrimSpace(parts[1]), nil
}

type principalKey struct{}

// Principal is the authenticated caller of a user route.
type Principal struct {
	UserID string
	Role   model.Role
}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = logging.WithUserID(ctx, p.UserID)
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// RequireUser rejects requests without a valid bearer token.
func RequireUser(tokens *TokenManager) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearer(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
			ctx := withPrincipal(r.Context(), Principal{UserID: claims.Subject, Role: claims.Role})
			remember(w, ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdminKey guards the back-office routes with a static API key sent as a bearer token
// or in X-API-Key.
func RequireAdminKey(apiKey string, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deny := func(status int, msg string) {
				metrics.IncAdminRequest(routeLabel(r), strconv.Itoa(status))
				writeError(w, status, msg)
			}

			if apiKey == "" {
				logger.Error().Msg("admin API key is not configured")
				deny(http.StatusForbidden, "forbidden")
				return
			}

			key := r.Header.Get("X-API-Key")
			if key == "" {
				tok, err := bearer(r)
				if err != nil {
					deny(http.StatusUnauthorized, err.Error())
					return
				}
				key = tok
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				deny(http.StatusForbidden, "forbidden")
				return
			}

			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			metrics.IncAdminRequest(routeLabel(r), strconv.Itoa(ww.status))
		})
	}
}

// routeLabel is the chi pattern matched so far, never the raw path, so metric labels stay
// bounded. Read after next.ServeHTTP it is the full route.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
