package auth

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/models"
)

const tokenTTL = 14 * 24 * time.Hour

// Secret returns SESSION_SECRET or a dev default.
func Secret() []byte {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("devsessionsecret")
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Branch   string `json:"branch,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for the user.
func IssueToken(u *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: u.Username,
		Role:     string(u.Role),
		Branch:   u.BoutiqueBranch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(Secret())
}

// ParseToken validates a token string and returns its claims.
func ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return Secret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// TokenFromRequest pulls the bearer token from the Authorization header.
func TokenFromRequest(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return strings.TrimSpace(parts[1]), parts[1] != ""
}

// Middleware resolves the bearer token (when present) into an Actor on the
// request context. It does not reject; RequireAuth does.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw, ok := TokenFromRequest(r); ok {
			if claims, err := ParseToken(raw); err == nil {
				actor := &Actor{
					Username: claims.Username,
					Role:     models.Role(claims.Role),
					Branch:   claims.Branch,
					IP:       remoteIP(r),
				}
				r = r.WithContext(WithActor(r.Context(), actor))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests that carry no resolved actor.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ActorFrom(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i > 0 {
		host = host[:i]
	}
	return host
}
