package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/genewise-api/internal/api/shared"
	"github.com/phrazzld/genewise-api/internal/platform/logger"
	"github.com/phrazzld/genewise-api/internal/redact"
)

// defaultLeeway absorbs clock skew between token issuer and this service.
const defaultLeeway = 30 * time.Second

// AuthMiddleware validates HS256 bearer tokens signed with a shared secret.
type AuthMiddleware struct {
	secret []byte
	parser *jwt.Parser
}

// NewAuthMiddleware creates an AuthMiddleware for the given signing secret.
// Tokens must carry an expiry and a subject.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(defaultLeeway),
		),
	}
}

// Authenticate validates the token in the Authorization header and adds its
// subject to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims := &jwt.RegisteredClaims{}
		_, err := m.parser.ParseWithClaims(parts[1], claims, m.keyFunc)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			return
		case err != nil:
			logger.FromContext(r.Context()).Debug("token rejected", "error", redact.Error(err))
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}

		subject, err := claims.GetSubject()
		if err != nil || subject == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(shared.WithSubject(r.Context(), subject)))
	})
}

func (m *AuthMiddleware) keyFunc(*jwt.Token) (any, error) {
	return m.secret, nil
}
