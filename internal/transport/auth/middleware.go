package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"contentieux/internal/domain"
	"contentieux/internal/repository"
)

type ctxKey string

const AgentIDKey ctxKey = "agentID"

// TokenMiddleware authenticates requests with an opaque access token, either
// in the Authorization header or in the token query parameter. The query
// parameter exists for websocket clients, which cannot set headers.
func TokenMiddleware(tokenRepo *repository.AccessTokenRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token *domain.AccessToken

			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				plainToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
				if plainToken != "" {
					t, err := tokenRepo.FindByPlainToken(r.Context(), plainToken)
					if err == nil {
						token = t
					}
				}
			}

			if token == nil {
				if plainToken := r.URL.Query().Get("token"); plainToken != "" {
					t, err := tokenRepo.FindByPlainToken(r.Context(), plainToken)
					if err == nil {
						token = t
					}
				}
			}

			if token == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if token.ExpiresAt != nil && token.ExpiresAt.Before(time.Now()) {
				log.Printf("[AUTH] token %d expired at %v", token.ID, token.ExpiresAt)
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AgentIDKey, token.AgentID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetAgentID(ctx context.Context) (int64, error) {
	agentID, ok := ctx.Value(AgentIDKey).(int64)
	if !ok {
		return 0, errors.New("agentID not found in context")
	}
	return agentID, nil
}
