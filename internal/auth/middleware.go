package auth

import (
	"encoding/json"
	"net/http"

	"warehouse-be/internal/logger"

	"go.uber.org/zap"
)

// Authenticate rejects requests without a valid bearer token and attaches the
// resulting Caller to the request context.
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := ExtractAccessToken(r)
			if tokenStr == "" {
				unauthorized(w, "missing access token")
				return
			}

			claims, err := ParseToken(tokenStr, secret)
			if err != nil {
				logger.FromCtx(r.Context()).Warn("rejected access token", zap.Error(err))
				unauthorized(w, "invalid access token")
				return
			}

			ctx := WithCaller(r.Context(), Caller{UserID: claims.UserID, Role: Role(claims.Role)})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "msg": msg})
}
