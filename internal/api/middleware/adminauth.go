package middleware

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/avdnv/exchange-miniapp/internal/api/problem"
	"github.com/golang-jwt/jwt/v5"
)

type adminClaims struct {
	AdminID  int64  `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IssueAdminToken mints a short-lived HS256 session token for an admin.
func IssueAdminToken(secret []byte, adminID int64, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := adminClaims{
		AdminID:  adminID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(adminID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// AdminOrInternal admits requests carrying the shared service token and falls
// back to admin session validation for everything else. The bot process uses
// the service token because the admin identity there comes from the Telegram
// callback, not from a session.
func AdminOrInternal(secret []byte, internalToken string) func(http.Handler) http.Handler {
	adminAuth := AdminAuth(secret)
	return func(next http.Handler) http.Handler {
		guarded := adminAuth(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if internalToken != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Internal-Token")), []byte(internalToken)) == 1 {
				ctx := context.WithValue(r.Context(), internalContextKey, true)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

// AdminAuth validates the admin session token and injects the admin identity
// into the context.
func AdminAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/authorization-header-required"), http.StatusText(http.StatusUnauthorized), "Authorization header required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/invalid-token-format"), http.StatusText(http.StatusUnauthorized), "Invalid token format")
				return
			}
			if len(secret) == 0 {
				problem.Write(w, r, http.StatusInternalServerError, problem.Type("auth/misconfigured"), http.StatusText(http.StatusInternalServerError), "auth is not configured")
				return
			}

			claims := &adminClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
				}
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/invalid-token"), http.StatusText(http.StatusUnauthorized), "Invalid token")
				return
			}
			if claims.AdminID == 0 {
				problem.Write(w, r, http.StatusUnauthorized, problem.Type("auth/invalid-token-claims"), http.StatusText(http.StatusUnauthorized), "Invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), adminIDContextKey, claims.AdminID)
			ctx = context.WithValue(ctx, adminNameContextKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
