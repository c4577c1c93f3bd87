package handlers

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/courtbook/libs/auth"
	"golang.org/x/crypto/bcrypt"
)

// AdminAuth holds the single staff account and the token signing secret.
type AdminAuth struct {
	Username     string
	PasswordHash string
	Secret       string
	TokenTTL     time.Duration
	Now          func() time.Time
	Logger       *slog.Logger
}

func (a *AdminAuth) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *AdminAuth) configured() bool {
	return a.Username != "" && a.PasswordHash != "" && a.Secret != ""
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func (a *AdminAuth) Login(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	if !a.configured() {
		http.Error(w, "admin login not configured", http.StatusServiceUnavailable)
		return
	}
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(req.Username)), []byte(a.Username)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password))
	if !userOK || passErr != nil {
		a.Logger.Warn("admin login rejected", "username", req.Username)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	ttl := a.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	now := a.now()
	token, err := auth.Issue(a.Username, auth.RoleAdmin, ttl, a.Secret, now)
	if err != nil {
		a.Logger.Error("admin token signing failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: now.Add(ttl).UTC().Format(time.RFC3339)})
}

type claimsKey struct{}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

// RequireAdmin accepts only a valid bearer token carrying the admin role.
func (a *AdminAuth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := auth.ParseAndVerifyHS256(token, a.Secret, a.now())
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if claims.Role != auth.RoleAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}
