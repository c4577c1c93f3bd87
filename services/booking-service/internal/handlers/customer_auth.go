package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/courtbook/libs/auth"
)

var (
	errBadCustomerToken = errors.New("invalid customer token")
	errNotCustomer      = errors.New("token is not a customer token")
)

// CustomerAuth resolves who a public request acts for. A bearer token signed
// with Secret and carrying the customer role wins. X-User-Id is read only
// when TrustHeader is set, i.e. an authenticating gateway sits in front and
// strips the header from client traffic.
type CustomerAuth struct {
	Secret      string
	TrustHeader bool
	Now         func() time.Time
}

func (a *CustomerAuth) now() time.Time {
	if a != nil && a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// UserID returns the authenticated user id, or "" for an anonymous caller.
// A bad or foreign bearer token is an error, never anonymous.
func (a *CustomerAuth) UserID(r *http.Request) (string, error) {
	if a == nil {
		return "", nil
	}
	if authHeader := strings.TrimSpace(r.Header.Get("Authorization")); authHeader != "" {
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			return "", errBadCustomerToken
		}
		claims, err := auth.ParseAndVerifyHS256(strings.TrimSpace(token), a.Secret, a.now())
		if err != nil {
			return "", errBadCustomerToken
		}
		if claims.Role != auth.RoleCustomer || strings.TrimSpace(claims.Sub) == "" {
			return "", errNotCustomer
		}
		return strings.TrimSpace(claims.Sub), nil
	}
	if a.TrustHeader {
		return strings.TrimSpace(r.Header.Get(UserIDHeader)), nil
	}
	return "", nil
}

// requireCustomer writes the error response itself and reports false when the
// caller is not an authenticated customer.
func (a *CustomerAuth) requireCustomer(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := a.UserID(r)
	switch {
	case errors.Is(err, errNotCustomer):
		http.Error(w, "forbidden", http.StatusForbidden)
		return "", false
	case err != nil:
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return "", false
	case userID == "":
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}
