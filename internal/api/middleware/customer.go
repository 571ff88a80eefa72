// Package middleware holds HTTP middleware shared by the API routes.
package middleware

import (
	"context"
	"net/http"
	"strings"
)

// CustomerHeader names the tenant a request acts for.
const CustomerHeader = "X-Customer-Id"

type customerKey struct{}

// WithCustomerID returns a context carrying customerID.
func WithCustomerID(ctx context.Context, customerID string) context.Context {
	return context.WithValue(ctx, customerKey{}, customerID)
}

// CustomerID returns the customer stored by Customer, or "".
func CustomerID(ctx context.Context) string {
	if id, ok := ctx.Value(customerKey{}).(string); ok {
		return id
	}
	return ""
}

// Customer resolves the tenant from the X-Customer-Id header, falling back
// to defaultID, and stores it in the request context.
func Customer(defaultID string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(CustomerHeader))
			if id == "" {
				id = defaultID
			}
			next.ServeHTTP(w, r.WithContext(WithCustomerID(r.Context(), id)))
		})
	}
}
