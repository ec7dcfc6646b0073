package testutil

import (
	"net/http"
	"time"

	authmw "storefront/pkg/platform/middleware/auth"
	"storefront/pkg/requestcontext"
)

// WithSession stores session claims on the request the way RequireSession would.
func WithSession(req *http.Request, accountID, email string) *http.Request {
	ctx := authmw.WithClaims(req.Context(), &authmw.SessionClaims{AccountID: accountID, Email: email})
	return req.WithContext(ctx)
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
