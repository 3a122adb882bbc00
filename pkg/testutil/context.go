package testutil

import (
	"context"
	"net/http"
	"time"

	id "famtree/pkg/domain"
	"famtree/pkg/requestcontext"
)

// WithUserID marks the request as authenticated by userID, as the auth
// middleware would.
func WithUserID(req *http.Request, userID id.UserID) *http.Request {
	return req.WithContext(requestcontext.WithUserID(req.Context(), userID))
}

// ActorContext returns a context carrying the acting user and a pinned clock.
func ActorContext(userID id.UserID, now time.Time) context.Context {
	ctx := requestcontext.WithUserID(context.Background(), userID)
	return requestcontext.WithTime(ctx, now)
}
