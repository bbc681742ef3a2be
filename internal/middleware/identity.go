package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/athletiq/socialgraph/internal/handlers"
)

// AthleteIDHeader names the header carrying the acting athlete's id.
// Authentication itself lives in the surrounding product; by the time a
// request reaches this service the gateway has already verified the session
// and stamped the id.
const AthleteIDHeader = "X-Athlete-ID"

// Identity extracts the acting athlete id into the request context.
// Requests without a parseable id proceed anonymously; handlers that need an
// identity reject those themselves.
type Identity struct{}

func NewIdentity() *Identity {
	return &Identity{}
}

func (i *Identity) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(AthleteIDHeader); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				r = r.WithContext(handlers.SetAthleteID(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}
