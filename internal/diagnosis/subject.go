package diagnosis

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// SubjectHeader carries the authenticated subject, set by the gateway that
// terminates authentication in front of this service.
const SubjectHeader = "X-Subject-ID"

type subjectKey struct{}

func WithSubject(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, subjectKey{}, id)
}

func SubjectFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(subjectKey{}).(uuid.UUID)
	return id, ok
}

// RequireSubject rejects requests without a valid subject id.
func RequireSubject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get(SubjectHeader))
		if err != nil || id == uuid.Nil {
			status, body := FailWith(http.StatusUnauthorized, "You are not logged in. Please log in to get access.")
			writeJSON(w, status, body)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), id)))
	})
}
