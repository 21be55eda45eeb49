package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kbukum/convoview/logger"
)

// HeaderRequestID is the header carrying the request id.
const HeaderRequestID = "X-Request-Id"

// RequestID makes sure every request carries an X-Request-Id, echoes it on
// the response and stores it in the request context for logger.WithContext.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
				r.Header.Set(HeaderRequestID, id)
			}
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
		})
	}
}
