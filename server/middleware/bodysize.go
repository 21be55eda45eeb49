package middleware

import (
	"net/http"

	apperrors "github.com/kbukum/convoview/errors"
	"github.com/kbukum/convoview/util"
)

const defaultMaxBodySize = 10 * 1024 * 1024

// BodySizeLimit restricts request bodies to the given size string
// (e.g. "10MB", "512KB").
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > size {
				writeAppError(w, apperrors.TooLarge(size))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}
