package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/kbukum/convoview/logger"
)

// redactedParams are query parameters that carry credentials.
var redactedParams = []string{"token", "access_token"}

var healthPaths = map[string]bool{
	"/health":  true,
	"/info":    true,
	"/version": true,
}

// RequestLogger logs every request with method, path, status and duration.
// Health-check paths are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if healthPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			duration := time.Since(start)

			fields := map[string]interface{}{
				"method":             r.Method,
				"path":               r.URL.Path,
				logger.FieldStatus:   sw.status,
				logger.FieldDuration: duration.Milliseconds(),
				"bytes":              sw.bytes,
			}
			if q := redactQuery(r.URL.RawQuery); q != "" {
				fields["query"] = q
			}
			logByStatus(log.WithContext(r.Context()), fields, sw.status)
		})
	}
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}

// redactQuery masks credential parameters. A query that does not parse is
// dropped rather than logged.
func redactQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return ""
	}
	masked := false
	for _, key := range redactedParams {
		if _, ok := values[key]; ok {
			values.Set(key, "redacted")
			masked = true
		}
	}
	if !masked {
		return raw
	}
	return values.Encode()
}
