package httpclient

import (
	"io"
	"net/http"

	"github.com/kbukum/convoview/httpclient/sse"
)

// Request describes an outbound HTTP request.
type Request struct {
	Method string
	// Path is appended to BaseURL unless it is an absolute URL.
	Path    string
	Headers map[string]string
	Query   map[string]string
	// Body accepts io.Reader, []byte, string, url.Values (form encoded) or
	// any value to be JSON-encoded.
	Body any
	// Auth overrides the client-level auth.
	Auth *AuthConfig
	// NoRetry sends the request once even when the client retries. Set it
	// on calls that are not safe to repeat.
	NoRetry bool
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StreamResponse wraps a response whose body is consumed incrementally.
type StreamResponse struct {
	StatusCode int
	Headers    map[string]string
	// SSE is set for text/event-stream responses.
	SSE sse.Reader
	// Body is set for every other content type.
	Body io.ReadCloser

	rawResp *http.Response
}

// Close releases the stream.
func (r *StreamResponse) Close() error {
	if r.SSE != nil {
		return r.SSE.Close()
	}
	if r.Body != nil {
		return r.Body.Close()
	}
	if r.rawResp != nil && r.rawResp.Body != nil {
		return r.rawResp.Body.Close()
	}
	return nil
}
