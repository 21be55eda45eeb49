// Package httpclient is a small HTTP client with bearer auth, retries
// through resilience and streaming responses, including Server-Sent Events
// through the sse subpackage.
//
//	c, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:8000",
//	    Auth:    httpclient.BearerAuth(token),
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//	resp, err := c.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/api/conversations"})
package httpclient
