// Package resilience retries failing operations with exponential backoff.
//
//	conv, err := resilience.Retry(ctx, cfg, func() (*Conversation, error) {
//	    return fetch(ctx, id)
//	})
package resilience
