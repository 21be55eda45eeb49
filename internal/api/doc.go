// Package api exposes conversations over HTTP: listing and creating
// records, server-side stats, filtered fragments, timeline regions, audio
// with Range support, account endpoints and an event stream.
//
// Every success response uses the {data, meta} envelope and every failure
// the {error: {code, message, retryable, details}} envelope.
package api
