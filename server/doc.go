// Package server provides the HTTP server: Gin mounted on a ServeMux,
// served over h2c, with lifecycle management through the component package.
//
// Server-level middleware (server/middleware) wraps every request:
//
//   - RequestID: X-Request-Id generation and logger context propagation
//   - Recovery: panic recovery with the error envelope
//   - RequestLogger: request logging, level by status
//   - CORS: cross-origin headers and preflight
//   - BodySizeLimit: request body size limits
//
// Gin-level middleware covers authentication (Auth) and request telemetry
// (Telemetry). Default endpoints (server/endpoint) are /health, /info and
// /version.
package server
