// Package errors defines AppError, the coded error type shared by the HTTP
// facade, the services behind it and the API client.
package errors
