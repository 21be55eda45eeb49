// Package validation validates request structs with go-playground/validator
// and parses path and query parameters into typed values.
package validation
