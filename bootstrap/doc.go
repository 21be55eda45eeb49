// Package bootstrap runs the component lifecycle for the server binary.
package bootstrap
