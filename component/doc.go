// Package component defines the lifecycle contract shared by infrastructure
// pieces and a registry that starts and stops them in order.
package component
