package testutil

import (
	"context"
	"testing"

	"github.com/kbukum/convoview/component"
)

// THelper ties component lifecycles to a test.
type THelper struct {
	t   testing.TB
	ctx context.Context
}

// T wraps a test for component setup with automatic cleanup.
func T(t testing.TB) *THelper {
	return &THelper{t: t, ctx: context.Background()}
}

// WithContext sets the context passed to Start and Stop.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// Setup starts c and stops it when the test ends.
func (h *THelper) Setup(c component.Component) {
	h.t.Helper()
	if err := c.Start(h.ctx); err != nil {
		h.t.Fatalf("failed to start component %s: %v", c.Name(), err)
	}

	h.t.Cleanup(func() {
		if err := c.Stop(h.ctx); err != nil {
			h.t.Errorf("failed to stop component %s: %v", c.Name(), err)
		}
	})
}

// Healthy fails the test unless c reports healthy.
func (h *THelper) Healthy(c component.Component) {
	h.t.Helper()
	if health := c.Health(h.ctx); health.Status != component.StatusHealthy {
		h.t.Fatalf("component %s is %s: %s", c.Name(), health.Status, health.Message)
	}
}
