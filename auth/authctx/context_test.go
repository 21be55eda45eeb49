package authctx

import (
	"context"
	"errors"
	"testing"
)

type claims struct{ sub string }

func TestSetGet(t *testing.T) {
	ctx := Set(context.Background(), &claims{sub: "alice"})

	got, ok := Get[*claims](ctx)
	if !ok || got.sub != "alice" {
		t.Fatalf("Get = %+v, %v", got, ok)
	}
	if _, ok := Get[string](ctx); ok {
		t.Error("wrong type should not match")
	}
}

func TestGetOrError(t *testing.T) {
	if _, err := GetOrError[*claims](context.Background()); !errors.Is(err, ErrNoClaims) {
		t.Errorf("expected ErrNoClaims, got %v", err)
	}
}
