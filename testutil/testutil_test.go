package testutil

import (
	"context"
	"io"
	"testing"

	"github.com/kbukum/convoview/component"
)

type fakeComponent struct {
	started, stopped bool
	health           component.HealthStatus
}

func (f *fakeComponent) Name() string { return "fake" }

func (f *fakeComponent) Start(context.Context) error {
	f.started = true
	return nil
}

func (f *fakeComponent) Stop(context.Context) error {
	f.stopped = true
	return nil
}

func (f *fakeComponent) Health(context.Context) component.Health {
	return component.Health{Name: "fake", Status: f.health}
}

func TestSetupStopsOnCleanup(t *testing.T) {
	comp := &fakeComponent{health: component.StatusHealthy}
	t.Run("inner", func(t *testing.T) {
		T(t).Setup(comp)
		T(t).Healthy(comp)
		if !comp.started || comp.stopped {
			t.Fatalf("started=%v stopped=%v during the test", comp.started, comp.stopped)
		}
	})
	if !comp.stopped {
		t.Error("component should stop when the test ends")
	}
}

func TestDatabaseIsMigrated(t *testing.T) {
	db := Database(t)
	for _, table := range []string{"conversations", "users"} {
		if !db.GormDB.Migrator().HasTable(table) {
			t.Errorf("table %s missing", table)
		}
	}
}

func TestStorageHoldsFiles(t *testing.T) {
	ctx := context.Background()
	store := Storage(t, map[string]string{"calls/1.mp3": "abc"})

	rc, err := store.Download(ctx, "calls/1.mp3")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil || string(data) != "abc" {
		t.Errorf("content = %q, %v", data, err)
	}

	if _, err := store.Download(ctx, "missing"); err == nil {
		t.Error("missing key should fail")
	}
}
