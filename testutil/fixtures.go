package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kbukum/convoview/database"
	"github.com/kbukum/convoview/database/migration"
	"github.com/kbukum/convoview/logger"
	"github.com/kbukum/convoview/migrations"
	"github.com/kbukum/convoview/storage"

	// Registers the local provider with storage.New.
	_ "github.com/kbukum/convoview/storage/local"
)

// Database starts a sqlite database component with every migration
// applied.
func Database(t testing.TB) *database.DB {
	t.Helper()
	comp := database.NewComponent(database.Config{
		Driver:     database.DriverSQLite,
		DSN:        filepath.Join(t.TempDir(), "test.db"),
		MaxRetries: 1,
		LogLevel:   "silent",
	}, logger.Nop())
	T(t).Setup(comp)

	db := comp.DB()
	dir := migrations.Dir(db.Driver())
	if err := migration.Up(db.GormDB, migrations.FS, dir, migration.DriverFor(db.Driver())); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

// Storage starts a local storage component and writes files, keyed by
// object key, into it.
func Storage(t testing.TB, files map[string]string) storage.Storage {
	t.Helper()
	comp := storage.NewComponent(storage.Config{
		Provider: storage.ProviderLocal,
		BasePath: t.TempDir(),
	}, logger.Nop())
	T(t).Setup(comp)

	store := comp.Storage()
	for key, content := range files {
		if err := storage.WriteBytes(context.Background(), store, key, []byte(content)); err != nil {
			t.Fatalf("write %s: %v", key, err)
		}
	}
	return store
}
