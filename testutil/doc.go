// Package testutil starts real infrastructure components for tests and
// stops them when the test ends.
//
//	func TestRepository(t *testing.T) {
//	    db := testutil.Database(t)
//	    store := testutil.Storage(t, map[string]string{"calls/1.mp3": "..."})
//	    ...
//	}
//
// Database opens a migrated sqlite file under t.TempDir(); Storage is a
// local backend in its own temporary directory.
package testutil
