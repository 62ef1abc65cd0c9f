package testsupport

import (
	"testing"

	"burnish/internal/config"
	"burnish/internal/sink/sqlitesink"
)

// MustOpenStore opens a result store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sqlitesink.Store {
	t.Helper()

	store, err := sqlitesink.Open(cfg)
	if err != nil {
		t.Fatalf("sqlitesink.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
