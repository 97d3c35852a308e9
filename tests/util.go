package testutil

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/identity"
	"github.com/trezcool/csiportal/core/session"
	"github.com/trezcool/csiportal/storage/database"
)

// PrepareDB opens a migrated sqlite database, removed once the test is done.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conf := &core.Config{Storage: core.StorageConfig{
		Engine: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "csiportal_test.db"),
	}}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// PersistIdentity stores a synthesized Identity as the logged in user of the session handle.
func PersistIdentity(
	t *testing.T,
	storage session.Storage,
	handle, name, email string,
	role identity.Role,
) identity.Identity {
	t.Helper()

	id := identity.Synthesize(name, email, role)
	data, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("PersistIdentity() failed: %v", err)
	}
	if err = storage.Set(context.Background(), session.StorageKey(handle), data); err != nil {
		t.Fatalf("PersistIdentity() failed: %v", err)
	}
	return id
}
