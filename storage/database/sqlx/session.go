package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/csiportal/core/session"
)

// SessionStorage keeps the session keys in the session_kv table.
type SessionStorage struct {
	db *sqlx.DB
}

var (
	_ session.Storage   = (*SessionStorage)(nil)
	_ session.KeyLister = (*SessionStorage)(nil)
)

func NewSessionStorage(db *sqlx.DB) *SessionStorage {
	return &SessionStorage{db: db}
}

func (repo *SessionStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	q := repo.db.Rebind(`SELECT value FROM session_kv WHERE name = ?`)
	if err := repo.db.GetContext(ctx, &value, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, errors.Wrap(err, "selecting session_kv")
	}
	return []byte(value), nil
}

func (repo *SessionStorage) Set(ctx context.Context, key string, value []byte) error {
	q := repo.db.Rebind(`
		INSERT INTO session_kv (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if _, err := repo.db.ExecContext(ctx, q, key, string(value), time.Now().UTC().UnixNano()); err != nil {
		return errors.Wrap(err, "upserting session_kv")
	}
	return nil
}

func (repo *SessionStorage) Delete(ctx context.Context, key string) error {
	q := repo.db.Rebind(`DELETE FROM session_kv WHERE name = ?`)
	if _, err := repo.db.ExecContext(ctx, q, key); err != nil {
		return errors.Wrap(err, "deleting session_kv")
	}
	return nil
}

// Keys lists the stored keys starting with prefix, in order.
func (repo *SessionStorage) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	q := repo.db.Rebind(`SELECT name FROM session_kv WHERE name LIKE ? ORDER BY name`)
	if err := repo.db.SelectContext(ctx, &keys, q, prefix+"%"); err != nil {
		return nil, errors.Wrap(err, "listing session_kv")
	}
	return keys, nil
}
