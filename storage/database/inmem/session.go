package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/csiportal/core/session"
)

// SessionStorage keeps the session keys in memory. Nothing survives a restart.
type SessionStorage struct {
	db *kvTable
}

var (
	_ session.Storage   = (*SessionStorage)(nil)
	_ session.KeyLister = (*SessionStorage)(nil)
)

func NewSessionStorage(db *DB) *SessionStorage {
	return &SessionStorage{db: db.kv}
}

func (repo *SessionStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	val, ok := repo.db.table[key]
	if !ok {
		return nil, session.ErrNotFound
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (repo *SessionStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	val := make([]byte, len(value))
	copy(val, value)
	repo.db.table[key] = val
	return nil
}

func (repo *SessionStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.table, key)
	return nil
}

func (repo *SessionStorage) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	keys := make([]string, 0, len(repo.db.table))
	for k := range repo.db.table {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
