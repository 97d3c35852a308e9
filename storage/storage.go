// Package storage opens the session.Storage selected by the configuration.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/session"
	"github.com/trezcool/csiportal/storage/database"
	inmemdb "github.com/trezcool/csiportal/storage/database/inmem"
	sqlxrepos "github.com/trezcool/csiportal/storage/database/sqlx"
)

// Storage is a session.Storage that can also enumerate its keys.
type Storage interface {
	session.Storage
	session.KeyLister
}

// Open returns the storage named by conf.Storage.Engine and the func releasing it.
func Open(ctx context.Context, conf *core.Config) (Storage, func() error, error) {
	if conf.Storage.Engine == "memory" {
		return inmemdb.NewSessionStorage(inmemdb.Open()), func() error { return nil }, nil
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening database")
	}
	if err = database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return sqlxrepos.NewSessionStorage(db), db.Close, nil
}
