package inmemdb

import "sync"

type (
	DB struct {
		kv *kvTable
	}

	kvTable struct {
		mutex sync.RWMutex
		table map[string][]byte
	}
)

func Open() *DB {
	return &DB{
		kv: &kvTable{table: make(map[string][]byte)},
	}
}
