package session

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/csiportal/core/identity"
)

// human-readable failures, observed through State.Error
const (
	ErrMsgLoginFailed  = "Failed to login. Please check your credentials."
	ErrMsgSignupFailed = "Failed to register. Please try again."
)

// ErrNotFound is returned by a Storage when the key holds nothing.
var ErrNotFound = errors.New("key not found")

// Storage is the durable key-value store a Store persists its Identity to.
// It is owned by the session package; nothing else reads or writes the session keys.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// KeyLister is implemented by the storages able to enumerate their keys.
type KeyLister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

const (
	keyPrefix = "session/"
	keySuffix = "/user"
)

// StorageKey is the key holding the serialized Identity of the session handle.
func StorageKey(handle string) string {
	return keyPrefix + handle + keySuffix
}

// State is a snapshot of a Store.
// Identity is always nil while Loading.
type State struct {
	Identity *identity.Identity `json:"user"`
	Loading  bool               `json:"loading"`
	Error    string             `json:"error,omitempty"`
}

func (st State) IsAuthenticated() bool {
	return !st.Loading && st.Identity != nil
}

// Role is the role of the current Identity, RoleNone when there is none.
func (st State) Role() identity.Role {
	if st.Identity == nil {
		return identity.RoleNone
	}
	return st.Identity.Role
}

// Handles lists the session handles holding a persisted Identity.
func Handles(ctx context.Context, lister KeyLister) ([]string, error) {
	keys, err := lister.Keys(ctx, keyPrefix)
	if err != nil {
		return nil, errors.Wrap(err, "listing session keys")
	}
	handles := make([]string, 0, len(keys))
	for _, k := range keys {
		if !strings.HasSuffix(k, keySuffix) {
			continue
		}
		if h := strings.TrimSuffix(strings.TrimPrefix(k, keyPrefix), keySuffix); h != "" {
			handles = append(handles, h)
		}
	}
	return handles, nil
}
