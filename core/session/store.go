package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/identity"
)

type (
	Options struct {
		Authenticator identity.Authenticator
		Logger        core.Logger

		// OnSignup is called, outside of the Store lock, after a signup has been committed.
		OnSignup func(identity.Identity)
	}

	// Store is the single holder of a session's Identity and its lifecycle.
	//
	// Login and Signup may run concurrently: each one commits its own result when it resolves,
	// so the last one to resolve wins. A call whose context ends before it resolves commits nothing.
	Store struct {
		key     string
		storage Storage
		opts    Options

		restoreMu sync.Mutex
		restored  bool

		mu       sync.Mutex
		identity *identity.Identity
		loading  bool
		err      string
		inFlight int // authentications not yet resolved

		watchers    map[int]chan State
		nextWatcher int
	}
)

// NewStore returns a Store persisting under key. It starts loading until Restore is called.
func NewStore(storage Storage, key string, opts Options) *Store {
	if opts.Authenticator == nil {
		opts.Authenticator = identity.MockAuthenticator{}
	}
	if opts.Logger == nil {
		opts.Logger = core.NopLogger()
	}
	return &Store{
		key:      key,
		storage:  storage,
		opts:     opts,
		loading:  true,
		watchers: make(map[int]chan State),
	}
}

// Restore reloads the persisted Identity. A malformed value is discarded and the session stays unauthenticated.
// The returned error only reports a storage read failure; the Store is usable either way.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.notifyLocked()

	s.identity = nil
	s.loading = false

	data, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		err = errors.Wrap(err, "reading persisted identity")
		s.opts.Logger.Error("session restore failed", err, map[string]interface{}{"key": s.key})
		return err
	}

	var id identity.Identity
	if err = json.Unmarshal(data, &id); err != nil || !id.Valid() {
		s.opts.Logger.Warn("discarding malformed persisted identity", map[string]interface{}{"key": s.key})
		if dErr := s.storage.Delete(ctx, s.key); dErr != nil && !errors.Is(dErr, ErrNotFound) {
			s.opts.Logger.Error("clearing malformed identity", errors.Wrap(dErr, "deleting key"))
		}
		return nil
	}
	s.identity = &id
	return nil
}

// restore runs Restore until it succeeds once. It outlives the cancellation of ctx:
// a Store must not stay unauthenticated while storage holds its Identity.
func (s *Store) restore(ctx context.Context) error {
	s.restoreMu.Lock()
	defer s.restoreMu.Unlock()

	if s.restored {
		return nil
	}
	if s.busy() {
		// a retry would hide the authentication in flight
		return nil
	}
	if err := s.Restore(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	s.restored = true
	return nil
}

func (s *Store) busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// idle reports whether the Store may be dropped from memory.
func (s *Store) idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight == 0 && len(s.watchers) == 0
}

// Login authenticates creds and commits the resulting Identity.
// Failures are reported through State().Error; the returned error is non-nil only when ctx ended first.
func (s *Store) Login(ctx context.Context, creds identity.Credentials) error {
	creds.Name = "" // login derives the name from the email
	return s.authenticate(ctx, creds, ErrMsgLoginFailed, nil)
}

// Signup is Login with the Identity name seeded from creds.Name.
func (s *Store) Signup(ctx context.Context, creds identity.Credentials) error {
	return s.authenticate(ctx, creds, ErrMsgSignupFailed, s.opts.OnSignup)
}

func (s *Store) authenticate(ctx context.Context, creds identity.Credentials, failMsg string, onCommit func(identity.Identity)) error {
	s.mu.Lock()
	s.inFlight++
	s.loading = true
	s.err = ""
	s.notifyLocked()
	s.mu.Unlock()

	creds.Clean()
	var (
		id  identity.Identity
		err error
	)
	if creds.Email == "" || creds.Password == "" || !creds.Role.IsValid() {
		err = identity.ErrInvalidCredentials
	} else {
		id, err = s.opts.Authenticator.Authenticate(ctx, creds)
	}

	s.mu.Lock()
	s.inFlight--
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.loading = false
		s.notifyLocked()
		s.mu.Unlock()
		return ctxErr
	}
	if err == nil {
		err = s.persistLocked(ctx, id)
	}
	if err != nil {
		// a failed attempt leaves the session unauthenticated
		if s.identity != nil {
			if dErr := s.storage.Delete(ctx, s.key); dErr != nil && !errors.Is(dErr, ErrNotFound) {
				s.opts.Logger.Error("clearing identity after failed authentication", errors.Wrap(dErr, "deleting key"))
			}
		}
		s.identity = nil
		s.loading = false
		s.err = failMsg
		s.notifyLocked()
		s.mu.Unlock()
		s.opts.Logger.Warn(failMsg, err, map[string]interface{}{"email": creds.Email, "role": creds.Role})
		return nil
	}
	s.identity = &id
	s.loading = false
	s.notifyLocked()
	s.mu.Unlock()

	s.opts.Logger.Info("session authenticated", id)
	if onCommit != nil {
		onCommit(id)
	}
	return nil
}

// Logout drops the Identity from memory and storage. It is not cancellable:
// the persisted Identity is deleted even when ctx is already done.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.notifyLocked()

	s.identity = nil
	s.loading = false
	if err := s.storage.Delete(context.WithoutCancel(ctx), s.key); err != nil && !errors.Is(err, ErrNotFound) {
		return errors.Wrap(err, "deleting persisted identity")
	}
	return nil
}

// UpdateProfile merges pu into the current Identity and persists it. It is a no-op without an Identity.
func (s *Store) UpdateProfile(ctx context.Context, pu identity.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identity == nil {
		return nil
	}
	updated := *s.identity
	updated.Apply(pu)
	if err := s.persistLocked(ctx, updated); err != nil {
		return err
	}
	s.identity = &updated
	s.notifyLocked()
	return nil
}

func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != "" {
		s.err = ""
		s.notifyLocked()
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Subscribe streams State snapshots, starting with the current one.
// Slow readers only see the latest snapshot. cancel must be called to release the watcher.
func (s *Store) Subscribe() (updates <-chan State, cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 1)
	ch <- s.stateLocked()
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.watchers, id)
			close(ch)
		})
	}
}

func (s *Store) stateLocked() State {
	st := State{Loading: s.loading, Error: s.err}
	if !s.loading && s.identity != nil {
		id := *s.identity
		st.Identity = &id
	}
	return st
}

func (s *Store) notifyLocked() {
	st := s.stateLocked()
	for _, ch := range s.watchers {
		select {
		case <-ch: // drop the stale snapshot
		default:
		}
		ch <- st
	}
}

func (s *Store) persistLocked(ctx context.Context, id identity.Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return errors.Wrap(err, "encoding identity")
	}
	if err = s.storage.Set(ctx, s.key, data); err != nil {
		return errors.Wrap(err, "persisting identity")
	}
	return nil
}
