package session_test

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/csiportal/core/identity"
	. "github.com/trezcool/csiportal/core/session"
	inmemdb "github.com/trezcool/csiportal/storage/database/inmem"
)

const key = "session/test/user"

var rollNumberRe = regexp.MustCompile(`^CSI\d+$`)

func newStorage() Storage {
	return inmemdb.NewSessionStorage(inmemdb.Open())
}

// newRestoredStore returns a Store over storage that is done loading.
func newRestoredStore(t *testing.T, storage Storage, opts ...Options) *Store {
	t.Helper()

	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	st := NewStore(storage, key, o)
	require.NoError(t, st.Restore(context.Background()))
	return st
}

func persisted(t *testing.T, storage Storage) *identity.Identity {
	t.Helper()

	data, err := storage.Get(context.Background(), key)
	if err == ErrNotFound {
		return nil
	}
	require.NoError(t, err)
	var id identity.Identity
	require.NoError(t, json.Unmarshal(data, &id))
	return &id
}

type brokenStorage struct {
	Storage
	err error
}

func (bs brokenStorage) Get(context.Context, string) ([]byte, error) { return nil, bs.err }
func (bs brokenStorage) Set(context.Context, string, []byte) error    { return bs.err }

// gateAuthenticator resolves each Authenticate call when its email is released.
type gateAuthenticator struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	arrived chan string
}

func newGateAuthenticator(emails ...string) *gateAuthenticator {
	ga := &gateAuthenticator{
		gates:   make(map[string]chan struct{}),
		arrived: make(chan string, len(emails)),
	}
	for _, e := range emails {
		ga.gates[e] = make(chan struct{})
	}
	return ga
}

func (ga *gateAuthenticator) release(email string) {
	ga.mu.Lock()
	defer ga.mu.Unlock()
	close(ga.gates[email])
}

func (ga *gateAuthenticator) Authenticate(ctx context.Context, creds identity.Credentials) (identity.Identity, error) {
	ga.mu.Lock()
	gate := ga.gates[creds.Email]
	ga.mu.Unlock()
	ga.arrived <- creds.Email

	select {
	case <-gate:
		return identity.Synthesize(creds.Name, creds.Email, creds.Role), nil
	case <-ctx.Done():
		return identity.Identity{}, ctx.Err()
	}
}

func TestStore_LoginThenRestore(t *testing.T) {
	for _, role := range identity.AllRoles {
		t.Run(role.String(), func(t *testing.T) {
			storage := newStorage()
			st := newRestoredStore(t, storage)

			err := st.Login(context.Background(), identity.Credentials{Email: "a@x.com", Password: "pw123456", Role: role})
			require.NoError(t, err)

			state := st.State()
			require.True(t, state.IsAuthenticated())
			assert.Equal(t, role, state.Identity.Role)
			assert.Equal(t, "a", state.Identity.Name)
			assert.Empty(t, state.Error)
			assert.False(t, state.Loading)

			fresh := newRestoredStore(t, storage)
			restored := fresh.State().Identity
			require.NotNil(t, restored)
			assert.Equal(t, role, restored.Role)
			assert.Equal(t, *state.Identity, *restored)
		})
	}
}

func TestStore_LoginStudent(t *testing.T) {
	st := newRestoredStore(t, newStorage())

	require.NoError(t, st.Login(context.Background(), identity.Credentials{Email: "a@x.com", Password: "pw123456", Role: identity.RoleStudent}))

	id := st.State().Identity
	require.NotNil(t, id)
	assert.Equal(t, identity.RoleStudent, id.Role)
	assert.Regexp(t, rollNumberRe, id.RollNumber)
	assert.Equal(t, "Computer Science", id.Branch)
	assert.Equal(t, "2nd Year", id.Year)
}

func TestStore_Signup(t *testing.T) {
	var (
		mu     sync.Mutex
		signed []identity.Identity
	)
	storage := newStorage()
	st := newRestoredStore(t, storage, Options{
		OnSignup: func(id identity.Identity) {
			mu.Lock()
			defer mu.Unlock()
			signed = append(signed, id)
		},
	})

	creds := identity.Credentials{Name: " Jane Doe ", Email: "Jane@CSI.edu", Password: "pw123456", Role: identity.RoleCommittee}
	require.NoError(t, st.Signup(context.Background(), creds))

	id := st.State().Identity
	require.NotNil(t, id)
	assert.Equal(t, "Jane Doe", id.Name)
	assert.Equal(t, "jane@csi.edu", id.Email)
	assert.Empty(t, id.RollNumber)
	assert.Equal(t, id, persisted(t, storage))

	mu.Lock()
	defer mu.Unlock()
	if assert.Len(t, signed, 1) {
		assert.Equal(t, *id, signed[0])
	}

	// login never calls the signup hook, nor seeds the name
	require.NoError(t, st.Login(context.Background(), creds))
	assert.Equal(t, "jane", st.State().Identity.Name)
	assert.Len(t, signed, 1)
}

func TestStore_AuthenticationFailure(t *testing.T) {
	tests := []struct {
		name    string
		creds   identity.Credentials
		signup  bool
		wantMsg string
	}{
		{name: "login: no email", creds: identity.Credentials{Password: "pw123456", Role: identity.RoleStudent}, wantMsg: ErrMsgLoginFailed},
		{name: "login: no password", creds: identity.Credentials{Email: "a@x.com", Role: identity.RoleStudent}, wantMsg: ErrMsgLoginFailed},
		{name: "login: invalid role", creds: identity.Credentials{Email: "a@x.com", Password: "pw123456", Role: "admin"}, wantMsg: ErrMsgLoginFailed},
		{name: "signup: no role", creds: identity.Credentials{Name: "A", Email: "a@x.com", Password: "pw123456"}, signup: true, wantMsg: ErrMsgSignupFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := newStorage()
			st := newRestoredStore(t, storage)

			// start authenticated: a failure must still leave the session unauthenticated
			require.NoError(t, st.Login(context.Background(), identity.Credentials{Email: "b@x.com", Password: "pw123456", Role: identity.RoleTeacher}))

			var err error
			if tt.signup {
				err = st.Signup(context.Background(), tt.creds)
			} else {
				err = st.Login(context.Background(), tt.creds)
			}
			assert.NoError(t, err, "failures are reported through the state")

			state := st.State()
			assert.False(t, state.Loading)
			assert.Nil(t, state.Identity)
			assert.Equal(t, tt.wantMsg, state.Error)
			assert.Nil(t, persisted(t, storage))

			st.ClearError()
			state = st.State()
			assert.Empty(t, state.Error)
			assert.Nil(t, state.Identity)
			assert.False(t, state.Loading)
		})
	}
}

func TestStore_PersistFailure(t *testing.T) {
	st := NewStore(brokenStorage{err: errors.New("disk full")}, key, Options{})
	_ = st.Restore(context.Background())

	require.NoError(t, st.Login(context.Background(), identity.Credentials{Email: "a@x.com", Password: "pw123456", Role: identity.RoleStudent}))
	state := st.State()
	assert.Nil(t, state.Identity)
	assert.Equal(t, ErrMsgLoginFailed, state.Error)
}

func TestStore_Logout(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, st *Store)
	}{
		{name: "unauthenticated", prepare: func(*testing.T, *Store) {}},
		{name: "authenticated", prepare: func(t *testing.T, st *Store) {
			require.NoError(t, st.Login(context.Background(), identity.Credentials{Email: "a@x.com", Password: "pw123456", Role: identity.RoleCommittee}))
		}},
		{name: "after failure", prepare: func(t *testing.T, st *Store) {
			require.NoError(t, st.Login(context.Background(), identity.Credentials{Email: "a@x.com"}))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := newStorage()
			st := newRestoredStore(t, storage)
			tt.prepare(t, st)

			require.NoError(t, st.Logout(context.Background()))

			state := st.State()
			assert.False(t, state.Loading)
			assert.Nil(t, state.Identity)
			assert.Nil(t, persisted(t, storage))
		})
	}

	t.Run("while loading", func(t *testing.T) {
		storage := newStorage()
		st := NewStore(storage, key, Options{})
		require.True(t, st.State().Loading)

		require.NoError(t, st.Logout(context.Background()))
		assert.False(t, st.State().Loading)
		assert.Nil(t, st.State().Identity)
	})

	t.Run("cancelled context", func(t *testing.T) {
		storage := newStorage()
		st := newRestoredStore(t, storage)
		require.NoError(t, st.Login(context.Background(), identity.Credentials{Email: "a@x.com", Password: "pw123456", Role: identity.RoleStudent}))
		require.NotNil(t, persisted(t, storage))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, st.Logout(ctx))
		assert.Nil(t, st.State().Identity)
		assert.Nil(t, persisted(t, storage))

		// a fresh Store does not bring the user back
		fresh := newRestoredStore(t, storage)
		assert.Nil(t, fresh.State().Identity)
	})
}

func TestStore_UpdateProfile(t *testing.T) {
	storage := newStorage()
	st := newRestoredStore(t, storage)

	// no-op without an Identity
	name := "Nobody"
	require.NoError(t, st.UpdateProfile(context.Background(), identity.ProfileUpdate{Name: &name}))
	assert.Nil(t, st.State().Identity)
	assert.Nil(t, persisted(t, storage))

	require.NoError(t, st.Login(context.Background(), identity.Credentials{Email: "a@x.com", Password: "pw123456", Role: identity.RoleStudent}))
	before := *st.State().Identity

	// the role can never be set through a profile update
	var pu identity.ProfileUpdate
	require.NoError(t, json.Unmarshal([]byte(`{"role": "teacher", "id": "user-hacked", "name": "Asha", "year": "3rd Year"}`), &pu))
	require.NoError(t, st.UpdateProfile(context.Background(), pu))

	after := st.State().Identity
	require.NotNil(t, after)
	assert.Equal(t, identity.RoleStudent, after.Role)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "Asha", after.Name)
	assert.Equal(t, "3rd Year", after.Year)
	assert.Equal(t, before.RollNumber, after.RollNumber)
	assert.Equal(t, before.Branch, after.Branch)
	assert.Equal(t, after, persisted(t, storage))
}

func TestStore_Restore(t *testing.T) {
	valid := identity.Synthesize("Ravi", "ravi@csi.edu", identity.RoleStudent)
	validData, err := json.Marshal(valid)
	require.NoError(t, err)

	tests := []struct {
		name      string
		stored    []byte
		want      *identity.Identity
		wantClean bool // storage must be cleared
	}{
		{name: "nothing persisted"},
		{name: "round-trip", stored: validData, want: &valid},
		{name: "malformed json", stored: []byte(`{"id": "user-1", "email":`), wantClean: true},
		{name: "not an object", stored: []byte(`"lol"`), wantClean: true},
		{name: "missing id", stored: []byte(`{"email": "a@x.com", "role": "student"}`), wantClean: true},
		{name: "unknown role", stored: []byte(`{"id": "user-1", "email": "a@x.com", "role": "admin"}`), wantClean: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := newStorage()
			if tt.stored != nil {
				require.NoError(t, storage.Set(context.Background(), key, tt.stored))
			}

			st := NewStore(storage, key, Options{})
			state := st.State()
			assert.True(t, state.Loading)
			assert.Nil(t, state.Identity)

			assert.NotPanics(t, func() {
				assert.NoError(t, st.Restore(context.Background()))
			})

			state = st.State()
			assert.False(t, state.Loading)
			assert.Equal(t, tt.want, state.Identity)
			if tt.wantClean {
				_, err := storage.Get(context.Background(), key)
				assert.Equal(t, ErrNotFound, err)
			}
		})
	}

	t.Run("storage failure", func(t *testing.T) {
		st := NewStore(brokenStorage{err: errors.New("io error")}, key, Options{})
		assert.Error(t, st.Restore(context.Background()))
		state := st.State()
		assert.False(t, state.Loading)
		assert.Nil(t, state.Identity)
	})
}

func TestStore_CancelledLogin(t *testing.T) {
	storage := newStorage()
	st := newRestoredStore(t, storage, Options{Authenticator: identity.MockAuthenticator{Latency: time.Hour}})

	updates, cancelWatch := st.Subscribe()
	defer cancelWatch()
	<-updates // current state

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- st.Login(ctx, identity.Credentials{Email: "a@x.com", Password: "pw123456", Role: identity.RoleStudent})
	}()

	loading := <-updates
	assert.True(t, loading.Loading)
	cancel()

	select {
	case err := <-done:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(5 * time.Second):
		t.Fatal("login did not return after its context was cancelled")
	}

	state := st.State()
	assert.False(t, state.Loading)
	assert.Nil(t, state.Identity)
	assert.Empty(t, state.Error)
	assert.Nil(t, persisted(t, storage))
}

func TestStore_ConcurrentLoginsLastWriteWins(t *testing.T) {
	storage := newStorage()
	auth := newGateAuthenticator("first@x.com", "second@x.com")
	st := newRestoredStore(t, storage, Options{Authenticator: auth})

	var wg sync.WaitGroup
	login := func(email string, role identity.Role) {
		defer wg.Done()
		assert.NoError(t, st.Login(context.Background(), identity.Credentials{Email: email, Password: "pw123456", Role: role}))
	}

	wg.Add(2)
	go login("first@x.com", identity.RoleStudent)
	go login("second@x.com", identity.RoleTeacher)
	<-auth.arrived
	<-auth.arrived

	// the second call resolves first, the first one overwrites it when it resolves
	auth.release("second@x.com")
	require.Eventually(t, func() bool {
		id := st.State().Identity
		return id != nil && id.Email == "second@x.com"
	}, 5*time.Second, 5*time.Millisecond)

	auth.release("first@x.com")
	wg.Wait()

	id := st.State().Identity
	require.NotNil(t, id)
	assert.Equal(t, "first@x.com", id.Email)
	assert.Equal(t, identity.RoleStudent, id.Role)
	assert.Equal(t, id, persisted(t, storage))
}

func TestStore_Subscribe(t *testing.T) {
	st := NewStore(newStorage(), key, Options{})

	updates, cancel := st.Subscribe()
	first := <-updates
	assert.True(t, first.Loading)

	require.NoError(t, st.Restore(context.Background()))
	assert.False(t, (<-updates).Loading)

	require.NoError(t, st.Login(context.Background(), identity.Credentials{Email: "a@x.com", Password: "pw123456", Role: identity.RoleTeacher}))

	// slow readers only get the latest snapshot
	latest := <-updates
	assert.True(t, latest.IsAuthenticated())
	select {
	case extra := <-updates:
		t.Errorf("unexpected snapshot %+v", extra)
	default:
	}

	cancel()
	cancel() // idempotent
	_, ok := <-updates
	assert.False(t, ok, "updates must be closed once cancelled")
}

func TestState_Role(t *testing.T) {
	assert.Equal(t, identity.RoleNone, State{}.Role())
	assert.Equal(t, identity.RoleTeacher, State{Identity: &identity.Identity{Role: identity.RoleTeacher}}.Role())
	assert.False(t, State{Loading: true, Identity: &identity.Identity{}}.IsAuthenticated())
}
