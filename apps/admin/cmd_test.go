package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/identity"
	"github.com/trezcool/csiportal/core/session"
	inmemdb "github.com/trezcool/csiportal/storage/database/inmem"
	"github.com/trezcool/csiportal/tests"
)

const handle = "0b5f3f36-3c2b-4d62-9c43-0c0b5e3c1a11"

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	t.Helper()

	store := inmemdb.NewSessionStorage(inmemdb.Open())
	out := new(bytes.Buffer)
	return &commandLine{
		out:      out,
		storage:  store,
		sessions: session.NewManager(store, session.Options{}),
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func decodeState(t *testing.T, out *bytes.Buffer) session.State {
	t.Helper()

	var st session.State
	require.NoError(t, json.Unmarshal(out.Bytes(), &st))
	return st
}

func Test_commandLine_usage(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "inspect: no session", args: []string{"inspect"}, wantErr: errHelp},
		{name: "clear: no session", args: []string{"clear"}, wantErr: errHelp},
		{name: "login: no args", args: []string{"login"}, wantErr: errHelp},
		{name: "login: no role", args: []string{"login", "-session", handle, "-email", "a@b.cd"}, wantErr: errHelp},
		{name: "login: unknown flag", args: []string{"login", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_login(t *testing.T) {
	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no password", args: []string{"login", "-session", handle, "-email", "a@b.cd", "-role", "student"}, wantErr: errHelp},
		{
			name:       "invalid role",
			args:       []string{"login", "-session", handle, "-email", "a@b.cd", "-role", "admin"},
			extra:      extra{pwd: "secret1"},
			wantErrStr: `invalid role "admin"`,
		},
		{
			name:  "login",
			args:  []string{"login", "-session", handle, "-email", "Jane@CSI.edu", "-role", "teacher"},
			extra: extra{pwd: "secret1"},
		},
		{
			name:  "signup",
			args:  []string{"login", "-session", handle, "-email", "jane@csi.edu", "-role", "student", "-name", "Jane Doe"},
			extra: extra{pwd: "secret1"},
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		tt := tt

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t)

			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
				return
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Equal(t, tt.wantErrStr, err.Error())
				}
				return
			}
			require.NoError(t, err)

			// drop the password prompt
			line, _ := out.ReadString('\n')
			assert.Equal(t, "Enter password:\n", line)

			st := decodeState(t, out)
			require.NotNil(t, st.Identity)
			assert.Equal(t, "jane@csi.edu", st.Identity.Email)
			if tt.name == "signup" {
				assert.Equal(t, "Jane Doe", st.Identity.Name)
				assert.Equal(t, identity.RoleStudent, st.Identity.Role)
			} else {
				assert.Equal(t, "jane", st.Identity.Name)
				assert.Equal(t, identity.RoleTeacher, st.Identity.Role)
			}

			// persisted under the session key
			_, err = cli.storage.Get(context.Background(), session.StorageKey(handle))
			assert.NoError(t, err)
		})
	}
}

func Test_commandLine_inspectListClear(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()

	id := testutil.PersistIdentity(t, cli.storage, handle, "Prof. Mehta", "mehta@csi.edu", identity.RoleTeacher)

	require.NoError(t, cli.run([]string{"admin", "list"}))
	assert.Equal(t, handle+"\n", out.String())
	out.Reset()

	require.NoError(t, cli.run([]string{"admin", "inspect", "-session", handle}))
	st := decodeState(t, out)
	assert.False(t, st.Loading)
	if assert.NotNil(t, st.Identity) {
		assert.Equal(t, id, *st.Identity)
	}
	out.Reset()

	require.NoError(t, cli.run([]string{"admin", "clear", "-session", handle}))
	st = decodeState(t, out)
	assert.Nil(t, st.Identity)

	_, err := cli.storage.Get(ctx, session.StorageKey(handle))
	assert.Equal(t, session.ErrNotFound, err)

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "list"}))
	assert.Empty(t, out.String())
}

func Test_commandLine_argumentError(t *testing.T) {
	cli, _ := setup(t)

	err := cli.login(handle, "a@b.cd", "nope", "", "secret1")
	_, ok := err.(*core.ArgumentError)
	assert.True(t, ok, "want *core.ArgumentError, got %T", err)
}
