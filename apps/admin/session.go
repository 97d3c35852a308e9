package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/identity"
	"github.com/trezcool/csiportal/core/session"
)

func (cli *commandLine) list() error {
	handles, err := session.Handles(context.Background(), cli.storage)
	if err != nil {
		return err
	}
	for _, h := range handles {
		fmt.Fprintln(cli.out, h)
	}
	return nil
}

func (cli *commandLine) inspect(handle string) error {
	return cli.print(cli.sessions.Get(context.Background(), handle).State())
}

// clear logs the session out, dropping its persisted user.
func (cli *commandLine) clear(handle string) error {
	ctx := context.Background()
	st := cli.sessions.Get(ctx, handle)
	if err := st.Logout(ctx); err != nil {
		return err
	}
	return cli.print(st.State())
}

// login signs the session in, or up when name is set, exactly as the API would.
func (cli *commandLine) login(handle, email, role, name, pwd string) error {
	r, ok := identity.ParseRole(role)
	if !ok {
		return core.NewArgumentError(fmt.Sprintf("invalid role %q", role))
	}
	creds := identity.Credentials{Name: name, Email: email, Password: pwd, Role: r}

	ctx := context.Background()
	st := cli.sessions.Get(ctx, handle)
	var err error
	if name != "" {
		err = st.Signup(ctx, creds)
	} else {
		err = st.Login(ctx, creds)
	}
	if err != nil {
		return err
	}

	state := st.State()
	if state.Error != "" {
		return errors.New(state.Error)
	}
	return cli.print(state)
}

func (cli *commandLine) print(st session.State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding state")
	}
	_, err = fmt.Fprintln(cli.out, string(data))
	return err
}
