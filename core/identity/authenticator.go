package identity

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator turns credentials into an Identity.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (Identity, error)
}

// MockAuthenticator synthesizes an Identity after a simulated round-trip.
// Passwords are never verified.
type MockAuthenticator struct {
	Latency time.Duration
}

var _ Authenticator = MockAuthenticator{}

func (ma MockAuthenticator) Authenticate(ctx context.Context, creds Credentials) (Identity, error) {
	if err := Wait(ctx, ma.Latency); err != nil {
		return Identity{}, err
	}
	if creds.Email == "" || creds.Password == "" || !creds.Role.IsValid() {
		return Identity{}, ErrInvalidCredentials
	}
	return Synthesize(creds.Name, creds.Email, creds.Role), nil
}

// Wait blocks for d or until ctx is done, whichever comes first.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
