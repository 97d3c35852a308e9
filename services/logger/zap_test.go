package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	csi "github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/identity"
)

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := WrapZap(zap.New(core))

	id := identity.Identity{ID: "user-1", Email: "a@x.com", Role: identity.RoleTeacher}
	logger.Warn("login failed", errors.New("boom"), map[string]interface{}{"attempt": 2}, id, csi.SessionHandle("tab-1"))
	logger.Debug("restored")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 2) {
		warn := entries[0]
		assert.Equal(t, zapcore.WarnLevel, warn.Level)
		assert.Equal(t, "login failed", warn.Message)

		fields := warn.ContextMap()
		assert.Equal(t, "boom", fields["error"])
		assert.Equal(t, int64(2), fields["attempt"])
		assert.Equal(t, "tab-1", fields["session"])
		assert.Equal(t, "user-1", fields["user.id"])
		assert.Equal(t, "teacher", fields["user.role"])

		assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	}
}
