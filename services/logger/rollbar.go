package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/csiportal/core"
	"github.com/trezcool/csiportal/core/identity"
)

// RollbarLogger reports to Rollbar and echoes every entry to std.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// rollbarItem is a log entry split the way Rollbar takes it.
type rollbarItem struct {
	person *identity.Identity
	custom map[string]interface{}
	args   []interface{} // msg first, then errors and anything else
}

// newRollbarItem sorts args into an item. The first identity.Identity is the person;
// maps, the session handle and the role of the person are merged into the custom data.
// expected fmt: msg | error, map[string]interface{}, identity.Identity, core.SessionHandle
func newRollbarItem(msg string, args []interface{}) rollbarItem {
	item := rollbarItem{args: make([]interface{}, 0, len(args)+2)}
	item.args = append(item.args, msg)

	custom := make(map[string]interface{})
	for _, arg := range args {
		switch a := arg.(type) {
		case identity.Identity:
			if item.person == nil {
				id := a
				item.person = &id
				custom["role"] = a.Role.String()
			}
		case core.SessionHandle:
			custom["session"] = string(a)
		case map[string]interface{}:
			for k, v := range a {
				custom[k] = v
			}
		default:
			item.args = append(item.args, arg)
		}
	}
	if len(custom) > 0 {
		item.custom = custom
		item.args = append(item.args, custom)
	}
	return item
}

func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	item := newRollbarItem(msg, args)
	if item.person != nil {
		rollbar.SetPerson(item.person.ID, item.person.Name, item.person.Email)
	} else {
		rollbar.ClearPerson()
	}
	return item.args
}

func (l RollbarLogger) print(msg string, args []interface{}) {
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.print(msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	l.print(msg, args)
	l.std.Fatal(msg)
}
