package core

// Logger is implemented by the logging services.
// args may hold errors, maps of extra data, the identity.Identity and the SessionHandle the log entry relates to.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// SessionHandle tags a log entry with the session it happened in.
type SessionHandle string

type nopLogger struct{}

// NopLogger discards everything. Used by tests and tools that do not report anywhere.
func NopLogger() Logger { return nopLogger{} }

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}
