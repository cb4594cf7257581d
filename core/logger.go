package core

// Logger is any leveled logging service.
// Implementations may extract known types (eg. a staff account) from args
// to enrich log entries.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
