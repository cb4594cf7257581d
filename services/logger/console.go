package logsvc

import (
	"log"

	"github.com/chuolink/shule/core"
)

// ConsoleLogger writes leveled entries to a std logger; used in
// DEV/TEST mode where Rollbar reporting is unwanted.
type ConsoleLogger struct {
	std *log.Logger
}

var _ core.Logger = (*ConsoleLogger)(nil)

func NewConsoleLogger(std *log.Logger) *ConsoleLogger {
	return &ConsoleLogger{std: std}
}

func (l ConsoleLogger) log(level, msg string, args []interface{}) {
	l.std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l ConsoleLogger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l ConsoleLogger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l ConsoleLogger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l ConsoleLogger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }

func (l ConsoleLogger) Fatal(msg string, args ...interface{}) {
	l.log("FATAL", msg, args)
	l.std.Fatal(msg)
}
