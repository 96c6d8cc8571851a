package core

// Logger logs messages and reports them to the error tracker.
// args may carry an error, a map[string]interface{} of extras or any printable value.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
