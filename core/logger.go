package core

// Logger is any service that can log messages.
// args may hold errors, maps of extra data, or the Actor the message is about.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Actor identifies who triggered a logged event (eg. the API key owner or the admin CLI).
type Actor struct {
	ID   string
	Name string
}
