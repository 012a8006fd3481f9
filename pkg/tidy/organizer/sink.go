package organizer

// Sink receives human-readable progress messages from a run.
type Sink interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// Confirmer asks the user whether to proceed. It is consulted once,
// before the walk starts, and only for interactive runs.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// NopSink discards every message.
type NopSink struct{}

func (NopSink) Info(string)  {}
func (NopSink) Warn(string)  {}
func (NopSink) Error(string) {}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(prompt string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) (bool, error) {
	return f(prompt)
}

// AlwaysConfirm approves every prompt.
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) (bool, error) { return true, nil })
