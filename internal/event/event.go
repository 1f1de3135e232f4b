// Package event defines the observability side channel of a download. Events
// are informational only; nothing in the pipeline reads them back.
package event

import "github.com/google/uuid"

// Kind discriminates the payload carried by an Event.
type Kind string

const (
	VideoInfo     Kind = "video_info"
	ProcessSpawn  Kind = "child_process_spawn"
	ProcessClose  Kind = "child_process_close"
	ProcessError  Kind = "child_process_error"
	ProcessStdout Kind = "child_process_stdout"
	ProcessStderr Kind = "child_process_stderr"
)

// Event is a single notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind         Kind
	InvocationID uuid.UUID

	// VideoInfo
	Info any

	// Process events
	Command string
	Args    []string
	Dir     string
	Code    int
	Data    []byte
	Err     error
}

// Sink receives events.
type Sink interface {
	Handle(Event)
}

// HandlerFunc adapts a function to a Sink.
type HandlerFunc func(Event)

func (f HandlerFunc) Handle(e Event) {
	f(e)
}

// Discard drops every event.
var Discard Sink = HandlerFunc(func(Event) {})

// Or returns s, or Discard when s is nil.
func Or(s Sink) Sink {
	if s == nil {
		return Discard
	}

	return s
}
