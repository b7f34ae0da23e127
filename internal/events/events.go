package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Frame is the JSON envelope exchanged with clients in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Conn is a live connection handle that rooms and sessions deliver events to.
type Conn interface {
	ID() string
	UserID() int64
	Username() string
	Emit(event string, data any)
}

// Encode builds an outbound frame.
func Encode(event string, data any) ([]byte, error) {
	frame := Frame{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", event, err)
		}
		frame.Data = raw
	}
	return json.Marshal(frame)
}

// ErrorPayload is the body of the "error" event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ValidationError reports a malformed event payload back to its sender.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Invalid returns a ValidationError with the given client-facing message.
func Invalid(message string) error {
	return &ValidationError{Message: message}
}

// PersistenceError wraps a failure from the storage layer.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

// ClientMessage picks the text sent to the client in an "error" event.
func ClientMessage(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var perr *PersistenceError
	if errors.As(err, &perr) {
		switch perr.Op {
		case OpSendMessage:
			return "Failed to send message"
		case OpMarkRead:
			return "Failed to mark messages as read"
		}
		return "Storage unavailable"
	}
	return "Internal error"
}
