package queue

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

// MessageVersion is the current wire version.
const MessageVersion = 1

var validate = validator.New()

// Step is one task invocation in a chain.
type Step struct {
	Task string          `json:"task" validate:"required"`
	Args json.RawMessage `json:"args" validate:"required"`
}

// Message carries the remaining steps of a task chain. Steps[0] runs next.
type Message struct {
	TaskID     string `json:"taskId" validate:"required"`
	RequestID  string `json:"requestId,omitempty"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
	// Chained is set once a predecessor step has run.
	Chained bool   `json:"chained,omitempty"`
	Steps   []Step `json:"steps" validate:"required,min=1,dive"`
}

// Validate checks the structural requirements of msg.
func (m Message) Validate() error {
	return validate.Struct(m)
}

// Next returns the message carrying the steps after the head, if any.
func (m Message) Next() (Message, bool) {
	if len(m.Steps) < 2 {
		return Message{}, false
	}
	next := m
	next.Steps = append([]Step(nil), m.Steps[1:]...)
	next.Chained = true
	return next, true
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
