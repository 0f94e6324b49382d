package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Change operations carried by RecordChangeMessage
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// RecordChangeMessage announces a committed write to one record. Record holds
// the stored JSON for create and update and is empty for delete.
type RecordChangeMessage struct {
	Bucket    string          `json:"bucket"`
	ID        string          `json:"id"`
	Op        string          `json:"op"`
	Record    json.RawMessage `json:"record,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewRecordChangeMessage encodes record (which may be nil) into a change message
func NewRecordChangeMessage(bucket, id, op string, record any) (*RecordChangeMessage, error) {
	msg := &RecordChangeMessage{
		Bucket:    bucket,
		ID:        id,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
	if record != nil {
		raw, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("encode record: %w", err)
		}
		msg.Record = raw
	}
	return msg, nil
}

func (m *RecordChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate rejects messages a consumer cannot act on
func (m *RecordChangeMessage) Validate() error {
	if m.Bucket == "" {
		return errors.New("missing bucket")
	}
	if m.ID == "" {
		return errors.New("missing id")
	}
	switch m.Op {
	case OpCreate, OpUpdate, OpDelete:
	default:
		return fmt.Errorf("unknown op %q", m.Op)
	}
	return nil
}

// RecordChangeMessageFromJSON decodes and validates a message body
func RecordChangeMessageFromJSON(data []byte) (*RecordChangeMessage, error) {
	var msg RecordChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
