package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"finanzas/internal/core"
)

// ChangeMessage announces one committed store mutation. It carries no entity
// data; consumers reload the snapshot.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	Operation  string    `json:"operation"`
	ID         string    `json:"id"`
	Revision   uint64    `json:"revision"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewChangeMessage builds the message for ev, stamped with ev's commit time
// or now when it has none.
func NewChangeMessage(ev core.ChangeEvent) *ChangeMessage {
	ts := ev.At
	if ts.IsZero() {
		ts = time.Now()
	}
	return &ChangeMessage{
		Collection: string(ev.Collection),
		Operation:  ev.Operation,
		ID:         ev.ID,
		Revision:   ev.Revision,
		Timestamp:  ts,
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and rejects ones without a
// collection.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Collection == "" {
		return nil, errors.New("change message without collection")
	}
	return &msg, nil
}
