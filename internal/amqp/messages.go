package amqp

import (
	"encoding/json"
	"time"
)

// ChangeMessage notifies the export worker that a collection changed.
// It carries only the collection key and the id of the affected record;
// the worker reads the full collection back from storage.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	Action     string    `json:"action"`
	Ref        string    `json:"ref"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(collection, action, ref string) *ChangeMessage {
	return &ChangeMessage{
		Collection: collection,
		Action:     action,
		Ref:        ref,
		Timestamp:  time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
