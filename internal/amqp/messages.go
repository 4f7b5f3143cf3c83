package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

type Action string

const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

// InvoiceSyncMessage only carries the invoice ID; the worker reads the
// current snapshot from the store when handling it.
type InvoiceSyncMessage struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewInvoiceSyncMessage(id string, action Action) *InvoiceSyncMessage {
	return &InvoiceSyncMessage{
		ID:        id,
		Action:    action,
		Timestamp: time.Now().UTC(),
	}
}

func (m *InvoiceSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// InvoiceSyncMessageFromJSON decodes a message. A missing action is treated
// as an upsert.
func InvoiceSyncMessageFromJSON(data []byte) (*InvoiceSyncMessage, error) {
	var msg InvoiceSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("message has no invoice id")
	}
	switch msg.Action {
	case "":
		msg.Action = ActionUpsert
	case ActionUpsert, ActionDelete:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}
