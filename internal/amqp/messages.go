package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DatasetImportedMessage announces that a new source table was stored and
// readers should reload.
type DatasetImportedMessage struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Rows       int       `json:"rows"`
	ImportedAt time.Time `json:"imported_at"`
}

// NewDatasetImportedMessage creates a message with a fresh ID.
func NewDatasetImportedMessage(source string, rows int) *DatasetImportedMessage {
	return &DatasetImportedMessage{
		ID:         uuid.NewString(),
		Source:     source,
		Rows:       rows,
		ImportedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DatasetImportedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate checks the fields a consumer relies on.
func (m *DatasetImportedMessage) Validate() error {
	if _, err := uuid.Parse(m.ID); err != nil {
		return fmt.Errorf("invalid message id %q: %w", m.ID, err)
	}
	if strings.TrimSpace(m.Source) == "" {
		return errors.New("message source is required")
	}
	if m.Rows < 0 {
		return fmt.Errorf("invalid row count %d", m.Rows)
	}
	return nil
}

// DatasetImportedMessageFromJSON decodes and validates a message.
func DatasetImportedMessageFromJSON(data []byte) (*DatasetImportedMessage, error) {
	var msg DatasetImportedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
