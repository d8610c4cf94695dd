package queue

import "encoding/json"

const (
	// KindBlobDelete asks the worker to delete a blob that is no longer
	// referenced by any attachment.
	KindBlobDelete = "blob.delete"

	MessageVersion = 1
)

// Message is the payload sent to the blob cleanup worker.
type Message struct {
	Kind         string `json:"kind"`
	MediaURL     string `json:"mediaUrl"`
	AttachmentID string `json:"attachmentId,omitempty"`
	RequestID    string `json:"requestId,omitempty"`
	EnqueuedAt   string `json:"enqueuedAt"`
	Version      int    `json:"version"`
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
