package amqp

import (
	"encoding/json"
	"time"
)

// Message kinds carried on the sync queue.
const (
	TypeFileSync   = "file.sync"
	TypeFileDelete = "file.delete"
)

// FileMessage is the lightweight envelope published per file mutation. It
// carries only identifiers; the worker fetches the full file from the
// database before exporting.
type FileMessage struct {
	Type      string    `json:"type"`
	Path      string    `json:"path,omitempty"`
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
}

// NewFileSyncMessage announces a freshly stored file.
func NewFileSyncMessage(path, filename string) *FileMessage {
	return &FileMessage{
		Type:      TypeFileSync,
		Path:      path,
		Filename:  filename,
		Timestamp: time.Now(),
	}
}

// NewFileDeleteMessage announces a removed file.
func NewFileDeleteMessage(filename string) *FileMessage {
	return &FileMessage{
		Type:      TypeFileDelete,
		Filename:  filename,
		Timestamp: time.Now(),
	}
}

func (m *FileMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func FileMessageFromJSON(data []byte) (*FileMessage, error) {
	var msg FileMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
