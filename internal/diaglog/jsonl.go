package diaglog

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type jsonlEntry struct {
	Timestamp string `json:"ts"`
	Message   string `json:"msg"`
}

// WriterSink appends one JSON object per line to w.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// OpenJSONL opens (creating when needed) an append-only JSONL file.
func OpenJSONL(path string) (*WriterSink, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return NewWriterSink(f), f, nil
}

func (s *WriterSink) Append(_ context.Context, at time.Time, message string) error {
	b, err := json.Marshal(jsonlEntry{Timestamp: at.Format(time.RFC3339Nano), Message: message})
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(append(b, '\n'))
	return err
}
