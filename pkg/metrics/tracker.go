package metrics

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StreamEvent records the outcome of a single streamed chat call.
type StreamEvent struct {
	Timestamp  string `json:"ts"`
	RequestID  string `json:"request"`
	Agent      string `json:"agent,omitempty"`
	Model      string `json:"model"`
	Fallback   bool   `json:"fallback,omitempty"`
	Fragments  int    `json:"fragments"`
	Chars      int    `json:"chars"`
	DurationMS int64  `json:"duration_ms"`
	Outcome    string `json:"outcome"`
}

// Tracker appends stream events to a JSONL file.
type Tracker struct {
	filePath string
	mu       sync.Mutex
}

// NewTracker creates a tracker that writes to workspace/metrics/streams.jsonl.
func NewTracker(workspace string) *Tracker {
	dir := filepath.Join(workspace, "metrics")
	os.MkdirAll(dir, 0755)
	return &Tracker{
		filePath: filepath.Join(dir, "streams.jsonl"),
	}
}

// Record appends a stream event to the JSONL file. Failures are dropped;
// metrics never block or fail a chat call.
func (t *Tracker) Record(event StreamEvent) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().Format(time.RFC3339)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	f.Write(data)
	f.Write([]byte("\n"))
}

// Recent returns up to limit most recent events, oldest first.
func (t *Tracker) Recent(limit int) ([]StreamEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Open(t.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var events []StreamEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev StreamEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}
