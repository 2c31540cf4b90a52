package metrics

import (
	"sync"
	"testing"
)

func TestTrackerRecordAndRecent(t *testing.T) {
	tr := NewTracker(t.TempDir())

	tr.Record(StreamEvent{RequestID: "r1", Model: "primary", Fragments: 3, Chars: 42, Outcome: "completed"})
	tr.Record(StreamEvent{RequestID: "r2", Model: "backup", Fallback: true, Outcome: "failed"})

	events, err := tr.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d", len(events))
	}
	if events[0].RequestID != "r1" || events[1].RequestID != "r2" {
		t.Errorf("order = %q, %q", events[0].RequestID, events[1].RequestID)
	}
	if events[0].Timestamp == "" {
		t.Error("timestamp not stamped on record")
	}
	if !events[1].Fallback || events[1].Outcome != "failed" {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestTrackerRecentLimit(t *testing.T) {
	tr := NewTracker(t.TempDir())
	for i := 0; i < 5; i++ {
		tr.Record(StreamEvent{RequestID: string(rune('a' + i)), Model: "m", Outcome: "completed"})
	}

	events, err := tr.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d", len(events))
	}
	if events[0].RequestID != "d" || events[1].RequestID != "e" {
		t.Errorf("kept = %q, %q, want two newest", events[0].RequestID, events[1].RequestID)
	}
}

func TestTrackerRecentMissingFile(t *testing.T) {
	tr := NewTracker(t.TempDir())
	events, err := tr.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if events != nil {
		t.Errorf("events = %v, want nil", events)
	}
}

func TestTrackerConcurrentRecord(t *testing.T) {
	tr := NewTracker(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Record(StreamEvent{RequestID: "r", Model: "m", Outcome: "completed"})
		}()
	}
	wg.Wait()

	events, err := tr.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 20 {
		t.Errorf("events = %d, want 20", len(events))
	}
}
