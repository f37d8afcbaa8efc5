package events

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	received := make(chan Event, 1)
	bus.Subscribe(EventTaskMoved, func(e Event) {
		received <- e
	})

	bus.Publish(EventTaskMoved, map[string]interface{}{"slug": "abc123-feat"})

	select {
	case e := <-received:
		if e.Type != EventTaskMoved {
			t.Errorf("event type = %q", e.Type)
		}
		if e.Data["slug"] != "abc123-feat" {
			t.Errorf("event data = %v", e.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBusTypeFiltering(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	received := make(chan Event, 1)
	bus.Subscribe(EventTaskDeleted, func(e Event) {
		received <- e
	})

	bus.Publish(EventTaskMoved, map[string]interface{}{"slug": "x"})

	select {
	case e := <-received:
		t.Fatalf("subscriber got event of wrong type: %v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	received := make(chan Event, 1)
	unsub := bus.Subscribe(EventTaskCreated, func(e Event) {
		received <- e
	})
	unsub()

	bus.Publish(EventTaskCreated, map[string]interface{}{"slug": "x"})

	select {
	case <-received:
		t.Fatal("unsubscribed subscriber received event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBusSubscriberPanicRecovered(t *testing.T) {
	bus := NewBus(10)
	defer bus.Close()

	received := make(chan Event, 1)
	bus.Subscribe(EventTaskMoved, func(e Event) {
		panic("boom")
	})
	bus.Subscribe(EventTaskMoved, func(e Event) {
		received <- e
	})

	bus.Publish(EventTaskMoved, map[string]interface{}{"slug": "x"})

	select {
	case <-received:
	case <-time.After(time.Second):
		t.Fatal("healthy subscriber starved by panicking one")
	}
}

func TestBusCloseDrainsBufferedEvents(t *testing.T) {
	bus := NewBus(10)

	var delivered atomic.Int32
	bus.Subscribe(EventTaskMoved, func(e Event) {
		time.Sleep(20 * time.Millisecond) // slower than the publisher
		delivered.Add(1)
	})

	for i := 0; i < 3; i++ {
		bus.Publish(EventTaskMoved, map[string]interface{}{"slug": "abc123-feat"})
	}
	bus.Close()

	if got := delivered.Load(); got != 3 {
		t.Errorf("delivered after Close = %d, want 3", got)
	}
}

func TestAuditLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "events.jsonl")

	logger, err := NewAuditLogger(logPath)
	if err != nil {
		t.Fatalf("new audit logger: %v", err)
	}
	defer logger.Close()

	err = logger.Record(EventTaskMoved, map[string]interface{}{
		"slug": "abc123-feat",
		"from": "backlog",
		"to":   "planning",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	f, err := os.Open(logPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("audit log is empty")
	}
	var entry LogEntry
	if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
		t.Fatalf("parse entry: %v", err)
	}
	if entry.EventType != string(EventTaskMoved) || entry.TaskSlug != "abc123-feat" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.From != "backlog" || entry.To != "planning" {
		t.Errorf("edge fields = %q → %q", entry.From, entry.To)
	}
}

func TestAuditLoggerAttach(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "events.jsonl")
	logger, err := NewAuditLogger(logPath)
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()

	bus := NewBus(10)
	defer bus.Close()
	detach := logger.Attach(bus)
	defer detach()

	bus.Publish(EventTaskDeleted, map[string]interface{}{"slug": "abc123-feat"})

	// Delivery is async; poll briefly for the line to land.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		data, _ := os.ReadFile(logPath)
		if len(data) > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("attached logger never wrote the event")
}
