package realtime

import (
	"testing"
	"time"
)

func TestStore_Create_Get(t *testing.T) {
	s := NewStore[string, string]()
	s.Create("job1", "state1")
	entry, ok := s.Get("job1")
	if !ok {
		t.Fatal("Get returned false for existing entry")
	}
	if entry.ID != "job1" {
		t.Errorf("entry ID %q, want job1", entry.ID)
	}
	if entry.State != "state1" {
		t.Errorf("entry State %q, want state1", entry.State)
	}

	if _, ok := s.Get("nonexistent"); ok {
		t.Error("Get should return false for missing ID")
	}
}

func TestStore_PublishSubscribe(t *testing.T) {
	s := NewStore[string, string]()
	s.Create("j1", "x")
	ch, release, ok := s.Subscribe("j1")
	if !ok {
		t.Fatal("Subscribe returned false for existing entry")
	}
	defer release()

	if !s.Publish("j1", "event1") {
		t.Fatal("Publish returned false for existing entry")
	}
	if got := <-ch; got != "event1" {
		t.Errorf("got %q, want event1", got)
	}
	if s.Publish("missing", "event1") {
		t.Error("Publish should report false for unknown entry")
	}
}

func TestStore_SubscribeUnknown(t *testing.T) {
	s := NewStore[string, string]()
	ch, release, ok := s.Subscribe("nope")
	if ok || ch != nil {
		t.Error("Subscribe should fail for unknown entry")
	}
	release()
}

func TestStore_SealKeepsEntryReadable(t *testing.T) {
	s := NewStore[string, string]()
	s.Create("j1", "final")
	ch, release, _ := s.Subscribe("j1")
	defer release()

	s.Seal("j1")
	if _, open := <-ch; open {
		t.Error("subscriber channel should be closed after Seal")
	}
	entry, ok := s.Get("j1")
	if !ok || entry.State != "final" {
		t.Error("sealed entry should still be readable")
	}
}

func TestStore_DeleteReleasesSubscribers(t *testing.T) {
	s := NewStore[string, string]()
	s.Create("j1", "x")
	ch, release, _ := s.Subscribe("j1")
	defer release()

	s.Delete("j1")
	if _, open := <-ch; open {
		t.Error("subscriber channel should be closed after Delete")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestStore_ExpireAfter(t *testing.T) {
	s := NewStore[string, string]()
	defer s.Close()
	s.Create("j1", "x")
	s.ExpireAfter("j1", 10*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if _, ok := s.Get("j1"); ok {
		t.Error("entry should be removed after expiry")
	}
}

func TestStore_ExpireAfterNonPositiveDeletesNow(t *testing.T) {
	s := NewStore[string, string]()
	s.Create("j1", "x")
	s.ExpireAfter("j1", 0)
	if _, ok := s.Get("j1"); ok {
		t.Error("entry should be removed immediately")
	}
	// unknown ids are ignored
	s.ExpireAfter("missing", time.Minute)
}

func TestStore_CloseStopsTimers(t *testing.T) {
	s := NewStore[string, string]()
	s.Create("j1", "x")
	s.Create("j2", "y")
	s.ExpireAfter("j1", time.Hour)
	s.Close()
	if s.Len() != 0 {
		t.Errorf("Len() = %d after Close, want 0", s.Len())
	}
}
