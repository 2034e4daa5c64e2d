package utils

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestIDSetNoDuplicates(t *testing.T) {
	s := NewIDSet()

	if !s.Add("13267271") {
		t.Error("first Add should return true")
	}
	if s.Add("13267271") {
		t.Error("second Add of same ID should return false")
	}
	if !s.Contains("13267271") {
		t.Error("Contains should report a tracked ID")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestIDSetConcurrentAdd(t *testing.T) {
	s := NewIDSet()
	var added int64

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Add("same-id") {
				atomic.AddInt64(&added, 1)
			}
		}()
	}
	wg.Wait()

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}
