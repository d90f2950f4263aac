package lru

import "testing"

func TestNew_InvalidCapacity(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("New(0) should return error")
	}
}

func TestStrategy_Evicts(t *testing.T) {
	s, err := New(2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Add("/a")
	s.Add("/b")
	s.Contains("/a") // touch /a so /b is oldest
	if evicted := s.Add("/c"); !evicted {
		t.Error("Add() over capacity should report eviction")
	}

	if !s.Contains("/a") {
		t.Error("/a should survive as recently used")
	}
	if s.Contains("/b") {
		t.Error("/b should have been evicted")
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}
