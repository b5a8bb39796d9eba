package cache

import (
	"testing"
	"time"
)

func TestManagerSetGet(t *testing.T) {
	m := newStringManager(time.Minute, time.Minute)
	if err := m.SetWithExpiration("hash-1", "https://cdn.example.com/a.png", time.Minute); err != nil {
		t.Fatalf("SetWithExpiration() error = %v", err)
	}
	got, err := m.GetValue("hash-1")
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if got != "https://cdn.example.com/a.png" {
		t.Errorf("GetValue() = %q", got)
	}
}

func TestManagerMissIsZeroValue(t *testing.T) {
	m := newStringManager(time.Minute, time.Minute)
	got, err := m.GetValue("absent")
	if err != nil {
		t.Fatalf("GetValue() miss error = %v", err)
	}
	if got != "" {
		t.Errorf("GetValue() miss = %q, want empty", got)
	}
}

func TestManagerExpiration(t *testing.T) {
	m := newStringManager(time.Minute, time.Minute)
	if err := m.SetWithExpiration("hash-2", "https://cdn.example.com/b.png", 10*time.Millisecond); err != nil {
		t.Fatalf("SetWithExpiration() error = %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	got, err := m.GetValue("hash-2")
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if got != "" {
		t.Errorf("expired entry still present: %q", got)
	}
}
