package cache

import (
	"testing"
	"time"
)

func TestMemoryCache_GetSet(t *testing.T) {
	c := NewMemoryCache[string](0, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Expected miss for unknown key")
	}

	key := Key("municipality", "MOTERIA")
	c.Set(key, "MONTERIA", 0)

	got, ok := c.Get(key)
	if !ok || got != "MONTERIA" {
		t.Errorf("Expected MONTERIA, got %q (found=%v)", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 item, got %d", c.Len())
	}

	c.Delete(key)
	if _, ok := c.Get(key); ok {
		t.Error("Expected miss after Delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache[int](time.Hour, time.Minute)
	c.Set("short", 1, 10*time.Millisecond)
	c.Set("long", 2, 0)

	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("Expected short-lived entry to expire")
	}
	if v, ok := c.Get("long"); !ok || v != 2 {
		t.Errorf("Expected long entry to survive, got %v (found=%v)", v, ok)
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache[string](0, time.Minute)
	c.Set("a", "1", 0)
	c.Set("b", "2", 0)
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d items", c.Len())
	}
}

func TestKey(t *testing.T) {
	if got := Key("insurer", "SURA"); got != "canonica:v1:insurer:SURA" {
		t.Errorf("Unexpected key %q", got)
	}
}
