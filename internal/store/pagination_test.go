package store

import (
	"math"
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 10, 19, 9, 30, 0, 123000, time.UTC), ID: 42}

	out, err := DecodeCursor(EncodeCursor(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) || out.ID != in.ID {
		t.Errorf("Expected %+v, got %+v", in, out)
	}
}

func TestDecodeEmptyCursorStartsAtNewest(t *testing.T) {
	c, err := DecodeCursor("")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.ID != math.MaxInt64 {
		t.Errorf("Expected max id, got %d", c.ID)
	}
	if !c.CreatedAt.After(time.Now()) {
		t.Errorf("Expected a future timestamp, got %s", c.CreatedAt)
	}
}

func TestDecodeMalformedCursor(t *testing.T) {
	if _, err := DecodeCursor("%%%"); err == nil {
		t.Error("Expected an error for a malformed cursor")
	}
}
