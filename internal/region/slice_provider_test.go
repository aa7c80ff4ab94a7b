package region

import (
	"bytes"
	"testing"
)

func TestSliceProviderGrowReturnsStableOffsets(t *testing.T) {
	p := NewSliceProvider(64)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	off1, err := p.Grow(16)
	if err != nil {
		t.Fatalf("Grow(16): %v", err)
	}

	if off1 != 0 {
		t.Errorf("first Grow offset = %d, want 0", off1)
	}

	base := &p.Bytes()[0]

	off2, err := p.Grow(16)
	if err != nil {
		t.Fatalf("Grow(16) second call: %v", err)
	}

	if off2 != 16 {
		t.Errorf("second Grow offset = %d, want 16", off2)
	}

	if &p.Bytes()[0] != base {
		t.Error("backing array moved across Grow calls")
	}

	if p.Break() != 32 {
		t.Errorf("Break() = %d, want 32", p.Break())
	}
}

func TestSliceProviderExhaustion(t *testing.T) {
	p := NewSliceProvider(32)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if _, err := p.Grow(32); err != nil {
		t.Fatalf("Grow(32) should fit exactly: %v", err)
	}

	if _, err := p.Grow(1); err != ErrExhausted {
		t.Errorf("Grow past capacity: got err=%v, want ErrExhausted", err)
	}
}

func TestSliceProviderBytesAreZeroed(t *testing.T) {
	p := NewSliceProvider(16)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if _, err := p.Grow(16); err != nil {
		t.Fatalf("Grow: %v", err)
	}

	if !bytes.Equal(p.Bytes(), make([]byte, 16)) {
		t.Error("freshly grown region should be zero-filled")
	}
}

func TestSliceProviderCloseResetsBuffer(t *testing.T) {
	p := NewSliceProvider(16)
	if err := p.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if _, err := p.Grow(8); err != nil {
		t.Fatalf("Grow: %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if p.Bytes() != nil {
		t.Error("Bytes() should be nil after Close")
	}
}
