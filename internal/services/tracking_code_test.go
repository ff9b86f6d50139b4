package services

import (
	"strings"
	"testing"
	"time"
)

func TestTrackingCodeFormat(t *testing.T) {
	gen := NewTrackingCodeGenerator()
	gen.clock = func() time.Time { return time.UnixMilli(1700000000000).UTC() }
	gen.random = func(b []byte) error {
		for i := range b {
			b[i] = byte(i)
		}
		return nil
	}

	code, err := gen.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(code, "TF-") {
		t.Fatalf("missing prefix: %q", code)
	}
	if code != strings.ToUpper(code) {
		t.Fatalf("code not uppercase: %q", code)
	}
	if len(code) != len("TF-")+9+4 {
		t.Fatalf("unexpected length for %q", code)
	}
	for _, r := range code[3:] {
		if !strings.ContainsRune(trackingCodeAlphabet, r) {
			t.Fatalf("character %q outside base36 alphabet in %q", r, code)
		}
	}
}

func TestTrackingCodeUniqueness(t *testing.T) {
	gen := NewTrackingCodeGenerator()
	base := time.UnixMilli(1700000000000)
	tick := 0
	gen.clock = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if _, ok := seen[code]; ok {
			t.Fatalf("duplicate code after %d iterations: %s", i, code)
		}
		seen[code] = struct{}{}
	}
}
