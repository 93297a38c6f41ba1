package uuid

import (
	"strings"
	"testing"
)

func TestNew_IsVersion7AndOrdered(t *testing.T) {
	a, b := New(), New()
	if a[14] != '7' {
		t.Errorf("expected version 7, got %s", a)
	}
	if strings.Compare(a[:13], b[:13]) > 0 {
		t.Errorf("expected time-ordered ids, got %s then %s", a, b)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("0190F2C4-0000-7000-8000-0000000000AA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "0190f2c4-0000-7000-8000-0000000000aa" {
		t.Errorf("expected lower-case form, got %s", got)
	}
	if _, err := Parse("42"); err == nil {
		t.Error("expected error for malformed id")
	}
}
