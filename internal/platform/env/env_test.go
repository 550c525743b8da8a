package env

import (
	"testing"
	"time"
)

func TestString(t *testing.T) {
	t.Setenv("DAYBOOK_TEST_STRING", "  value ")
	if got := String("DAYBOOK_TEST_STRING", "fallback"); got != "value" {
		t.Fatalf("unexpected value: %q", got)
	}
	if got := String("DAYBOOK_TEST_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestIntAndBool(t *testing.T) {
	t.Setenv("DAYBOOK_TEST_INT", "12")
	t.Setenv("DAYBOOK_TEST_BAD_INT", "twelve")
	t.Setenv("DAYBOOK_TEST_BOOL", "true")

	if got := Int("DAYBOOK_TEST_INT", 1); got != 12 {
		t.Fatalf("unexpected int: %d", got)
	}
	if got := Int("DAYBOOK_TEST_BAD_INT", 1); got != 1 {
		t.Fatalf("expected fallback int, got %d", got)
	}
	if !Bool("DAYBOOK_TEST_BOOL", false) {
		t.Fatal("expected true")
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("DAYBOOK_TEST_DURATION", "-5s")
	if got := Duration("DAYBOOK_TEST_DURATION", time.Second); got != time.Second {
		t.Fatalf("negative duration must fall back, got %s", got)
	}
	t.Setenv("DAYBOOK_TEST_DURATION", "45s")
	if got := Duration("DAYBOOK_TEST_DURATION", time.Second); got != 45*time.Second {
		t.Fatalf("unexpected duration: %s", got)
	}
}

func TestLocation(t *testing.T) {
	t.Setenv("DAYBOOK_TEST_TZ", "UTC")
	if got := Location("DAYBOOK_TEST_TZ"); got != time.UTC {
		t.Fatalf("expected UTC, got %v", got)
	}
	t.Setenv("DAYBOOK_TEST_TZ", "Not/AZone")
	if got := Location("DAYBOOK_TEST_TZ"); got != time.Local {
		t.Fatalf("expected Local fallback, got %v", got)
	}
}
