package config

import (
	"testing"
	"time"
)

func TestStringFallback(t *testing.T) {
	t.Setenv("CFG_TEST_STRING", "")
	if got := String("CFG_TEST_STRING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("CFG_TEST_STRING", "set")
	if got := String("CFG_TEST_STRING", "fallback"); got != "set" {
		t.Fatalf("expected set, got %q", got)
	}
}

func TestPortValidation(t *testing.T) {
	for _, tc := range []struct {
		value string
		ok    bool
	}{
		{"8080", true},
		{"1", true},
		{"65535", true},
		{"0", false},
		{"65536", false},
		{"http", false},
	} {
		t.Setenv("CFG_TEST_PORT", tc.value)
		_, err := Port("CFG_TEST_PORT", "8080")
		if tc.ok && err != nil {
			t.Fatalf("Port(%q) unexpected error: %v", tc.value, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("Port(%q) expected error", tc.value)
		}
	}
}

func TestDurationFallsBackOnGarbage(t *testing.T) {
	t.Setenv("CFG_TEST_DURATION", "not-a-duration")
	if got := Duration("CFG_TEST_DURATION", 2*time.Second); got != 2*time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
	t.Setenv("CFG_TEST_DURATION", "1m30s")
	if got := Duration("CFG_TEST_DURATION", 2*time.Second); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
	t.Setenv("CFG_TEST_DURATION", "-5s")
	if got := Duration("CFG_TEST_DURATION", 2*time.Second); got != 2*time.Second {
		t.Fatalf("negative duration should fall back, got %v", got)
	}
}

func TestListTrimsAndDropsEmpty(t *testing.T) {
	t.Setenv("CFG_TEST_LIST", " a, b ,,c ")
	got := List("CFG_TEST_LIST", "")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
