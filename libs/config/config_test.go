package config

import (
	"testing"
	"time"
)

func TestIntAndSeconds(t *testing.T) {
	t.Setenv("COURTS_TEST_INT", "4")
	n, err := Int("COURTS_TEST_INT", 1)
	if err != nil || n != 4 {
		t.Fatalf("expected 4, got %d (%v)", n, err)
	}
	if n, err := Int("COURTS_TEST_MISSING", 7); err != nil || n != 7 {
		t.Fatalf("expected fallback 7, got %d (%v)", n, err)
	}
	t.Setenv("COURTS_TEST_BAD", "-3")
	if _, err := Int("COURTS_TEST_BAD", 1); err == nil {
		t.Fatal("expected error for negative int")
	}

	t.Setenv("COURTS_TEST_SECS", "30")
	d, err := Seconds("COURTS_TEST_SECS", time.Minute)
	if err != nil || d != 30*time.Second {
		t.Fatalf("expected 30s, got %s (%v)", d, err)
	}
}

func TestListAndBool(t *testing.T) {
	t.Setenv("COURTS_TEST_LIST", " a, ,b ,c")
	got := List("COURTS_TEST_LIST", "")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected list %v", got)
	}
	t.Setenv("COURTS_TEST_BOOL", "off")
	if Bool("COURTS_TEST_BOOL", true) {
		t.Fatal("expected false")
	}
	if !Bool("COURTS_TEST_BOOL_MISSING", true) {
		t.Fatal("expected fallback true")
	}
}

func TestPort(t *testing.T) {
	t.Setenv("COURTS_TEST_PORT", "70000")
	if _, err := Port("COURTS_TEST_PORT", "8080"); err == nil {
		t.Fatal("expected invalid port error")
	}
}
