package main

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
)

func TestParseCourts(t *testing.T) {
	got, err := parseCourts("1-3, 5")
	if err != nil {
		t.Fatalf("parseCourts: %v", err)
	}
	if len(got) != 4 || got[0] != 1 || got[2] != 3 || got[3] != 5 {
		t.Fatalf("unexpected courts %v", got)
	}
	for _, bad := range []string{"", "0", "a", "4-2"} {
		if _, err := parseCourts(bad); err == nil {
			t.Fatalf("parseCourts(%q) should fail", bad)
		}
	}
}

func TestLoadSettingsMemory(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CLUB_WINDOW", "18:00-01:00/90")
	t.Setenv("FALLBACK_WINDOW", "14:00-00:00/60")
	t.Setenv("CLUB_TIMEZONE", "Europe/Madrid")
	t.Setenv("PENDING_TTL_MINUTES", "20")
	s, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if s.clubWindow == nil || s.clubWindow.SlotMinutes != 90 || s.fallback == nil || s.fallback.OpensAt != 14*60 {
		t.Fatalf("unexpected windows %+v %+v", s.clubWindow, s.fallback)
	}
	if s.location.String() != "Europe/Madrid" || s.pendingTTL != 20*time.Minute {
		t.Fatalf("unexpected settings %+v", s)
	}
}

func TestLoadSettingsFallbackDefault(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("FALLBACK_WINDOW", "")
	s, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if s.fallback == nil || *s.fallback != availability.DefaultFallbackWindow() {
		t.Fatalf("expected the default fallback window, got %+v", s.fallback)
	}
	if s.trustUserHeader {
		t.Fatal("X-User-Id must not be trusted by default")
	}

	t.Setenv("FALLBACK_WINDOW", "off")
	t.Setenv("TRUST_USER_HEADER", "true")
	if s, err = loadSettings(); err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if s.fallback != nil || !s.trustUserHeader {
		t.Fatalf("expected fallback disabled and header trusted, got %+v %v", s.fallback, s.trustUserHeader)
	}
}

func TestLoadSettingsRejects(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	if _, err := loadSettings(); err == nil {
		t.Fatal("expected unknown driver to fail")
	}
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := loadSettings(); err == nil {
		t.Fatal("expected missing DATABASE_URL to fail")
	}
}
