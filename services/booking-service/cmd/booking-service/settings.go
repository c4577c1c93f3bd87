package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/courtbook/libs/config"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/courtbook/services/booking-service/internal/model"
)

type settings struct {
	service  string
	port     string
	grpcPort string

	storageDriver string
	databaseURL   string
	maxConns      int
	migrate       bool
	clubWindow    *model.OperatingWindow
	clubDeposit   int64

	redisAddr     string
	redisPassword string
	redisDB       int
	cacheTTL      time.Duration

	brokers         []string
	outboxRetention time.Duration

	location   *time.Location
	courts     []int
	fallback   *model.OperatingWindow
	pendingTTL time.Duration
	expiryTick time.Duration

	jwtSecret       string
	trustUserHeader bool
	adminUser       string
	adminHash       string
	adminTokenTTL   time.Duration

	stripeSecret    string
	stripeTolerance time.Duration

	rateLimit   int
	corsOrigins []string
}

func loadSettings() (settings, error) {
	s := settings{
		service:       config.String("SERVICE_NAME", "booking-service"),
		grpcPort:      config.String("GRPC_PORT", "9083"),
		storageDriver: strings.ToLower(config.String("STORAGE_DRIVER", "postgres")),
		migrate:       config.Bool("MIGRATE_ON_START", false),
		redisAddr:     config.String("REDIS_ADDR", ""),
		redisPassword: config.String("REDIS_PASSWORD", ""),
		brokers:       config.List("KAFKA_BROKERS", ""),
		jwtSecret:     config.String("JWT_SECRET", ""),
		adminUser:     config.String("ADMIN_USERNAME", ""),
		adminHash:     config.String("ADMIN_PASSWORD_HASH", ""),
		stripeSecret:  config.String("STRIPE_WEBHOOK_SECRET", ""),
		corsOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
	}
	var err error
	if s.port, err = config.Port("PORT", "8083"); err != nil {
		return s, err
	}

	switch s.storageDriver {
	case "postgres":
		if s.databaseURL, err = config.RequiredString("DATABASE_URL"); err != nil {
			return s, err
		}
	case "memory":
		if raw := config.String("CLUB_WINDOW", "14:00-02:00/60"); raw != "" {
			w, err := model.ParseWindow(raw)
			if err != nil {
				return s, fmt.Errorf("CLUB_WINDOW: %w", err)
			}
			s.clubWindow = &w
		}
		deposit, err := config.Int("CLUB_DEPOSIT_CENTS", 0)
		if err != nil {
			return s, err
		}
		s.clubDeposit = int64(deposit)
	default:
		return s, fmt.Errorf("STORAGE_DRIVER must be postgres or memory (got %q)", s.storageDriver)
	}

	if s.maxConns, err = config.Int("DB_MAX_CONNS", 10); err != nil {
		return s, err
	}
	if s.redisDB, err = config.Int("REDIS_DB", 0); err != nil {
		return s, err
	}
	if s.cacheTTL, err = config.Seconds("SNAPSHOT_CACHE_TTL_SECONDS", 30*time.Second); err != nil {
		return s, err
	}
	if s.outboxRetention, err = config.Seconds("OUTBOX_RETENTION_SECONDS", 7*24*time.Hour); err != nil {
		return s, err
	}

	if s.location, err = time.LoadLocation(config.String("CLUB_TIMEZONE", "UTC")); err != nil {
		return s, fmt.Errorf("CLUB_TIMEZONE: %w", err)
	}
	if s.courts, err = parseCourts(config.String("COURTS", "1,2,3")); err != nil {
		return s, err
	}
	// FALLBACK_WINDOW unset lists availability.DefaultFallbackWindow
	// (14:00-00:00/60) while the stored window is broken; "off" disables it.
	switch raw := config.String("FALLBACK_WINDOW", ""); strings.ToLower(raw) {
	case "":
		w := availability.DefaultFallbackWindow()
		s.fallback = &w
	case "off", "none":
	default:
		w, err := model.ParseWindow(raw)
		if err != nil {
			return s, fmt.Errorf("FALLBACK_WINDOW: %w", err)
		}
		s.fallback = &w
	}
	s.trustUserHeader = config.Bool("TRUST_USER_HEADER", false)

	minutes, err := config.Int("PENDING_TTL_MINUTES", 30)
	if err != nil {
		return s, err
	}
	s.pendingTTL = time.Duration(minutes) * time.Minute
	if s.expiryTick, err = config.Seconds("EXPIRY_INTERVAL_SECONDS", time.Minute); err != nil {
		return s, err
	}

	if s.adminTokenTTL, err = config.Seconds("ADMIN_TOKEN_TTL_SECONDS", 12*time.Hour); err != nil {
		return s, err
	}
	if s.stripeTolerance, err = config.Seconds("STRIPE_WEBHOOK_TOLERANCE_SECONDS", 5*time.Minute); err != nil {
		return s, err
	}
	if s.rateLimit, err = config.Int("RATE_LIMIT_PER_MINUTE", 120); err != nil {
		return s, err
	}
	return s, nil
}

// parseCourts reads a list like "1,2,3" or a range like "1-4".
func parseCourts(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || first <= 0 {
			return nil, fmt.Errorf("COURTS: invalid court %q", part)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || last < first {
				return nil, fmt.Errorf("COURTS: invalid range %q", part)
			}
		}
		for c := first; c <= last; c++ {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("COURTS: no courts configured")
	}
	return out, nil
}
