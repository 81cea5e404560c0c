package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr         string
	DatabasePath string // empty: in-memory round store

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	// HouseSeed signs payouts; the house address is derived from it by the
	// wallet collaborator at boot.
	HouseSeed  string
	MemoPrefix string
	Decks      int

	RoundRetention  time.Duration
	JanitorInterval time.Duration

	AppEnv           string
	WSAllowedOrigins []string
}

func LoadFromEnv() (Config, error) {
	// .env is a dev convenience; absence is not an error.
	_ = godotenv.Load()

	ttlMinutes := int64(10080) // 7 days
	if v := os.Getenv("JWT_TTL_MINUTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ttlMinutes = n
		} else {
			fmt.Fprintf(os.Stderr, "WARNING: invalid JWT_TTL_MINUTES=%q, using default %d\n", v, ttlMinutes)
		}
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "blackjack-house"
	}

	cfg := Config{
		Addr:            os.Getenv("BACKEND_ADDR"),
		DatabasePath:    os.Getenv("DATABASE_PATH"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTIssuer:       issuer,
		JWTTTL:          time.Duration(ttlMinutes) * time.Minute,
		HouseSeed:       strings.TrimSpace(os.Getenv("HOUSE_SEED")),
		MemoPrefix:      strings.TrimSpace(os.Getenv("ESCROW_MEMO_PREFIX")),
		Decks:           6,
		RoundRetention:  24 * time.Hour,
		JanitorInterval: time.Hour,
		AppEnv:          strings.TrimSpace(os.Getenv("APP_ENV")),
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.MemoPrefix == "" {
		cfg.MemoPrefix = "bj"
	}

	if v := os.Getenv("SHOE_DECKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 8 {
			cfg.Decks = n
		} else {
			fmt.Fprintf(os.Stderr, "WARNING: invalid SHOE_DECKS=%q, using default %d\n", v, cfg.Decks)
		}
	}
	if v := os.Getenv("ROUND_RETENTION_HOURS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.RoundRetention = time.Duration(n) * time.Hour
		}
	}

	if v := os.Getenv("WS_ALLOWED_ORIGINS"); v != "" {
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.WSAllowedOrigins = append(cfg.WSAllowedOrigins, p)
			}
		}
	}

	var missing []string
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if cfg.HouseSeed == "" {
		missing = append(missing, "HOUSE_SEED")
	}
	// BACKEND_ADDR is optional if PORT is set by the hosting environment.
	if cfg.Addr == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			if strings.Contains(port, ":") {
				cfg.Addr = port
			} else {
				cfg.Addr = ":" + port
			}
		}
	}
	if cfg.Addr == "" {
		missing = append(missing, "BACKEND_ADDR (or PORT)")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing/invalid env: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}
