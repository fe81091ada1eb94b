// pkg/config/settings.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Settings are process-level knobs (bind addresses, stores, auth) read
// from the environment. The system document (stratus.yaml) holds the
// deployment topology; Settings hold how this process runs.
type Settings struct {
	Env      string
	HTTPAddr string

	// Optional stores. Empty URL means the in-memory fallback.
	DatabaseURL string
	RedisURL    string

	// Document cache TTL for the config service.
	DocumentTTL time.Duration

	// OIDC / JWT for the config-service v1 surface (optional in dev).
	Issuer   string
	Audience string
	JWKSURL  string

	// Command the deployment sequencer shells out to per stack.
	DeployCmd string

	// Seed for the in-memory stack-output reader (JSON: stack -> outputs).
	StackOutputsSeed string
}

func LoadSettings() Settings {
	_ = godotenv.Load()
	s := Settings{
		Env:              env("STRATUS_ENV", "dev"),
		HTTPAddr:         env("STRATUS_HTTP_ADDR", ":8090"),
		DatabaseURL:      env("DATABASE_URL", ""),
		RedisURL:         env("REDIS_URL", ""),
		DocumentTTL:      envDur("DOCUMENT_CACHE_TTL_SEC", 30) * time.Second,
		Issuer:           env("OIDC_ISSUER", ""),
		Audience:         env("OIDC_AUDIENCE", "stratus-config"),
		JWKSURL:          env("JWKS_URL", ""),
		DeployCmd:        env("STRATUS_DEPLOY_CMD", "sam"),
		StackOutputsSeed: env("STACK_OUTPUTS_JSON", ""),
	}
	if s.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set; using in-memory audit store for dev")
	}
	return s
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
