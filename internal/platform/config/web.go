package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type WebConfig struct {
	JWTSecret       []byte
	AuthAPIURL      string
	RecipeAPIURL    string
	UpstreamTimeout time.Duration

	RedisURL       string
	ThreadCacheTTL time.Duration
	NATSURL        string

	RateLimitRPS   float64
	RateLimitBurst int

	// TrustProxy honours X-Forwarded-For from the load balancer.
	TrustProxy bool

	StaticDir string
}

// LoadWeb reads the settings of the web tier that fronts the auth and
// recipe services.
func LoadWeb() (WebConfig, error) {
	secret := env("JWT_SECRET")
	if secret == "" {
		return WebConfig{}, errors.New("JWT_SECRET is required")
	}
	authURL, err := baseURL("AUTH_API_URL")
	if err != nil {
		return WebConfig{}, err
	}
	recipeURL, err := baseURL("RECIPE_API_URL")
	if err != nil {
		return WebConfig{}, err
	}

	cfg := WebConfig{
		JWTSecret:    []byte(secret),
		AuthAPIURL:   authURL,
		RecipeAPIURL: recipeURL,
		RedisURL:     env("REDIS_URL"),
		NATSURL:      env("NATS_URL"),
		StaticDir:    env("STATIC_DIR"),
	}
	if cfg.UpstreamTimeout, err = duration("UPSTREAM_TIMEOUT", 10*time.Second); err != nil {
		return WebConfig{}, err
	}
	if cfg.ThreadCacheTTL, err = duration("THREAD_CACHE_TTL", 60*time.Second); err != nil {
		return WebConfig{}, err
	}
	if cfg.RateLimitRPS, err = float("RATE_LIMIT_RPS", 5); err != nil {
		return WebConfig{}, err
	}
	burst, err := float("RATE_LIMIT_BURST", 20)
	if err != nil {
		return WebConfig{}, err
	}
	cfg.RateLimitBurst = int(burst)
	if v := env("TRUST_PROXY"); v != "" {
		if cfg.TrustProxy, err = strconv.ParseBool(v); err != nil {
			return WebConfig{}, fmt.Errorf("TRUST_PROXY: invalid bool %q", v)
		}
	}
	return cfg, nil
}

func baseURL(key string) (string, error) {
	v := env(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(v)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%s must be an absolute URL, got %q", key, v)
	}
	return strings.TrimRight(v, "/"), nil
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := env(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func float(key string, fallback float64) (float64, error) {
	v := env(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("%s: invalid number %q", key, v)
	}
	return f, nil
}
