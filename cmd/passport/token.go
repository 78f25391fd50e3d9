package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/skilllink-support/internal/auth"
	"github.com/spec-kit/skilllink-support/internal/config"
)

// issueToken signs an operator token for the admin API with the shared secret.
func issueToken(cfg config.AuthConfig, role, subject string, ttl time.Duration) (string, time.Time, error) {
	if cfg.JWTSecret == "" {
		return "", time.Time{}, errors.New("AUTH_JWT_SECRET is not set")
	}
	switch role {
	case auth.RoleAdmin, auth.RoleServiceRole, auth.RoleRecruiter, auth.RoleStudent:
	default:
		return "", time.Time{}, fmt.Errorf("unknown role %q", role)
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return auth.NewTokenManager(cfg.JWTSecret).GenerateToken(subject, role, ttl)
}
