package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/VJ-Laxmi/my-Shop/infra/supabase"
	"github.com/VJ-Laxmi/my-Shop/internal/config"
	"github.com/VJ-Laxmi/my-Shop/internal/gateway"
	"github.com/VJ-Laxmi/my-Shop/internal/httputil"
	"github.com/VJ-Laxmi/my-Shop/internal/identity"
	"github.com/VJ-Laxmi/my-Shop/internal/logging"
	"github.com/VJ-Laxmi/my-Shop/internal/metrics"
	"github.com/VJ-Laxmi/my-Shop/internal/middleware"
	"github.com/VJ-Laxmi/my-Shop/internal/platform/migrations"
)

const rateLimitCleanupInterval = 5 * time.Minute

// app is the wired gateway.
type app struct {
	Handler http.Handler
	closers []io.Closer
}

// Close releases resources opened by buildApp.
func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

type roleBackend interface {
	identity.RoleDirectory
	identity.ProfileSource
}

func buildApp(ctx context.Context, cfg *config.Config, logger *logging.Logger, m *metrics.Metrics) (*app, error) {
	var client *supabase.Client
	client, err := supabase.New(supabase.Config{
		ProjectURL:     cfg.SupabaseURL,
		APIKey:         cfg.APIKey(),
		ServiceRoleKey: cfg.SupabaseServiceRoleKey,
		Timeout:        cfg.SupabaseTimeout,
		Breaker: supabase.CircuitBreakerConfig{
			FailureThreshold: cfg.BreakerFailureThreshold,
			Timeout:          cfg.BreakerCooldown,
			OnStateChange: func(from, to supabase.CircuitState) {
				entry := logger.WithFields(map[string]interface{}{
					"from": from.String(),
					"to":   to.String(),
				})
				if to == supabase.CircuitOpen && client != nil {
					if last := client.Breaker().LastError(); last != nil {
						entry = entry.WithError(last)
					}
				}
				entry.Warn("Supabase circuit breaker state changed")
			},
		},
		Observer: m.ObserveUpstream,
	})
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}

	a := &app{}

	var verifier identity.Verifier
	switch cfg.AuthVerifier {
	case config.VerifierJWT:
		verifier, err = identity.NewJWTVerifier(cfg.SupabaseJWTSecret, cfg.JWTAudience)
		if err != nil {
			return nil, err
		}
	default:
		verifier = identity.NewSupabaseVerifier(client)
	}

	var roles roleBackend
	switch cfg.RoleStore {
	case config.RoleStorePostgres:
		store, err := identity.OpenPostgresRoleStore(ctx, cfg.DatabaseURL, cfg.SupabaseTimeout)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		if cfg.AutoMigrate {
			if err := migrations.Apply(ctx, store.DB()); err != nil {
				a.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.WithField("statements", migrations.Count()).Info("Role store schema applied")
		}
		roles = store
	default:
		roles = identity.NewSupabaseRoleStore(client)
	}

	responder := &httputil.Responder{StrictStatus: cfg.StrictStatusCodes, Logger: logger}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(float64(cfg.RateLimitRPS), cfg.RateLimitBurst, logger, responder)
		limiter.StartCleanup(ctx, rateLimitCleanupInterval)
	}

	a.Handler = gateway.NewRouter(gateway.Deps{
		Logger:      logger,
		Metrics:     m,
		Responder:   responder,
		Verifier:    verifier,
		Roles:       roles,
		Profiles:    roles,
		Accounts:    identity.NewSupabaseAccountAdmin(client),
		AdminRole:   cfg.AdminRole,
		RateLimiter: limiter,
		UpstreamState: func() string {
			return client.Breaker().State().String()
		},
	})
	return a, nil
}
