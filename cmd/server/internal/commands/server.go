package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tenantguard/internal/authz"
	"github.com/wolfeidau/tenantguard/internal/bootstrap"
	"github.com/wolfeidau/tenantguard/internal/cache"
	httpmiddleware "github.com/wolfeidau/tenantguard/internal/httpmiddleware"
	"github.com/wolfeidau/tenantguard/internal/identity"
	"github.com/wolfeidau/tenantguard/internal/logger"
	"github.com/wolfeidau/tenantguard/internal/securityevent"
	"github.com/wolfeidau/tenantguard/internal/server"
	"github.com/wolfeidau/tenantguard/internal/store"
	memorystore "github.com/wolfeidau/tenantguard/internal/store/memory"
	postgresstore "github.com/wolfeidau/tenantguard/internal/store/postgres"
	"github.com/wolfeidau/tenantguard/internal/telemetry"
	"golang.org/x/oauth2"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"TENANTGUARD_LISTEN"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"https://localhost" env:"TENANTGUARD_CORS_ORIGINS"`

	// Session configuration
	SessionSecret string        `help:"secret for HMAC signing of session tokens" env:"TENANTGUARD_SESSION_SECRET"`
	SessionIssuer string        `help:"issuer claim for session tokens" default:"tenantguard" env:"TENANTGUARD_SESSION_ISSUER"`
	SessionTTL    time.Duration `help:"session TTL" default:"168h" env:"TENANTGUARD_SESSION_TTL"`

	// Upstream OAuth configuration; the login routes are only mounted when a
	// client ID is configured.
	OAuth OAuthFlags `embed:"" prefix:"oauth-"`

	// Operational modes
	Tracing bool `help:"enable tracing" default:"false" env:"TENANTGUARD_TRACING"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"TENANTGUARD_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`

	// Redis configuration; when unset, caching is disabled and revocations
	// are tracked in process memory.
	RedisAddr string        `help:"Redis address for record caching and token revocation" default:"" env:"TENANTGUARD_REDIS_ADDR"`
	CacheTTL  time.Duration `help:"record cache TTL" default:"5m" env:"TENANTGUARD_CACHE_TTL"`

	// Session cleanup sweep
	SweepInterval time.Duration `help:"interval for the expired-session sweep (0 disables it)" default:"10m" env:"TENANTGUARD_SWEEP_INTERVAL"`
}

type OAuthFlags struct {
	ClientID     string `help:"upstream OAuth client ID" default:"" env:"TENANTGUARD_OAUTH_CLIENT_ID"`
	ClientSecret string `help:"upstream OAuth client secret" default:"" env:"TENANTGUARD_OAUTH_CLIENT_SECRET"`
	AuthURL      string `help:"upstream authorization endpoint" default:"" env:"TENANTGUARD_OAUTH_AUTH_URL"`
	TokenURL     string `help:"upstream token endpoint" default:"" env:"TENANTGUARD_OAUTH_TOKEN_URL"`
	UserInfoURL  string `help:"upstream userinfo endpoint" default:"" env:"TENANTGUARD_OAUTH_USERINFO_URL"`
	CallbackURL  string `help:"OAuth callback URL" default:"" env:"TENANTGUARD_OAUTH_CALLBACK_URL"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"TENANTGUARD_POSTGRES_AUTO_MIGRATE"`
}

// stores bundles every store interface the resolver and server need, so the
// memory and postgres paths produce the same shape.
type stores struct {
	organizations store.OrganizationStore
	roles         store.RoleStore
	memberships   store.MembershipStore
	policies      store.PolicyStore
	sessions      store.SessionStore
	settings      store.SettingsStore
	employees     store.EmployeeStore
	accounts      store.AccountStore
	events        store.SecurityEventStore
	audit         store.AuditStore
}

func (c *ServerCmd) Validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 bytes (--session-secret or TENANTGUARD_SESSION_SECRET)")
	}
	if c.StoreType == "postgres" && c.PostgresStore.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx := context.Background()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	// Setup telemetry if enabled
	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, "tenantguard-server", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	st, err := c.buildStores(ctx)
	if err != nil {
		return err
	}

	// Redis backs both the record cache and token revocation; without it the
	// cache is skipped and revocations live in process memory.
	var revocations identity.RevocationStore = identity.NewMemoryRevocations()
	if c.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}

		recordCache := cache.New(redisClient, c.CacheTTL)
		st.roles = cache.NewRoleStore(st.roles, st.organizations, recordCache)
		st.policies = cache.NewPolicyStore(st.policies, st.organizations, recordCache)
		revocations = identity.NewRedisRevocations(redisClient)

		log.Info().Str("addr", c.RedisAddr).Msg("Redis record cache and revocation store enabled")
	}

	provider, err := identity.NewJWTProvider([]byte(c.SessionSecret), c.SessionIssuer, c.SessionTTL, revocations)
	if err != nil {
		return fmt.Errorf("failed to create identity provider: %w", err)
	}

	var login *identity.Login
	if c.OAuth.ClientID != "" {
		login, err = identity.NewLogin(&oauth2.Config{
			ClientID:     c.OAuth.ClientID,
			ClientSecret: c.OAuth.ClientSecret,
			RedirectURL:  c.OAuth.CallbackURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  c.OAuth.AuthURL,
				TokenURL: c.OAuth.TokenURL,
			},
		}, c.OAuth.UserInfoURL, []byte(c.SessionSecret), provider)
		if err != nil {
			return fmt.Errorf("failed to initialize login flow: %w", err)
		}
		log.Info().Msg("Login routes enabled")
	}

	resolver, err := authz.NewResolver(authz.ResolverConfig{
		Identity:      provider,
		Organizations: st.organizations,
		Roles:         st.roles,
		Memberships:   st.memberships,
		Policies:      st.policies,
		Settings:      st.settings,
		Employees:     st.employees,
		Accounts:      st.accounts,
		Sessions:      st.sessions,
		Events:        securityevent.NewRecorder(st.events, 0),
		Audit:         st.audit,
	})
	if err != nil {
		return fmt.Errorf("failed to create resolver: %w", err)
	}

	// Seed the global platform admin role on every startup.
	if err := bootstrap.EnsurePlatformAdmin(ctx, st.roles); err != nil {
		return err
	}

	srv := server.NewServer(server.Config{
		Resolver: resolver,
		Identity: provider,
		Roles:    st.roles,
		Policies: st.policies,
		Audit:    st.audit,
		Bootstrap: bootstrap.Config{
			Organizations: st.organizations,
			Roles:         st.roles,
			Memberships:   st.memberships,
			Policies:      st.policies,
		},
		Login: login,
	})

	if c.SweepInterval > 0 {
		go c.sweepExpiredSessions(ctx, st.sessions)
	}

	handler := cors.New(cors.Options{
		AllowedOrigins:   c.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Correlation-Id"},
		ExposedHeaders:   []string{"X-Correlation-Id"},
		AllowCredentials: true, // Required for cookie-based authentication
	}).Handler(
		httpmiddleware.ClientIPMiddleware()(
			logger.HTTPRequests(log)(srv.Handler(log)),
		),
	)

	log.Info().Str("addr", c.Listen).Str("store", c.StoreType).Msg("Starting HTTP server")
	return configureHTTPServer(c.Listen, handler).ListenAndServe()
}

// buildStores creates the store set for the configured backend.
func (c *ServerCmd) buildStores(ctx context.Context) (*stores, error) {
	switch c.StoreType {
	case "postgres":
		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString:      c.PostgresStore.ConnString,
			MaxConns:        c.PostgresStore.MaxConns,
			MinConns:        c.PostgresStore.MinConns,
			MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
			MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}

		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		return &stores{
			organizations: postgresstore.NewOrganizationStore(pool),
			roles:         postgresstore.NewRoleStore(pool),
			memberships:   postgresstore.NewMembershipStore(pool),
			policies:      postgresstore.NewPolicyStore(pool),
			sessions:      postgresstore.NewSessionStore(pool),
			settings:      postgresstore.NewSettingsStore(pool),
			employees:     postgresstore.NewEmployeeStore(pool),
			accounts:      postgresstore.NewAccountStore(pool),
			events:        postgresstore.NewSecurityEventStore(pool),
			audit:         postgresstore.NewAuditStore(pool),
		}, nil

	default:
		return &stores{
			organizations: memorystore.NewOrganizationStore(),
			roles:         memorystore.NewRoleStore(),
			memberships:   memorystore.NewMembershipStore(),
			policies:      memorystore.NewPolicyStore(),
			sessions:      memorystore.NewSessionStore(),
			settings:      memorystore.NewSettingsStore(),
			employees:     memorystore.NewEmployeeStore(),
			accounts:      memorystore.NewAccountStore(),
			events:        memorystore.NewSecurityEventStore(),
			audit:         memorystore.NewAuditStore(),
		}, nil
	}
}

// sweepExpiredSessions periodically transitions active session records whose
// external expiry has passed to expired.
func (c *ServerCmd) sweepExpiredSessions(ctx context.Context, sessions store.SessionStore) {
	ticker := time.NewTicker(c.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := sessions.ExpireBefore(ctx, time.Now())
			if err != nil {
				log.Warn().Err(err).Msg("Expired-session sweep failed")
				continue
			}
			if count > 0 {
				log.Debug().Int("count", count).Msg("Expired stale session records")
			}
		}
	}
}
