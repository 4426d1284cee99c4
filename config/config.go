package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
)

const (
	AppName = "examportal"

	DefaultAppPort        = "9000"
	DefaultTokenIssuer    = "examportal"
	DefaultAccessTokenTTL = 10 * time.Hour
	DefaultPruneSchedule  = "@every 1m"

	// DefaultRevocationStreamMaxLen bounds the replication stream. It is
	// sized for the logouts of one access-token lifetime; older entries
	// concern tokens that have expired anyway.
	DefaultRevocationStreamMaxLen = 100000

	// MinSecretLength is the HS256 key size in bytes.
	MinSecretLength = 32
)

// Revocation store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	AppPort        string
	JWTSecret      []byte
	TokenIssuer    string
	AccessTokenTTL time.Duration

	RevocationBackend string
	RedisURL          string
	DatabaseURL       string

	// AllowVolatileRevocations accepts the memory backend, whose
	// revocations are lost on restart while the tokens stay valid.
	AllowVolatileRevocations bool

	// Gate policy.
	RevocationFailOpen  bool
	RejectInvalidTokens bool

	RevocationPruneSchedule string

	// RevocationEvents replicates logouts to other instances over a
	// Redis stream. Requires RedisURL.
	RevocationEvents       bool
	RevocationStreamMaxLen int64

	CORSAllowedOrigins  []string
	BootstrapAdminEmail string
}

// Load reads configuration from the environment and lets command-line
// flags in args override it. The JWT secret is read from JWT_SECRET only.
// Every problem found is reported in the returned error.
func Load(args []string) (*Config, error) {
	env := &envReader{}

	cfg := &Config{
		AppPort:                  env.string("APP_PORT", DefaultAppPort),
		JWTSecret:                []byte(os.Getenv("JWT_SECRET")),
		TokenIssuer:              env.string("TOKEN_ISSUER", DefaultTokenIssuer),
		AccessTokenTTL:           env.duration("ACCESS_TOKEN_TTL", DefaultAccessTokenTTL),
		RevocationBackend:        env.string("REVOCATION_BACKEND", BackendMemory),
		RedisURL:                 env.string("REDIS_URL", ""),
		DatabaseURL:              env.string("DATABASE_URL", ""),
		AllowVolatileRevocations: env.bool("ALLOW_VOLATILE_REVOCATIONS", false),
		RevocationFailOpen:       env.bool("REVOCATION_FAIL_OPEN", false),
		RejectInvalidTokens:      env.bool("REJECT_INVALID_TOKENS", false),
		RevocationPruneSchedule:  env.string("REVOCATION_PRUNE_SCHEDULE", DefaultPruneSchedule),
		RevocationEvents:         env.bool("REVOCATION_EVENTS", false),
		RevocationStreamMaxLen:   env.int64("REVOCATION_STREAM_MAXLEN", DefaultRevocationStreamMaxLen),
		CORSAllowedOrigins:       splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		BootstrapAdminEmail:      env.string("BOOTSTRAP_ADMIN_EMAIL", ""),
	}
	if len(env.errs) > 0 {
		return nil, errors.Join(env.errs...)
	}

	flagSet := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	flagSet.StringVar(&cfg.AppPort, "port", cfg.AppPort, "HTTP listen port")
	flagSet.StringVar(&cfg.TokenIssuer, "issuer", cfg.TokenIssuer, "iss claim of issued tokens")
	flagSet.DurationVar(&cfg.AccessTokenTTL, "access-token-ttl", cfg.AccessTokenTTL, "lifetime of issued access tokens")
	flagSet.StringVar(&cfg.RevocationBackend, "revocation-backend", cfg.RevocationBackend, "revocation store: memory, redis or postgres")
	flagSet.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis connection URL")
	flagSet.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "Postgres connection URL")
	flagSet.BoolVar(&cfg.AllowVolatileRevocations, "allow-volatile-revocations", cfg.AllowVolatileRevocations, "accept the memory backend, which forgets revocations on restart")
	flagSet.BoolVar(&cfg.RevocationFailOpen, "revocation-fail-open", cfg.RevocationFailOpen, "serve requests anonymously when the revocation store is down")
	flagSet.BoolVar(&cfg.RejectInvalidTokens, "reject-invalid-tokens", cfg.RejectInvalidTokens, "answer 401 to invalid bearer tokens instead of treating them as anonymous")
	flagSet.StringVar(&cfg.RevocationPruneSchedule, "prune-schedule", cfg.RevocationPruneSchedule, "cron schedule for pruning expired revocations")
	flagSet.BoolVar(&cfg.RevocationEvents, "revocation-events", cfg.RevocationEvents, "replicate revocations over a Redis stream")
	flagSet.Int64Var(&cfg.RevocationStreamMaxLen, "revocation-stream-maxlen", cfg.RevocationStreamMaxLen, "maximum length of the revocation stream")
	flagSet.StringSliceVar(&cfg.CORSAllowedOrigins, "cors-allowed-origins", cfg.CORSAllowedOrigins, "allowed CORS origins")
	flagSet.StringVar(&cfg.BootstrapAdminEmail, "bootstrap-admin-email", cfg.BootstrapAdminEmail, "email of an admin account created at startup")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", extra[0])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWTSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretLength))
	}
	if port, err := strconv.Atoi(c.AppPort); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %q", c.AppPort))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("access token ttl must be positive"))
	}

	switch c.RevocationBackend {
	case BackendMemory:
		if !c.AllowVolatileRevocations {
			errs = append(errs, errors.New("the memory revocation backend loses revocations on restart; set ALLOW_VOLATILE_REVOCATIONS=true or choose redis or postgres"))
		}
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis revocation backend"))
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres revocation backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("revocation backend must be one of: %s, %s, %s", BackendMemory, BackendRedis, BackendPostgres))
	}

	if c.RevocationEvents && c.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required for revocation events"))
	}
	if c.RevocationEvents && c.RevocationStreamMaxLen <= 0 {
		errs = append(errs, errors.New("revocation stream maxlen must be positive"))
	}

	if _, err := cron.ParseStandard(c.RevocationPruneSchedule); err != nil {
		errs = append(errs, fmt.Errorf("invalid prune schedule %q: %w", c.RevocationPruneSchedule, err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

type envReader struct {
	errs []error
}

func (r *envReader) string(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (r *envReader) bool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (r *envReader) int64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
