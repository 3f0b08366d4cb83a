package examauth

import (
	"errors"
	"strings"
	"time"
)

// Config groups every tunable of the engine. Configure once, pass to
// [Builder.WithConfig], and treat as immutable afterwards.
type Config struct {
	Lockout   LockoutConfig
	Password  PasswordConfig
	Session   SessionConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
	Bootstrap BootstrapConfig
}

// LockoutConfig governs the failed-attempt state machine.
type LockoutConfig struct {
	// Threshold is the consecutive-failure count at which an account becomes
	// blocked. Blocking is sticky: only an administrative reset clears it.
	Threshold int
	// LockWait bounds how long an operation waits to enter a store's critical
	// section before failing with ErrConflict.
	LockWait time.Duration
}

// PasswordConfig holds Argon2id cost parameters and credential policy.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// MinLength is the minimum accepted password length in bytes.
	MinLength int
	// UpgradeOnLogin rehashes credentials stored as legacy plaintext or with
	// weaker parameters after a successful verification.
	UpgradeOnLogin bool
}

// SessionConfig governs session lifetime and the signed token handle.
type SessionConfig struct {
	// TTL is the server-side session lifetime.
	TTL time.Duration
	// TokenSecret signs the HS256 session token. When empty, Build generates
	// a random per-process secret; sessions then do not survive a restart of
	// the token verifier even with a Redis registry.
	TokenSecret []byte
	// RedisPrefix namespaces registry keys when a Redis client is supplied.
	RedisPrefix string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics registry.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// BootstrapConfig describes the built-in administrator seeded into an empty
// primary directory. The account always exists and is never deleted by
// reset-to-defaults.
type BootstrapConfig struct {
	AdminUsername    string
	AdminPassword    string
	AdminDisplayName string
}

// DefaultConfig returns the configuration [New] starts from.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Lockout: LockoutConfig{
			Threshold: 3,
			LockWait:  2 * time.Second,
		},
		Password: PasswordConfig{
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			MinLength:      6,
			UpgradeOnLogin: true,
		},
		Session: SessionConfig{
			TTL:         12 * time.Hour,
			RedisPrefix: "examauth",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Bootstrap: BootstrapConfig{
			AdminUsername:    "admin",
			AdminPassword:    "admin123",
			AdminDisplayName: "Administrator",
		},
	}
}

// Validate checks invariants the Builder depends on. Password parameters are
// validated separately when the hasher is constructed.
func (c Config) Validate() error {
	if c.Lockout.Threshold < 1 {
		return errors.New("lockout threshold must be >= 1")
	}
	if c.Lockout.LockWait <= 0 {
		return errors.New("lock wait must be positive")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session TTL must be positive")
	}
	if strings.TrimSpace(c.Bootstrap.AdminUsername) == "" {
		return errors.New("bootstrap admin username must not be blank")
	}
	if c.Bootstrap.AdminPassword == "" {
		return errors.New("bootstrap admin password must not be empty")
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	if c.Session.TokenSecret != nil {
		out.Session.TokenSecret = append([]byte(nil), c.Session.TokenSecret...)
	}
	return out
}
