package examauth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/exametric/examauth/internal/audit"
	"github.com/exametric/examauth/internal/locks"
	"github.com/exametric/examauth/password"
	"github.com/exametric/examauth/session"
	"github.com/exametric/examauth/store"
)

// Builder assembles an [Engine]. Configure it during initialization, call
// Build once, and discard it.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users         store.RecordStore
	lecturers     store.RecordStore
	examPersonnel store.RecordStore

	registry  session.Registry
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration: a
// three-failure lockout, Argon2id at 64MB/3/2, 12h sessions, and the
// built-in admin/admin123 bootstrap account.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStores supplies the three record stores backing the account
// collections: the primary directory, the lecturer store, and the
// exam-personnel store.
func (b *Builder) WithStores(users, lecturers, examPersonnel store.RecordStore) *Builder {
	b.users = users
	b.lecturers = lecturers
	b.examPersonnel = examPersonnel
	return b
}

// WithDataDir wires file-backed stores rooted at dir, one JSON document per
// collection, matching the original on-disk layout.
func (b *Builder) WithDataDir(dir string) *Builder {
	files := store.FileStores(dir)
	return b.WithStores(
		files[store.CollectionUsers],
		files[store.CollectionLecturers],
		files[store.CollectionExamPersonnel],
	)
}

// WithRedis keeps sessions in Redis instead of process memory. Ignored when
// an explicit registry is supplied via [Builder.WithSessionRegistry].
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithSessionRegistry supplies a custom session registry, overriding both
// the Redis and the in-memory default.
func (b *Builder) WithSessionRegistry(r session.Registry) *Builder {
	b.registry = r
	return b
}

// WithAuditSink enables audit dispatch into sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the in-process metrics registry.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles login latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, assembles the Engine, and seeds the
// bootstrap administrator into an empty primary directory. A Builder can
// build at most once.
func (b *Builder) Build(ctx context.Context) (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	b.built = true

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil || b.lecturers == nil || b.examPersonnel == nil {
		return nil, errors.New("record stores required: use WithStores or WithDataDir")
	}

	hasher, err := password.New(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
		MinLength:   cfg.Password.MinLength,
	})
	if err != nil {
		return nil, err
	}

	secret := cfg.Session.TokenSecret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
		cfg.Session.TokenSecret = secret
	}
	tokens, err := session.NewTokenCodec(secret)
	if err != nil {
		return nil, err
	}

	registry := b.registry
	if registry == nil {
		if b.redis != nil {
			registry = session.NewRedisRegistry(b.redis, cfg.Session.RedisPrefix)
		} else {
			registry = session.NewMemoryRegistry()
		}
	}

	var audit *auditDispatcher
	if cfg.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = internalaudit.NoOpSink{}
		}
		audit = newAuditDispatcher(cfg.Audit, sink)
	}

	engine := &Engine{
		config:        cfg,
		users:         b.users,
		lecturers:     b.lecturers,
		examPersonnel: b.examPersonnel,
		locks: locks.NewKeyed(
			string(store.CollectionUsers),
			string(store.CollectionLecturers),
			string(store.CollectionExamPersonnel),
		),
		sessions: registry,
		tokens:   tokens,
		hasher:   hasher,
		audit:    audit,
		metrics:  NewMetrics(cfg.Metrics),
	}

	if err := engine.seedBootstrapAdmin(ctx); err != nil {
		engine.Close()
		return nil, fmt.Errorf("seed bootstrap admin: %w", err)
	}
	return engine, nil
}
