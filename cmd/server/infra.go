package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"storefront/internal/platform/config"
	"storefront/internal/platform/kafka"
	"storefront/internal/platform/mongo"
	"storefront/internal/platform/postgres"
	"storefront/internal/platform/redis"
	"storefront/internal/reconcile/identity"
	"storefront/internal/reconcile/ports"
	"storefront/internal/reconcile/store/link"
	"storefront/internal/reconcile/store/profile"
	"storefront/internal/reconcile/store/throttle"
	audit "storefront/pkg/platform/audit"
	"storefront/pkg/platform/audit/publisher"
	auditkafka "storefront/pkg/platform/audit/store/kafka"
	auditmemory "storefront/pkg/platform/audit/store/memory"
	"storefront/pkg/platform/httputil"
)

// infra is every backing dependency the service needs. Each one falls back to
// an in-process implementation when its connection setting is empty.
type infra struct {
	profiles  ports.ProfileStore
	identity  ports.IdentityStore
	existence ports.ExistenceChecker
	links     ports.LinkStore
	latch     ports.ThrottleLatch
	audit     *publisher.Publisher

	mongo *mongo.Client
	db    *sql.DB
	redis *redis.Client
	kafka *kgo.Client
}

func connect(ctx context.Context, cfg config.Server, log *slog.Logger) (_ *infra, err error) {
	in := &infra{}
	defer func() {
		if err != nil {
			in.close(log)
		}
	}()

	if in.mongo, err = mongo.New(ctx, cfg.Mongo); err != nil {
		return nil, err
	}
	if in.mongo != nil {
		store := profile.NewMongo(in.mongo.DB)
		if err = store.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensure profile indexes: %w", err)
		}
		in.profiles = store
		log.Info("profile store: mongo", "database", cfg.Mongo.Database)
	} else {
		in.profiles = profile.NewInMemory()
		log.Warn("profile store: in-memory")
	}

	if in.db, err = postgres.Open(ctx, cfg.Postgres); err != nil {
		return nil, err
	}
	if in.db != nil {
		if err = link.EnsureSchema(ctx, in.db); err != nil {
			return nil, fmt.Errorf("ensure link schema: %w", err)
		}
		in.links = link.NewPostgres(in.db)
		log.Info("link store: postgres")
	} else {
		in.links = link.NewInMemory()
		log.Warn("link store: in-memory")
	}

	if in.redis, err = redis.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}
	if in.redis != nil {
		in.latch = throttle.NewRedis(in.redis.Client)
		log.Info("throttle latch: redis")
	} else {
		in.latch = throttle.NewInMemory()
		log.Warn("throttle latch: in-memory")
	}

	if in.kafka, err = kafka.New(ctx, cfg.Kafka); err != nil {
		return nil, err
	}
	var sink audit.Store
	if in.kafka != nil {
		sink = auditkafka.New(in.kafka, cfg.Kafka.AuditTopic)
		log.Info("audit sink: kafka", "topic", cfg.Kafka.AuditTopic)
	} else {
		sink = auditmemory.NewInMemoryStore()
		log.Warn("audit sink: in-memory")
	}
	in.audit = publisher.NewPublisher(sink,
		publisher.WithAsyncBuffer(cfg.Reconcile.AuditBuffer),
		publisher.WithLogger(log),
	)

	if cfg.Identity.BaseURL == "" {
		in.identity = identity.NewMemoryProvider()
		log.Warn("identity provider: in-memory")
		return in, nil
	}
	client, err := identity.NewClient(identity.ClientConfig{
		BaseURL:   cfg.Identity.BaseURL,
		ProjectID: cfg.Identity.ProjectID,
		APIKey:    cfg.Identity.APIKey,
		Timeout:   cfg.Identity.Timeout,
	})
	if err != nil {
		return nil, err
	}
	in.identity = client
	if client.SupportsExistenceCheck() {
		in.existence = client
	}
	log.Info("identity provider: remote", "base_url", cfg.Identity.BaseURL, "existence_check", in.existence != nil)
	return in, nil
}

// health reports 503 when any configured backend is unreachable.
func (in *infra) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true
	record := func(name string, err error) {
		if err != nil {
			checks[name] = err.Error()
			healthy = false
			return
		}
		checks[name] = "ok"
	}
	if in.mongo != nil {
		record("mongo", in.mongo.Health(ctx))
	}
	if in.db != nil {
		record("postgres", in.db.PingContext(ctx))
	}
	if in.redis != nil {
		record("redis", in.redis.Health(ctx))
	}
	if in.kafka != nil {
		record("kafka", in.kafka.Ping(ctx))
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, map[string]any{"healthy": healthy, "checks": checks})
}

// close flushes pending audit events before the sinks go away.
func (in *infra) close(log *slog.Logger) {
	if in.audit != nil {
		in.audit.Close()
	}
	if in.kafka != nil {
		in.kafka.Close()
	}
	if in.redis != nil {
		if err := in.redis.Close(); err != nil {
			log.Warn("close redis", "error", err)
		}
	}
	if in.db != nil {
		if err := in.db.Close(); err != nil {
			log.Warn("close postgres", "error", err)
		}
	}
	if in.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := in.mongo.Close(ctx); err != nil {
			log.Warn("close mongo", "error", err)
		}
	}
}
