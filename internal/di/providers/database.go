package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"github.com/elephoto/elephoto-server/internal/config"
	"github.com/elephoto/elephoto-server/internal/logger"
	"github.com/elephoto/elephoto-server/internal/sse"
	"github.com/elephoto/elephoto-server/internal/store"
	"github.com/elephoto/elephoto-server/internal/store/redis"
	"github.com/elephoto/elephoto-server/internal/store/sqlite"
)

// shutdownTimeout bounds how long a handle may take to drain on shutdown.
const shutdownTimeout = 30 * time.Second

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// DatabaseHandle wraps the SQLite record store with shutdown capability.
type DatabaseHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *DatabaseHandle) Shutdown() error {
	return h.Close()
}

// ProvideDatabase provides the album, photo and payment records.
func ProvideDatabase(i do.Injector) (*DatabaseHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.Storage.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Component("sqlite"))
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &DatabaseHandle{Store: db}, nil
}

// SessionStoreHandle wraps the browsing-session backend.
// Badger is set only when sessions live in the embedded store.
type SessionStoreHandle struct {
	store.SessionStore
	Badger *store.Store
}

// Shutdown implements do.Shutdownable.
func (h *SessionStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideSessionStore provides the configured browsing-session backend.
func ProvideSessionStore(i do.Injector) (*SessionStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Session.Backend == config.SessionBackendRedis {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		rs, err := redis.New(ctx, redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		}, log.Component("sessions"))
		if err != nil {
			return nil, err
		}
		return &SessionStoreHandle{SessionStore: rs.WithTTL(cfg.Session.TTL)}, nil
	}

	path := cfg.Storage.SessionsPath()
	bs, err := store.New(path, log.Component("sessions"))
	if err != nil {
		return nil, err
	}
	bs = bs.WithTTL(cfg.Session.TTL)

	log.Info("Session store initialized", "backend", cfg.Session.Backend, "path", path, "ttl", cfg.Session.TTL)

	return &SessionStoreHandle{SessionStore: bs, Badger: bs}, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
