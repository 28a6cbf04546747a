package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/elephoto/elephoto-server/internal/logger"
)

// sessionGCInterval is how often the Badger value log is compacted.
const sessionGCInterval = 10 * time.Minute

// SessionGCJob reclaims space left behind by expired browsing sessions.
type SessionGCJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionGCJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionGCJob provides the periodic session store compaction.
// Redis expires keys itself, so the job idles there.
func ProvideSessionGCJob(i do.Injector) (*SessionGCJob, error) {
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	if sessions.Badger == nil {
		return &SessionGCJob{cancel: cancel}, nil
	}

	go func() {
		ticker := time.NewTicker(sessionGCInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				start := time.Now()
				sessions.Badger.RunGC()
				log.Debug("Session store GC completed", "duration", time.Since(start))
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session GC job started", "interval", sessionGCInterval)

	return &SessionGCJob{cancel: cancel}, nil
}
