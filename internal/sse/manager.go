package sse

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/elephoto/elephoto-server/internal/id"
)

// Client is one browser listening on an album's event stream.
type Client struct {
	ID          string
	AlbumID     string
	ConnectedAt time.Time
	EventChan   chan Event
	Done        chan struct{}
}

// Manager fans storefront events out to the clients browsing each album.
// Events with an empty AlbumID (heartbeats) go to every client.
type Manager struct {
	logger            *slog.Logger
	heartbeatInterval time.Duration
	events            chan Event
	wg                sync.WaitGroup

	mu      sync.RWMutex
	byAlbum map[string]map[string]*Client // album id -> client id -> client
	albumOf map[string]string             // client id -> album id

	closeMu sync.RWMutex
	closed  bool
}

// NewManager creates a Manager. Call Start before emitting.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger:            logger,
		heartbeatInterval: 30 * time.Second,
		events:            make(chan Event, 256),
		byAlbum:           make(map[string]map[string]*Client),
		albumOf:           make(map[string]string),
	}
}

// Start runs the broadcast loop until ctx is cancelled or Shutdown closes
// the event queue.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	heartbeat := time.NewTicker(m.heartbeatInterval)
	defer heartbeat.Stop()

	m.logger.Info("SSE manager starting")
	for {
		select {
		case event, ok := <-m.events:
			if !ok {
				return
			}
			m.broadcast(event)
		case <-heartbeat.C:
			m.broadcast(NewHeartbeatEvent())
		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.closeAllClients()
			return
		}
	}
}

// Shutdown stops accepting events, delivers what is already queued and
// disconnects every client. Queued events still undelivered when ctx ends
// are dropped.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.closeMu.Lock()
	if m.closed {
		m.closeMu.Unlock()
		return nil
	}
	m.closed = true
	close(m.events)
	m.closeMu.Unlock()

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		m.wg.Wait()
		for event := range m.events {
			m.broadcast(event)
		}
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		m.logger.Warn("SSE drain timed out, queued events dropped")
	}

	m.closeAllClients()
	m.logger.Info("SSE manager shut down")
	return nil
}

// Emit queues event for delivery. It never blocks; a full queue drops it.
func (m *Manager) Emit(event Event) {
	m.closeMu.RLock()
	defer m.closeMu.RUnlock()
	if m.closed {
		return
	}

	select {
	case m.events <- event:
	default:
		m.logger.Error("SSE queue full, dropping event",
			slog.String("event_type", string(event.Type)),
			slog.String("album_id", event.AlbumID))
	}
}

func (m *Manager) broadcast(event Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var delivered, dropped int
	send := func(c *Client) {
		select {
		case c.EventChan <- event:
			delivered++
		default:
			dropped++
		}
	}

	if event.AlbumID == "" {
		for _, clients := range m.byAlbum {
			for _, c := range clients {
				send(c)
			}
		}
	} else {
		for _, c := range m.byAlbum[event.AlbumID] {
			send(c)
		}
	}

	if dropped > 0 {
		m.logger.Warn("SSE event dropped for slow clients",
			slog.String("event_type", string(event.Type)),
			slog.Int("dropped", dropped))
	}
	if event.Type != EventHeartbeat {
		m.logger.Debug("SSE event broadcast",
			slog.String("event_type", string(event.Type)),
			slog.String("album_id", event.AlbumID),
			slog.Int("delivered", delivered))
	}
}

// Connect registers a client browsing albumID.
func (m *Manager) Connect(albumID string) (*Client, error) {
	clientID, err := id.Generate("sse")
	if err != nil {
		return nil, err
	}
	client := &Client{
		ID:          clientID,
		AlbumID:     albumID,
		ConnectedAt: time.Now(),
		EventChan:   make(chan Event, 32),
		Done:        make(chan struct{}),
	}

	m.mu.Lock()
	if m.byAlbum[albumID] == nil {
		m.byAlbum[albumID] = make(map[string]*Client)
	}
	m.byAlbum[albumID][clientID] = client
	m.albumOf[clientID] = albumID
	watching := len(m.byAlbum[albumID])
	m.mu.Unlock()

	m.logger.Info("SSE client connected",
		slog.String("client_id", clientID),
		slog.String("album_id", albumID),
		slog.Int("album_clients", watching))
	return client, nil
}

// Disconnect removes a client and closes its channels. Unknown ids are ignored.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	albumID, ok := m.albumOf[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	client := m.byAlbum[albumID][clientID]
	delete(m.albumOf, clientID)
	delete(m.byAlbum[albumID], clientID)
	if len(m.byAlbum[albumID]) == 0 {
		delete(m.byAlbum, albumID)
	}
	m.mu.Unlock()

	close(client.Done)
	close(client.EventChan)

	m.logger.Info("SSE client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(client.ConnectedAt)))
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.albumOf)
}

// AlbumClientCount returns the number of clients browsing albumID.
func (m *Manager) AlbumClientCount(albumID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byAlbum[albumID])
}

func (m *Manager) closeAllClients() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, clients := range m.byAlbum {
		for _, c := range clients {
			close(c.Done)
			close(c.EventChan)
		}
	}
	m.byAlbum = make(map[string]map[string]*Client)
	m.albumOf = make(map[string]string)
}
