package socket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tnqbao/gau-3d-forge/entity"
	"github.com/tnqbao/gau-3d-forge/infra"
	"github.com/tnqbao/gau-3d-forge/infra/produce"
)

// Connection is the outbound half of one client connection. Implemented by
// *websocket.Conn; kept narrow so the hub and sessions are testable without
// real sockets.
type Connection interface {
	WriteJSON(v interface{}) error
}

// Hub is the in-process connection registry: job id to the set of live
// client connections. Registrations are ephemeral, never persisted, and
// removed on detach or on the first failed send.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[Connection]struct{}
	logger      *infra.LoggerClient
}

func NewHub(logger *infra.LoggerClient) *Hub {
	return &Hub{
		connections: make(map[string]map[Connection]struct{}),
		logger:      logger,
	}
}

func (h *Hub) Attach(conn Connection, jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[jobID] == nil {
		h.connections[jobID] = make(map[Connection]struct{})
	}
	h.connections[jobID][conn] = struct{}{}
}

func (h *Hub) Detach(conn Connection, jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(conn, jobID)
}

func (h *Hub) removeLocked(conn Connection, jobID string) {
	set, ok := h.connections[jobID]
	if !ok {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.connections, jobID)
	}
}

// Fanout delivers a message to every connection attached to the job. A
// failed send detaches the connection implicitly; it never raises to the
// caller.
func (h *Hub) Fanout(jobID string, msg entity.ProgressMessage) {
	h.mu.RLock()
	targets := make([]Connection, 0, len(h.connections[jobID]))
	for conn := range h.connections[jobID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	var failed []Connection
	for _, conn := range targets {
		if err := conn.WriteJSON(msg); err != nil {
			failed = append(failed, conn)
		}
	}

	if len(failed) > 0 {
		h.mu.Lock()
		for _, conn := range failed {
			h.removeLocked(conn, jobID)
		}
		h.mu.Unlock()
	}
}

// CountFor returns the number of connections attached to a job.
func (h *Hub) CountFor(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[jobID])
}

// RunBridge relays worker-published progress messages into the hub. It
// blocks until ctx is cancelled. Messages for jobs with no attached
// connections are dropped; sessions recover state by polling the store.
func (h *Hub) RunBridge(ctx context.Context, progress *produce.ProgressService) {
	sub := progress.SubscribeAll(ctx)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-ch:
			if !ok {
				return
			}
			var msg entity.ProgressMessage
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				h.logger.WarningWithContextf(ctx, "[Socket Hub] Dropping malformed progress message on %s: %v", raw.Channel, err)
				continue
			}
			h.Fanout(produce.JobIDFromChannel(raw.Channel), msg)
		}
	}
}
