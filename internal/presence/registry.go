// Package presence tracks which users hold at least one live realtime connection.
// State is process-local and starts empty on every restart.
package presence

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	onlineUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_online_users",
			Help: "Number of users with at least one live connection",
		},
	)

	liveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_live_connections",
			Help: "Number of registered realtime connections",
		},
	)
)

// Registry maps users to their live connection handles.
// All mutations happen under one mutex so online/offline transitions fire exactly once per user.
type Registry struct {
	mu     sync.RWMutex
	users  map[string]map[string]struct{}
	owners map[string]string // handle -> user id
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{
		users:  make(map[string]map[string]struct{}),
		owners: make(map[string]string),
	}
}

// Register adds handle to userID's set. first is true when the user just came online.
// Registering a handle that is already known is a no-op.
func (r *Registry) Register(userID, handle string) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.owners[handle]; ok {
		return false
	}

	handles, ok := r.users[userID]
	if !ok {
		handles = make(map[string]struct{})
		r.users[userID] = handles
		first = true
		onlineUsers.Inc()
	}
	handles[handle] = struct{}{}
	r.owners[handle] = userID
	liveConnections.Inc()
	return first
}

// Unregister removes handle. last is true when userID just went offline.
// An unknown handle reports no user and no transition.
func (r *Registry) Unregister(handle string) (userID string, last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[handle]
	if !ok {
		return "", false
	}
	delete(r.owners, handle)
	liveConnections.Dec()

	handles := r.users[userID]
	delete(handles, handle)
	if len(handles) == 0 {
		delete(r.users, userID)
		onlineUsers.Dec()
		return userID, true
	}
	return userID, false
}

// ListOnlineUsers returns the online user ids in a stable order
func (r *Registry) ListOnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsOnline reports whether userID has any live connection
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[userID]
	return ok
}

// Handles returns userID's live connection handles
func (r *Registry) Handles(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := make([]string, 0, len(r.users[userID]))
	for h := range r.users[userID] {
		handles = append(handles, h)
	}
	return handles
}

// Owner returns the user a handle belongs to
func (r *Registry) Owner(handle string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	userID, ok := r.owners[handle]
	return userID, ok
}
