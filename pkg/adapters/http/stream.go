package http

import (
	"log/slog"
	"sync"
)

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // VehicleID -> Set of Channels
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a subscriber for a vehicle. The returned func unsubscribes.
func (sm *StreamManager) Subscribe(vehicleID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[vehicleID]; !ok {
		sm.subscribers[vehicleID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[vehicleID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[vehicleID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, vehicleID)
			}
		}
	}
}

// Subscribers returns the number of subscribers for a vehicle.
func (sm *StreamManager) Subscribers(vehicleID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[vehicleID])
}

// Pending returns the number of messages queued but not yet written to subscribers of a vehicle.
func (sm *StreamManager) Pending(vehicleID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	n := 0
	for ch := range sm.subscribers[vehicleID] {
		n += len(ch)
	}
	return n
}

// Broadcast sends msg to every subscriber of a vehicle without blocking.
func (sm *StreamManager) Broadcast(vehicleID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[vehicleID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			slog.Warn("SSE: Client buffer full, dropping message", "vehicle", vehicleID)
		}
	}
}
