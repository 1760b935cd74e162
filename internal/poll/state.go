// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package poll keeps backend data fresh in the UI.
//
// Two synchronizers live here: one for the chat list, one for the open
// conversation's transcript. Both follow the same discipline: at most one
// request in flight at a time, periodic refresh while their screen is
// visible, a holdoff window after failures that only a manual retry may
// bypass, and stale data kept on screen while a refresh runs or fails.
package poll

import (
	"context"
	"sync"
)

// =============================================================================
// SYNC STATE
// =============================================================================

// State is a synchronizer's lifecycle position.
type State int

const (
	// StateIdle means no fetch has completed yet.
	StateIdle State = iota
	// StateLoading means a fetch is in flight.
	StateLoading
	// StateReady means the last fetch succeeded and data is current.
	StateReady
	// StateError means the last fetch failed; previous data stays visible.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// =============================================================================
// CANCEL FUNCTION MANAGEMENT (THREAD-SAFE)
// =============================================================================

// cancelManager manages the cancel function with mutex protection, since the
// function is set from the Update loop but the context it cancels is consumed
// by a request goroutine.
// IMPORTANT: Must be held as a pointer in any Bubble Tea model to prevent
// copying the mutex when Update returns model copies.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// set cancels any previous context and stores a new cancel function.
func (cm *cancelManager) set(fn context.CancelFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
	}
	cm.cancelFunc = fn
}

// cancel invokes the stored cancel function and clears it.
// Safe to call multiple times or with no cancel function set.
func (cm *cancelManager) cancel() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
		cm.cancelFunc = nil
	}
}
