package observability

import (
	"sync"
	"time"
)

// Phase is the orchestrator state shown on the dashboard.
type Phase string

const (
	PhaseIdle         Phase = "IDLE"
	PhasePlanning     Phase = "PLANNING"
	PhaseExecuting    Phase = "EXECUTING"
	PhaseReflecting   Phase = "REFLECTING"
	PhaseSynthesizing Phase = "SYNTHESIZING"
	PhaseDone         Phase = "DONE"
)

type SystemStatus struct {
	mu           sync.RWMutex
	CurrentPhase Phase
	ActiveTask   string
	LastUpdate   time.Time
}

var globalStatus = &SystemStatus{
	CurrentPhase: PhaseIdle,
	LastUpdate:   time.Now(),
}

// SetStatus updates the global system status.
func SetStatus(phase Phase, task string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.CurrentPhase = phase
	globalStatus.ActiveTask = task
	globalStatus.LastUpdate = time.Now()
}

// GetStatus retrieves a copy of the global system status.
func GetStatus() (Phase, string, time.Time) {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.CurrentPhase, globalStatus.ActiveTask, globalStatus.LastUpdate
}
