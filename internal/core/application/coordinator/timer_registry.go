package coordinator

import (
	"sync"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// TimerRegistry tracks at most one response timer per task.
type TimerRegistry interface {
	// Arm schedules fire after d, replacing any timer already armed for taskID.
	Arm(taskID kernel.UUID, d time.Duration, fire func())
	// Disarm stops the timer for taskID and reports whether one was armed.
	// Disarming an unknown task is a no-op.
	Disarm(taskID kernel.UUID) bool
	// Len returns the number of armed timers.
	Len() int
}

// AfterFuncRegistry is a TimerRegistry backed by time.AfterFunc. Timers live
// only in process memory; the expiry sweep covers timers lost on restart.
type AfterFuncRegistry struct {
	mu     sync.Mutex
	timers map[kernel.UUID]*armedTimer
}

type armedTimer struct {
	timer *time.Timer
}

func NewAfterFuncRegistry() *AfterFuncRegistry {
	return &AfterFuncRegistry{timers: make(map[kernel.UUID]*armedTimer)}
}

func (r *AfterFuncRegistry) Arm(taskID kernel.UUID, d time.Duration, fire func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.timers[taskID]; ok {
		existing.timer.Stop()
	}

	armed := &armedTimer{}
	armed.timer = time.AfterFunc(d, func() {
		r.mu.Lock()
		// a replaced timer that fired anyway must not remove its successor
		if r.timers[taskID] == armed {
			delete(r.timers, taskID)
		}
		r.mu.Unlock()
		fire()
	})
	r.timers[taskID] = armed
}

func (r *AfterFuncRegistry) Disarm(taskID kernel.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	armed, ok := r.timers[taskID]
	if !ok {
		return false
	}
	armed.timer.Stop()
	delete(r.timers, taskID)
	return true
}

func (r *AfterFuncRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// StopAll disarms every timer. Used on shutdown.
func (r *AfterFuncRegistry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, armed := range r.timers {
		armed.timer.Stop()
		delete(r.timers, id)
	}
}
