package control

import (
	"log/slog"
	"sync"

	"pomodoro/internal/core/model"
)

// Register is the process-wide cache of the timer state that bus clients see.
// It never derives state on its own; it only stores what the timer pushes.
type Register struct {
	mu       sync.Mutex
	snapshot model.Snapshot
	poisoned bool
	logger   *slog.Logger
}

// NewRegister creates a register holding the default snapshot.
func NewRegister(logger *slog.Logger) *Register {
	if logger == nil {
		logger = slog.Default()
	}
	return &Register{
		snapshot: model.DefaultSnapshot(),
		logger:   logger,
	}
}

// Update replaces the stored snapshot. Last writer wins.
func (register *Register) Update(snapshot model.Snapshot) {
	ok := register.locked(func() {
		register.snapshot = snapshot
	})
	if !ok {
		register.logger.Error("state register poisoned, dropping update", "mode", snapshot.Mode)
	}
}

// Read returns a copy of the stored snapshot. A poisoned register serves the
// default snapshot instead.
func (register *Register) Read() model.Snapshot {
	var snapshot model.Snapshot
	ok := register.locked(func() {
		snapshot = register.snapshot
	})
	if !ok {
		register.logger.Warn("state register poisoned, serving default snapshot")
		return model.DefaultSnapshot()
	}
	return snapshot
}

// locked runs fn under the lock. It reports false when the register is
// poisoned, either before the call or because fn panicked.
func (register *Register) locked(fn func()) (ok bool) {
	register.mu.Lock()
	defer register.mu.Unlock()
	if register.poisoned {
		return false
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			register.poisoned = true
			register.logger.Error("state register critical section panicked", "panic", recovered)
			ok = false
		}
	}()
	fn()
	return true
}
