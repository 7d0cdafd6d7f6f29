package sales

import (
	"fmt"
	"sync"
)

// Stage estado de una venta dentro del coordinador.
type Stage string

const (
	StageOpen        Stage = "OPEN"
	StageValidating  Stage = "VALIDATING"
	StageLocking     Stage = "LOCKING"
	StageCalculating Stage = "CALCULATING"
	StagePersisting  Stage = "PERSISTING"
	StageCommitted   Stage = "COMMITTED"
	StageRolledBack  Stage = "ROLLED_BACK"
)

// IsTerminal indica COMMITTED o ROLLED_BACK.
func (s Stage) IsTerminal() bool {
	return s == StageCommitted || s == StageRolledBack
}

var transitions = map[Stage][]Stage{
	StageOpen:        {StageValidating},
	StageValidating:  {StageLocking, StageRolledBack},
	StageLocking:     {StageCalculating, StageRolledBack},
	StageCalculating: {StagePersisting, StageRolledBack},
	StagePersisting:  {StageCommitted, StageRolledBack},
}

// Lifecycle máquina de estados de una venta. Una vez en estado terminal no admite más transiciones.
type Lifecycle struct {
	mu      sync.Mutex
	current Stage
	history []Stage
}

// NewLifecycle crea una máquina en OPEN.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{current: StageOpen, history: []Stage{StageOpen}}
}

// Current estado actual.
func (l *Lifecycle) Current() Stage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// History estados recorridos, en orden.
func (l *Lifecycle) History() []Stage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Stage, len(l.history))
	copy(out, l.history)
	return out
}

// Advance pasa al estado next si la transición es legal.
func (l *Lifecycle) Advance(next Stage) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current.IsTerminal() {
		return fmt.Errorf("sale lifecycle: %s es terminal, no puede pasar a %s", l.current, next)
	}
	for _, s := range transitions[l.current] {
		if s == next {
			l.current = next
			l.history = append(l.history, next)
			return nil
		}
	}
	return fmt.Errorf("sale lifecycle: transición ilegal %s -> %s", l.current, next)
}

// Fail lleva la venta a ROLLED_BACK desde cualquier estado no terminal posterior a OPEN.
func (l *Lifecycle) Fail() error {
	return l.Advance(StageRolledBack)
}
