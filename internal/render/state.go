package render

import "fmt"

// State is the lifecycle position of one render request. Transitions are
// one-directional; no state is ever re-entered.
type State string

const (
	StateIdle      State = "idle"
	StateComposing State = "composing"
	StateRendering State = "rendering"
	StateExporting State = "exporting"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// next maps each state to its single legal successor on the happy path.
var next = map[State]State{
	StateIdle:      StateComposing,
	StateComposing: StateRendering,
	StateRendering: StateExporting,
	StateExporting: StateDone,
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// StateMachine tracks one request's state and rejects illegal transitions.
type StateMachine struct {
	state State
}

// NewStateMachine starts in Idle.
func NewStateMachine() *StateMachine { return &StateMachine{state: StateIdle} }

// State returns the current state.
func (m *StateMachine) State() State { return m.state }

// Advance moves to the given state. Failed is reachable from any
// non-terminal state; every other move must follow the happy path.
func (m *StateMachine) Advance(to State) error {
	if m.state.Terminal() {
		return fmt.Errorf("state machine: %s is terminal, cannot move to %s", m.state, to)
	}
	if to == StateFailed {
		m.state = StateFailed
		return nil
	}
	if next[m.state] != to {
		return fmt.Errorf("state machine: illegal transition %s → %s", m.state, to)
	}
	m.state = to
	return nil
}
