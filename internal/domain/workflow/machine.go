package workflow

import (
	"context"
	"fmt"
)

// Guard decides whether a configured transition may be taken
type Guard func(ctx context.Context) bool

type transition struct {
	to    State
	guard Guard
}

// Builder collects transitions per state and stamps out machines
type Builder struct {
	table map[State]map[Trigger][]transition
}

// StateConfig configures the transitions leaving one state
type StateConfig struct {
	from  State
	table map[Trigger][]transition
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{table: make(map[State]map[Trigger][]transition)}
}

// Configure returns the configuration for the given state.
// It panics on an unknown state since that is a programming error.
func (b *Builder) Configure(state State) *StateConfig {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	if _, ok := b.table[state]; !ok {
		b.table[state] = make(map[Trigger][]transition)
	}
	return &StateConfig{from: state, table: b.table[state]}
}

// Permit allows trigger to move the machine to the target state
func (c *StateConfig) Permit(trigger Trigger, to State) *StateConfig {
	return c.PermitIf(trigger, to, nil)
}

// PermitIf allows trigger to move the machine to the target state when guard passes
func (c *StateConfig) PermitIf(trigger Trigger, to State, guard Guard) *StateConfig {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}
	c.table[trigger] = append(c.table[trigger], transition{to: to, guard: guard})
	return c
}

// Build creates an independent machine positioned at initial
func (b *Builder) Build(initial State) *Machine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}

	table := make(map[State]map[Trigger][]transition, len(b.table))
	for state, triggers := range b.table {
		copied := make(map[Trigger][]transition, len(triggers))
		for trigger, ts := range triggers {
			copied[trigger] = append([]transition(nil), ts...)
		}
		table[state] = copied
	}

	return &Machine{current: initial, table: table}
}

// Machine tracks one submission's state. It is not safe for concurrent use.
type Machine struct {
	current State
	table   map[State]map[Trigger][]transition
}

// State returns the current state
func (m *Machine) State() State {
	return m.current
}

// CanFire reports whether any transition is configured for trigger.
// Guards are not evaluated.
func (m *Machine) CanFire(trigger Trigger) bool {
	return len(m.table[m.current][trigger]) > 0
}

// Fire takes the first configured transition whose guard passes
func (m *Machine) Fire(ctx context.Context, trigger Trigger) error {
	ts := m.table[m.current][trigger]
	if len(ts) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range ts {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return nil
		}
	}

	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}

// PermittedTriggers lists the triggers configured for the current state
func (m *Machine) PermittedTriggers() []Trigger {
	triggers := make([]Trigger, 0, len(m.table[m.current]))
	for trigger := range m.table[m.current] {
		triggers = append(triggers, trigger)
	}
	return triggers
}
