package fsm

import (
	"github.com/librescoot/librefsm"
)

// NewDefinition creates the device FSM definition.
// The actions parameter provides the implementation for state entry
// behavior.
func NewDefinition(actions Actions) *librefsm.Definition {
	return librefsm.NewDefinition().
		State(StateInit,
			librefsm.WithOnEnter(actions.EnterInit),
		).
		State(StateRunning,
			librefsm.WithOnEnter(actions.EnterRunning),
		).
		State(StateRedline,
			librefsm.WithParent(StateRunning),
			librefsm.WithOnEnter(actions.EnterRedline),
		).
		State(StateIdle,
			librefsm.WithOnEnter(actions.EnterIdle),
		).

		// === Transitions ===

		// Startup sweep runs once, then the device waits for telemetry.
		Transition(StateInit, EvSweepDone, StateIdle).

		// Telemetry arriving/stopping flips between idle and running.
		Transition(StateIdle, EvTelemetryLive, StateRunning).
		Transition(StateRunning, EvTelemetryStale, StateIdle). // covers the redline substate too

		// Shift-cue edges within running.
		Transition(StateRunning, EvRedlineOn, StateRedline).
		Transition(StateRedline, EvRedlineOff, StateRunning).

		// A requested ring test replays the startup sweep from anywhere.
		Transition(StateRunning, EvSweepRequest, StateInit).
		Transition(StateIdle, EvSweepRequest, StateInit).

		// Initial state
		Initial(StateInit)
}
