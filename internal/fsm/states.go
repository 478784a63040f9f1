package fsm

import "github.com/librescoot/librefsm"

// Device presentation states
const (
	StateInit    librefsm.StateID = "init"
	StateRunning librefsm.StateID = "running"
	StateRedline librefsm.StateID = "redline" // substate of running
	StateIdle    librefsm.StateID = "idle"
)

// Device events
const (
	// Scheduler-derived edges
	EvSweepDone      librefsm.EventID = "sweep-done"
	EvTelemetryLive  librefsm.EventID = "telemetry-received"
	EvTelemetryStale librefsm.EventID = "telemetry-stale"
	EvRedlineOn      librefsm.EventID = "redline-entered"
	EvRedlineOff     librefsm.EventID = "redline-exited"

	// External commands (from Redis or the mode button)
	EvSweepRequest librefsm.EventID = "sweep-request"
)
