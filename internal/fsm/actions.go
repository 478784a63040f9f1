package fsm

import "github.com/librescoot/librefsm"

// Actions defines the interface for device state machine actions.
// ShiftLightSystem implements this interface to handle state entry/exit.
// The machine carries presentation state only; telemetry data authority
// stays with the scheduler's TelemetryState.
type Actions interface {
	// State entry actions
	EnterInit(c *librefsm.Context) error
	EnterRunning(c *librefsm.Context) error
	EnterRedline(c *librefsm.Context) error
	EnterIdle(c *librefsm.Context) error
}
