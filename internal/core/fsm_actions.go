package core

import (
	"context"

	"github.com/librescoot/librefsm"

	"shiftlight-service/internal/fsm"
	"shiftlight-service/internal/types"
)

// Ensure ShiftLightSystem implements fsm.Actions
var _ fsm.Actions = (*ShiftLightSystem)(nil)

// stateIDToDeviceState converts librefsm StateID to types.DeviceState
func stateIDToDeviceState(id librefsm.StateID) types.DeviceState {
	switch id {
	case fsm.StateInit:
		return types.StateInit
	case fsm.StateRunning:
		return types.StateRunning
	case fsm.StateRedline:
		return types.StateRedline
	case fsm.StateIdle:
		return types.StateIdle
	default:
		return types.DeviceState(string(id))
	}
}

// initFSM initializes and starts the librefsm machine
func (s *ShiftLightSystem) initFSM(ctx context.Context) error {
	def := fsm.NewDefinition(s)
	machine, err := def.Build()
	if err != nil {
		return err
	}
	s.machine = machine

	s.machine.OnStateChange(func(from, to librefsm.StateID) {
		oldState := stateIDToDeviceState(from)
		newState := stateIDToDeviceState(to)
		s.logger.Infof("State transition: %s -> %s", oldState, newState)

		if s.redis != nil {
			if err := s.redis.PublishDeviceState(newState); err != nil {
				s.logger.Errorf("Failed to publish device state: %v", err)
			}
		}
	})

	if err := s.machine.Start(ctx); err != nil {
		return err
	}

	s.logger.Infof("librefsm state machine started")
	return nil
}

// === State Entry Actions ===

func (s *ShiftLightSystem) EnterInit(c *librefsm.Context) error {
	s.logger.Debugf("FSM: EnterInit")
	// Restart the sweep clock; edge trackers reset with it so the first
	// telemetry after the sweep raises a fresh live edge.
	s.sweepStart = s.tickCount
	s.prevLive = false
	s.prevFlash = false
	return nil
}

func (s *ShiftLightSystem) EnterRunning(c *librefsm.Context) error {
	s.logger.Debugf("FSM: EnterRunning")
	return nil
}

func (s *ShiftLightSystem) EnterRedline(c *librefsm.Context) error {
	s.logger.Debugf("FSM: EnterRedline")
	return nil
}

func (s *ShiftLightSystem) EnterIdle(c *librefsm.Context) error {
	s.logger.Debugf("FSM: EnterIdle")
	return nil
}
