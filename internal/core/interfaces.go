package core

import (
	"shiftlight-service/internal/types"
)

// MessagingClient defines the interface for Redis messaging operations needed by ShiftLightSystem
type MessagingClient interface {
	Connect() error
	StartListening() error
	Close() error

	// State and readout publication
	PublishDeviceState(state types.DeviceState) error
	PublishTelemetry(rpm float64, gear string, protocol types.Protocol) error
	PublishBrightness(brightness float64) error

	// Settings
	GetSetting(key string) (string, error)
}

// PacketSource is one bound telemetry ingress. The scheduler drains every
// source once per tick; Drain must never block.
type PacketSource interface {
	Drain(handle func(raw []byte)) (int, error)
	Port() int
	Close() error
}
