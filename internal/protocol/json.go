package protocol

import (
	"bytes"
	"encoding/json"

	"shiftlight-service/internal/types"
)

// The generic JSON feed is a structured document stream: every datagram is
// one object with a "type" discriminator, and only "telemetry" messages
// carry shift-relevant fields. Other message types ("session", "lap", ...)
// decode fine and are ignored.
type jsonMessage struct {
	Type     string  `json:"type"`
	Rpm      float64 `json:"rpm"`
	MaxRpm   float64 `json:"maxRpm"`
	ShiftRpm float64 `json:"shiftRpm"`
	Gear     *int    `json:"gear"`
	Speed    float64 `json:"speed"`
	Tick     *uint64 `json:"tick"`
}

// DecodeGenericJSON parses one JSON telemetry datagram.
func DecodeGenericJSON(raw []byte) (types.TelemetrySample, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return types.TelemetrySample{}, ErrNotThisProtocol
	}

	var msg jsonMessage
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return types.TelemetrySample{}, ErrNotThisProtocol
	}
	if msg.Type == "" {
		return types.TelemetrySample{}, ErrNotThisProtocol
	}
	if msg.Type != "telemetry" {
		return types.TelemetrySample{}, ErrNoTelemetry
	}

	sample := types.TelemetrySample{
		Rpm:      msg.Rpm,
		RpmMax:   msg.MaxRpm,
		ShiftRpm: msg.ShiftRpm,
		Speed:    msg.Speed,
		Source:   types.ProtocolGenericJSON,
	}
	if msg.Gear != nil {
		sample.Gear = int8(*msg.Gear)
		sample.HasGear = true
	}
	if msg.Tick != nil {
		sample.Sequence = *msg.Tick
		sample.HasSequence = true
	}
	return sample, nil
}
