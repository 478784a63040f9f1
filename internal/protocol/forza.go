package protocol

import (
	"encoding/binary"
	"math"

	"shiftlight-service/internal/types"
)

// Forza's "sled" telemetry layout. The dash variants of the format carry
// the same prefix with extra fields appended, so length checks accept
// anything at least sled-sized. Gear lives only in the dash extension at
// version-dependent offsets, so it is deliberately not decoded here.
const (
	forzaSledSize = 232
	forzaDashMax  = 400

	forzaOffIsRaceOn  = 0  // int32, 0 or 1
	forzaOffTimestamp = 4  // uint32, milliseconds since game start
	forzaOffMaxRpm    = 8  // float32
	forzaOffIdleRpm   = 12 // float32
	forzaOffRpm       = 16 // float32
)

// DecodeForza parses a Forza sled/dash telemetry datagram. Packets sent
// while no race is running (IsRaceOn == 0) are valid but carry nothing to
// display, so they yield ErrNoTelemetry.
func DecodeForza(raw []byte) (types.TelemetrySample, error) {
	if len(raw) < forzaSledSize || len(raw) > forzaDashMax {
		return types.TelemetrySample{}, ErrNotThisProtocol
	}

	isRaceOn := int32(binary.LittleEndian.Uint32(raw[forzaOffIsRaceOn:]))
	if isRaceOn != 0 && isRaceOn != 1 {
		return types.TelemetrySample{}, ErrNotThisProtocol
	}

	maxRpm := forzaFloat(raw, forzaOffMaxRpm)
	idleRpm := forzaFloat(raw, forzaOffIdleRpm)
	rpm := forzaFloat(raw, forzaOffRpm)

	if !plausible(maxRpm, 0, 50000) ||
		!plausible(idleRpm, 0, 50000) ||
		!plausible(rpm, 0, 50000) {
		return types.TelemetrySample{}, ErrNotThisProtocol
	}

	if isRaceOn == 0 {
		return types.TelemetrySample{}, ErrNoTelemetry
	}

	return types.TelemetrySample{
		Rpm:         rpm,
		RpmMax:      maxRpm,
		Sequence:    uint64(binary.LittleEndian.Uint32(raw[forzaOffTimestamp:])),
		HasSequence: true,
		Source:      types.ProtocolForza,
	}, nil
}

func forzaFloat(raw []byte, off int) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[off:])))
}
