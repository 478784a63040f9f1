package protocol

import (
	"encoding/binary"
	"math"

	"shiftlight-service/internal/types"
)

// DiRT Rally broadcasts a flat packet of 64 little-endian float32 values.
// There is no header or magic, so acceptance rests on the length and on
// plausibility of the fields we read.
const (
	dirtPacketSize = 256 // 64 * 4 bytes; extradata variants append past this
	dirtPacketMax  = 280

	dirtFieldTime   = 0  // running stage time, seconds
	dirtFieldSpeed  = 7  // m/s
	dirtFieldGear   = 33 // -1 reverse, 0 neutral, 1..n
	dirtFieldRpm    = 37 // engine speed / 10
	dirtFieldMaxRpm = 63 // rev limit / 10, 0 on some game versions
)

// DecodeDirtRally parses a DiRT Rally telemetry datagram. The stage clock
// doubles as the ordering timestamp, millisecond resolution.
func DecodeDirtRally(raw []byte) (types.TelemetrySample, error) {
	if len(raw) < dirtPacketSize || len(raw) > dirtPacketMax {
		return types.TelemetrySample{}, ErrNotThisProtocol
	}

	stageTime := dirtFloat(raw, dirtFieldTime)
	speed := dirtFloat(raw, dirtFieldSpeed)
	gear := dirtFloat(raw, dirtFieldGear)
	rpm := dirtFloat(raw, dirtFieldRpm) * 10
	maxRpm := dirtFloat(raw, dirtFieldMaxRpm) * 10

	if !plausible(stageTime, 0, 86400) ||
		!plausible(speed, 0, 200) ||
		!plausible(gear, -1, 10) ||
		!plausible(rpm, 0, 50000) ||
		!plausible(maxRpm, 0, 50000) {
		return types.TelemetrySample{}, ErrNotThisProtocol
	}

	return types.TelemetrySample{
		Rpm:         rpm,
		RpmMax:      maxRpm,
		Gear:        int8(gear),
		HasGear:     true,
		Speed:       speed,
		Sequence:    uint64(stageTime * 1000),
		HasSequence: true,
		Source:      types.ProtocolDirtRally,
	}, nil
}

func dirtFloat(raw []byte, index int) float64 {
	bits := binary.LittleEndian.Uint32(raw[index*4:])
	return float64(math.Float32frombits(bits))
}

func plausible(v, lo, hi float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= lo && v <= hi
}
