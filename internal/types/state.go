package types

type DeviceState string

const (
	StateInit    DeviceState = "init"
	StateRunning DeviceState = "running"
	StateRedline DeviceState = "redline"
	StateIdle    DeviceState = "idle"
)

// Protocol identifies one supported game wire format. The set is closed:
// adding a game means adding a constant, a decoder and a profile entry.
type Protocol string

const (
	ProtocolDirtRally   Protocol = "dirt-rally"
	ProtocolForza       Protocol = "forza"
	ProtocolGenericJSON Protocol = "generic-json"
)

type Color struct {
	R, G, B uint8
}

// Scale returns the color dimmed by brightness in [0,1].
func (c Color) Scale(brightness float64) Color {
	if brightness < 0 {
		brightness = 0
	} else if brightness > 1 {
		brightness = 1
	}
	return Color{
		R: uint8(float64(c.R) * brightness),
		G: uint8(float64(c.G) * brightness),
		B: uint8(float64(c.B) * brightness),
	}
}

// TelemetrySample is one normalized snapshot decoded from a single datagram.
// Immutable once constructed; decoders return it by value.
type TelemetrySample struct {
	Rpm      float64
	RpmMax   float64 // 0 when the game does not report one
	ShiftRpm float64 // game-supplied optimal shift point, 0 when absent

	Gear    int8 // -1 reverse, 0 neutral, 1..n forward
	HasGear bool

	Speed float64 // m/s, 0 when absent

	Sequence    uint64 // monotonic per source, used to reject reordered datagrams
	HasSequence bool

	Source Protocol
}

// DisplayIntent is the rendering decision for one tick. Recomputed every
// tick from the telemetry view, never persisted.
type DisplayIntent struct {
	FillRatio float64 // always in [0,1]
	Color     Color
	Flashing  bool
	Idle      bool // fixed idle pattern; numeric fields are not meaningful
	TextLines []string
}
