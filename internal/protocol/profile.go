// Package protocol decodes game telemetry datagrams into normalized
// samples. Decoders are pure functions of the raw bytes; they share no
// state and report RPM in game-native units (already RPM), so the shift
// policy has one canonical unit to work with.
package protocol

import (
	"errors"
	"fmt"

	"shiftlight-service/internal/types"
)

// ErrNotThisProtocol means the datagram does not match the decoder's wire
// format. Not fatal: the selector tries the next profile or drops the
// datagram, since foreign traffic is expected on a broadcast network.
var ErrNotThisProtocol = errors.New("datagram does not match protocol")

// ErrNoTelemetry means the datagram was valid for the protocol but is a
// message type that carries no shift-relevant fields (menus, session info).
// Decoded and ignored, not an error condition.
var ErrNoTelemetry = errors.New("message carries no shift telemetry")

type DecodeFunc func(raw []byte) (types.TelemetrySample, error)

// Profile is the static description of one game's telemetry feed: its
// default UDP port and the decoder for its wire format. Read-only after
// construction.
type Profile struct {
	Name   types.Protocol
	Port   int
	decode DecodeFunc
}

func (p Profile) Decode(raw []byte) (types.TelemetrySample, error) {
	return p.decode(raw)
}

var profiles = map[types.Protocol]Profile{
	types.ProtocolDirtRally: {
		Name:   types.ProtocolDirtRally,
		Port:   20777,
		decode: DecodeDirtRally,
	},
	types.ProtocolForza: {
		Name:   types.ProtocolForza,
		Port:   5300,
		decode: DecodeForza,
	},
	types.ProtocolGenericJSON: {
		Name:   types.ProtocolGenericJSON,
		Port:   9996,
		decode: DecodeGenericJSON,
	},
}

// ProfileFor looks up the profile for a protocol name.
func ProfileFor(name string) (Profile, bool) {
	p, ok := profiles[types.Protocol(name)]
	return p, ok
}

// ProfilesFor resolves a priority-ordered list of protocol names.
func ProfilesFor(names []string) ([]Profile, error) {
	out := make([]Profile, 0, len(names))
	for _, name := range names {
		p, ok := ProfileFor(name)
		if !ok {
			return nil, fmt.Errorf("unknown game profile %q", name)
		}
		out = append(out, p)
	}
	return out, nil
}
