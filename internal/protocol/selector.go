package protocol

import (
	"errors"

	"shiftlight-service/internal/logger"
	"shiftlight-service/internal/types"
)

// Selector tries the active profiles in priority order and forwards the
// first successful decode. It mutates nothing; committing samples to state
// is the scheduler's job, which keeps decoders testable against captured
// byte fixtures.
type Selector struct {
	profiles []Profile
	log      *logger.Logger
}

func NewSelector(profiles []Profile, log *logger.Logger) *Selector {
	return &Selector{
		profiles: profiles,
		log:      log.WithTag("selector"),
	}
}

// SelectAndDecode decodes one datagram. When it matches no active profile
// the datagram is dropped silently: malformed and foreign traffic is
// expected background noise on a broadcast network.
//
// When more than one profile is active and a datagram would decode under
// several of them, priority order wins; there is no merge.
func (s *Selector) SelectAndDecode(raw []byte) (types.TelemetrySample, bool) {
	for _, p := range s.profiles {
		sample, err := p.Decode(raw)
		if err == nil {
			return sample, true
		}
		if errors.Is(err, ErrNoTelemetry) {
			// Matched the protocol but carries nothing to display.
			s.log.Debugf("%s message without telemetry ignored", p.Name)
			return types.TelemetrySample{}, false
		}
	}
	return types.TelemetrySample{}, false
}

// Profiles returns the active profiles in priority order.
func (s *Selector) Profiles() []Profile {
	return s.profiles
}
