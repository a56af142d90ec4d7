package frame

import (
	"net"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
)

// MinProbeLen is a management header plus an SSID element header and a rates element header.
const MinProbeLen = MgmtHeaderLen + 4

// ParseProbeRequest decodes a probe request naming a specific SSID.
// Foreign, truncated and wildcard frames are rejected with ok=false.
func ParseProbeRequest(frame []byte, rssi int) (domain.ProbeSighting, bool) {
	if len(frame) < MinProbeLen {
		return domain.ProbeSighting{}, false
	}
	if frame[0]&fcSubtypeMask != fcProbeRequest {
		return domain.ProbeSighting{}, false
	}
	if frame[MgmtHeaderLen] != TagSSID {
		return domain.ProbeSighting{}, false
	}
	n := int(frame[MgmtHeaderLen+1])
	if n == 0 || n > maxSSIDBytes {
		return domain.ProbeSighting{}, false
	}
	start := MgmtHeaderLen + 2
	if start+n > len(frame) {
		return domain.ProbeSighting{}, false
	}

	s := domain.ProbeSighting{
		Client:  append(net.HardwareAddr(nil), frame[offAddr2:offAddr2+6]...),
		SSID:    string(frame[start : start+n]),
		Signal:  rssi,
		Channel: dsChannel(frame[start+n:]),
	}
	return s, true
}

// dsChannel walks the trailing elements for a DS parameter set.
func dsChannel(ies []byte) int {
	for len(ies) >= 2 {
		tag, l := ies[0], int(ies[1])
		if 2+l > len(ies) {
			return 0
		}
		if tag == TagDSParams && l == 1 {
			return int(ies[2])
		}
		ies = ies[2+l:]
	}
	return 0
}

// CaptureParser filters captured frames into probe sightings.
type CaptureParser struct {
	// MinSignal drops sightings weaker than this many dBm.
	MinSignal int
}

// Parse applies the signal floor on top of ParseProbeRequest.
func (p CaptureParser) Parse(frame []byte, rssi int) (domain.ProbeSighting, bool) {
	if rssi < p.MinSignal {
		return domain.ProbeSighting{}, false
	}
	return ParseProbeRequest(frame, rssi)
}
