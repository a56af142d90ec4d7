package domain

import (
	"net"
	"time"
)

// MaxSSIDLen is the 802.11 upper bound of an SSID element payload.
const MaxSSIDLen = 32

// ProbeSighting is one accepted probe request.
type ProbeSighting struct {
	Client  net.HardwareAddr
	SSID    string
	Signal  int
	Channel int
}

// Observation is everything seen from one probing client.
type Observation struct {
	Client    net.HardwareAddr `json:"client"`
	SSIDs     []string         `json:"ssids"`
	Signal    int              `json:"signal"`
	FirstSeen time.Time        `json:"first_seen"`
	LastSeen  time.Time        `json:"last_seen"`
	Sightings int              `json:"sightings"`
}

// HasSSID reports whether ssid was already recorded for this client.
func (o *Observation) HasSSID(ssid string) bool {
	for _, s := range o.SSIDs {
		if s == ssid {
			return true
		}
	}
	return false
}

// SmoothSignal folds a new sample into the running estimate, weighting history 7:1.
func SmoothSignal(old, sample int) int {
	return (old*7 + sample) / 8
}

// IsRandomizedMAC reports whether the locally administered bit is set.
func IsRandomizedMAC(hw net.HardwareAddr) bool {
	return len(hw) > 0 && hw[0]&0x02 != 0
}
