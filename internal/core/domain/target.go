package domain

import (
	"fmt"
	"net"
	"strings"
)

// BroadcastMAC is the wildcard client address.
var BroadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Target is one (AP, client) pair the deauth machine disrupts.
type Target struct {
	BSSID       net.HardwareAddr `json:"bssid"`
	Client      net.HardwareAddr `json:"client"`
	PacketsSent uint32           `json:"packets_sent"`
	// Channel pins the radio while this target is attacked; 0 keeps hopping.
	Channel int `json:"channel,omitempty"`
}

// NewTarget parses bssid and client. An empty client selects the broadcast wildcard.
// Unparsable addresses are rejected rather than zeroed.
func NewTarget(bssid, client string) (Target, error) {
	ap, err := ParseHardwareAddr(bssid)
	if err != nil {
		return Target{}, fmt.Errorf("bssid: %w", err)
	}
	sta := BroadcastMAC
	if strings.TrimSpace(client) != "" {
		sta, err = ParseHardwareAddr(client)
		if err != nil {
			return Target{}, fmt.Errorf("client: %w", err)
		}
	}
	return Target{BSSID: ap, Client: append(net.HardwareAddr(nil), sta...)}, nil
}

// IsBroadcast reports whether the target hits every client of the AP.
func (t Target) IsBroadcast() bool {
	return t.Client.String() == BroadcastMAC.String()
}

// Network is an access point selected by the operator.
type Network struct {
	SSID    string           `json:"ssid"`
	BSSID   net.HardwareAddr `json:"bssid"`
	Channel int              `json:"channel"`
}

// NewNetwork validates the SSID length, the BSSID and the channel.
func NewNetwork(ssid, bssid string, channel int) (Network, error) {
	if len(ssid) > MaxSSIDLen {
		return Network{}, ErrSSIDTooLong
	}
	hw, err := ParseHardwareAddr(bssid)
	if err != nil {
		return Network{}, err
	}
	if channel != 0 && !IsValidChannel(channel) {
		return Network{}, fmt.Errorf("invalid channel %d", channel)
	}
	return Network{SSID: ssid, BSSID: hw, Channel: channel}, nil
}

// ParseHardwareAddr accepts a 6-byte address in colon, dash or bare hex form.
func ParseHardwareAddr(s string) (net.HardwareAddr, error) {
	norm := strings.TrimSpace(s)
	if len(norm) == 12 && !strings.ContainsAny(norm, ":-.") {
		parts := make([]string, 0, 6)
		for i := 0; i < 12; i += 2 {
			parts = append(parts, norm[i:i+2])
		}
		norm = strings.Join(parts, ":")
	}
	if !IsValidMAC(norm) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMAC, s)
	}
	hw, err := net.ParseMAC(norm)
	if err != nil || len(hw) != 6 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMAC, s)
	}
	return hw, nil
}

// FormatMAC renders an address upper-case with colons.
func FormatMAC(hw net.HardwareAddr) string {
	return strings.ToUpper(hw.String())
}
