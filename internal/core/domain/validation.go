package domain

import (
	"regexp"
)

// ifNameMax is IFNAMSIZ minus the terminating NUL.
const ifNameMax = 15

var (
	macPattern    = regexp.MustCompile(`^[0-9A-Fa-f]{2}([:-][0-9A-Fa-f]{2}){5}$`)
	ifNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// IsValidMAC reports whether mac is six hex octets separated by ':' or '-'.
func IsValidMAC(mac string) bool {
	return macPattern.MatchString(mac)
}

// IsValidInterface rejects anything that could not be a Linux interface
// name or that would be unsafe to pass to iw, ip and hostapd.
func IsValidInterface(name string) bool {
	if name == "" || len(name) > ifNameMax {
		return false
	}
	return ifNamePattern.MatchString(name)
}

// IsValidChannel accepts the 2.4 GHz channels 1..14.
func IsValidChannel(ch int) bool {
	return ch >= 1 && ch <= 14
}

// IsValidSSID accepts up to 32 bytes. Empty means hidden.
func IsValidSSID(ssid string) bool {
	return len(ssid) <= MaxSSIDLen
}

// ChannelFrequency returns the center frequency in MHz of a 2.4 GHz
// channel, or 0 when ch is out of range.
func ChannelFrequency(ch int) int {
	switch {
	case !IsValidChannel(ch):
		return 0
	case ch == 14:
		return 2484
	default:
		return 2407 + 5*ch
	}
}
