package frame

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
)

var (
	ErrSSIDTooLong    = errors.New("ssid longer than 32 bytes")
	ErrInvalidChannel = errors.New("channel outside 1..14")
)

// BuildBeacon encodes a broadcast beacon advertising ssid on channel.
// source is used as both transmitter and BSSID.
func BuildBeacon(ssid string, channel int, source net.HardwareAddr) ([]byte, error) {
	if len(ssid) > maxSSIDBytes {
		return nil, fmt.Errorf("%w: %d", ErrSSIDTooLong, len(ssid))
	}
	if channel < 1 || channel > 14 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	b := NewBuilder(beaconTemplate[:], BeaconLen(len(ssid)))
	b.PutAddr(offAddr2, source).
		PutAddr(offAddr3, source).
		Element(TagSSID, []byte(ssid)).
		Element(TagRates, supportedRates[:]).
		Element(TagDSParams, []byte{byte(channel)})
	return b.Frame()
}

// RandomSourceAddress returns six random bytes with the group bit cleared.
func RandomSourceAddress(r *rand.Rand) net.HardwareAddr {
	hw := make(net.HardwareAddr, 6)
	for i := range hw {
		hw[i] = byte(r.Intn(256))
	}
	hw[0] &^= 0x01
	return hw
}

const ssidAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// RandomSSID returns an alphanumeric name of 8 to 14 characters.
func RandomSSID(r *rand.Rand) string {
	n := 8 + r.Intn(7)
	out := make([]byte, n)
	for i := range out {
		out[i] = ssidAlphabet[r.Intn(len(ssidAlphabet))]
	}
	return string(out)
}
