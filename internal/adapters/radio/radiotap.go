package radio

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// injectRate is 1 Mbps in radiotap's 500 kbps units.
const injectRate = 2

// WrapRadiotap prefixes an 802.11 frame with the minimal radiotap header
// monitor-mode drivers expect on injection.
func WrapRadiotap(frame []byte) ([]byte, error) {
	rt := &layers.RadioTap{
		Present: layers.RadioTapPresentRate,
		Rate:    injectRate,
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, rt, gopacket.Payload(frame)); err != nil {
		return nil, fmt.Errorf("serialize radiotap failed: %w", err)
	}
	return buf.Bytes(), nil
}

// StripRadiotap returns the 802.11 frame and antenna signal (dBm) of a
// captured radiotap packet. A trailing FCS is removed.
func StripRadiotap(data []byte) (frame []byte, rssi int, ok bool) {
	var rt layers.RadioTap
	if err := rt.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, 0, false
	}
	frame = rt.Payload
	if rt.Flags.FCS() {
		if len(frame) < 4 {
			return nil, 0, false
		}
		frame = frame[:len(frame)-4]
	}
	if rt.Present.DBMAntennaSignal() {
		rssi = int(rt.DBMAntennaSignal)
	}
	return frame, rssi, true
}
