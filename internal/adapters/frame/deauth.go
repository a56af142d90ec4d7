package frame

import "net"

// Direction selects which side a teardown frame appears to come from.
type Direction int

const (
	// APToClient is sent by the AP to the client.
	APToClient Direction = iota
	// ClientToAP is sent by the client to the AP.
	ClientToAP
)

func (d Direction) String() string {
	if d == ClientToAP {
		return "client->ap"
	}
	return "ap->client"
}

// BuildDeauth returns a 26-byte deauthentication frame with reason 7.
// bssid and client must be 6 bytes; shorter addresses leave zero bytes.
func BuildDeauth(dir Direction, bssid, client net.HardwareAddr) []byte {
	return buildTeardown(fcDeauth, ReasonClass3FromNonAssoc, dir, bssid, client)
}

// BuildDisassoc returns a 26-byte disassociation frame from the AP with reason 1.
func BuildDisassoc(bssid, client net.HardwareAddr) []byte {
	return buildTeardown(fcDisassoc, ReasonUnspecified, APToClient, bssid, client)
}

func buildTeardown(fc byte, reason uint16, dir Direction, bssid, client net.HardwareAddr) []byte {
	f := teardownTemplate
	f[0] = fc
	dst, src := client, bssid
	if dir == ClientToAP {
		dst, src = bssid, client
	}
	copy(f[offAddr1:offAddr1+6], dst)
	copy(f[offAddr2:offAddr2+6], src)
	copy(f[offAddr3:offAddr3+6], bssid)
	f[offReason] = byte(reason)
	f[offReason+1] = byte(reason >> 8)
	return f[:]
}

// Burst is the frame set sent per target per burst iteration.
func Burst(bssid, client net.HardwareAddr) [][]byte {
	return [][]byte{
		BuildDeauth(APToClient, bssid, client),
		BuildDeauth(ClientToAP, bssid, client),
		BuildDisassoc(bssid, client),
	}
}
