package frame

// Management frame control values (first byte, second byte zero).
const (
	fcProbeRequest = 0x40
	fcBeacon       = 0x80
	fcDisassoc     = 0xA0
	fcDeauth       = 0xC0

	// Type/subtype bits of the first frame control byte; protocol version masked off.
	fcSubtypeMask = 0xFC
)

// Reason codes carried by the teardown frames.
const (
	ReasonUnspecified        uint16 = 0x0001
	ReasonClass3FromNonAssoc uint16 = 0x0007
)

// Offsets shared by every management frame header.
const (
	offDuration = 2
	offAddr1    = 4
	offAddr2    = 10
	offAddr3    = 16
	offSeqCtl   = 22

	MgmtHeaderLen = 24
)

// Teardown frame layout.
const (
	TeardownLen = 26
	offReason   = 24
)

// Beacon layout. The fixed part ends with the capability field; the SSID element
// tag sits at BeaconFixedLen and its payload at BeaconSSIDOffset.
const (
	offTimestamp   = 24
	offBeaconIntvl = 32
	offCapability  = 34

	BeaconFixedLen   = 36
	BeaconSSIDOffset = BeaconFixedLen + 2

	// Rates element: tag, length and eight rates.
	ratesElementLen = 10
	// DS parameter set element: tag, length, channel.
	channelElementLen = 3
)

// Information element tags.
const (
	TagSSID      byte = 0x00
	TagRates     byte = 0x01
	TagDSParams  byte = 0x03
	maxSSIDBytes      = 32
)

// Templates are arrays so every use works on a copy.
var (
	teardownTemplate = [TeardownLen]byte{
		fcDeauth, 0x00, // frame control
		0x3A, 0x01, // duration 314us
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, // destination
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // source
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // bssid
		0x00, 0x00, // sequence control
		0x07, 0x00, // reason
	}

	beaconTemplate = [BeaconFixedLen]byte{
		fcBeacon, 0x00,
		0x00, 0x00,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // timestamp
		0x64, 0x00, // interval 100 TU
		0x31, 0x04, // capability
	}

	// 1, 2, 5.5, 11 Mbps basic; 18, 24, 36, 54 Mbps.
	supportedRates = [8]byte{0x82, 0x84, 0x8B, 0x96, 0x24, 0x30, 0x48, 0x6C}
)

// BeaconRatesOffset is where the rates element starts for an SSID of n bytes.
func BeaconRatesOffset(n int) int { return BeaconSSIDOffset + n }

// BeaconChannelOffset is where the DS parameter element starts for an SSID of n bytes.
func BeaconChannelOffset(n int) int { return BeaconRatesOffset(n) + ratesElementLen }

// BeaconLen is the encoded size of a beacon for an SSID of n bytes.
func BeaconLen(n int) int { return BeaconChannelOffset(n) + channelElementLen }
