package mock

import (
	"fmt"
	"math/rand"
	"net"
	"sort"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Common SSIDs for realistic mock data
var commonSSIDs = []string{
	"HomeNetwork", "NETGEAR-5G", "Starbucks WiFi", "TP-Link_2.4GHz",
	"Linksys", "ATT-WiFi", "Xfinity", "Google Fiber",
	"Office-Network", "Guest-WiFi", "MyWiFi", "Home-2.4G",
	"DIRECT-Printer", "AndroidAP", "iPhone", "Samsung Galaxy",
	"CoffeeShop_Free", "Airport_WiFi", "Hotel-Guest", "Apartment_5G",
}

// Vendor OUI prefixes (first 3 bytes of MAC)
var vendorPrefixes = map[string][3]byte{
	"Apple":        {0x3C, 0x22, 0xFB},
	"Samsung":      {0x00, 0x12, 0xFB},
	"Google":       {0xF4, 0xF5, 0xD8},
	"Intel":        {0x00, 0x1B, 0x21},
	"Raspberry Pi": {0xB8, 0x27, 0xEB},
	"Espressif":    {0x24, 0x0A, 0xC4},
	"Microsoft":    {0x00, 0x50, 0xF2},
}

var (
	broadcast      = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	supportedRates = []byte{0x82, 0x84, 0x8b, 0x96, 0x0c, 0x12, 0x18, 0x24}
	channels24GHz  = []int{1, 6, 11}
)

// Scenario sizes, by name.
var scenarios = map[string]int{
	"basic":   10,
	"crowded": 50,
}

// Station is a simulated client and the networks it remembers.
type Station struct {
	MAC        net.HardwareAddr
	Vendor     string
	Networks   []string
	RSSI       int
	Channel    int
	Randomized bool
}

// DataGenerator produces probe requests from a population of stations.
type DataGenerator struct {
	rand     *rand.Rand
	stations []*Station
	vendors  []string
}

// NewDataGenerator creates a generator seeded with seed (the clock when 0).
func NewDataGenerator(seed int64) *DataGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	vendors := make([]string, 0, len(vendorPrefixes))
	for v := range vendorPrefixes {
		vendors = append(vendors, v)
	}
	sort.Strings(vendors)
	return &DataGenerator{
		rand:    rand.New(rand.NewSource(seed)),
		vendors: vendors,
	}
}

// GenerateMAC returns an address under vendor's prefix, or a random
// locally administered one when vendor is empty or unknown.
func (g *DataGenerator) GenerateMAC(vendor string) net.HardwareAddr {
	mac := make(net.HardwareAddr, 6)
	g.rand.Read(mac)
	if p, ok := vendorPrefixes[vendor]; ok {
		copy(mac, p[:])
		return mac
	}
	mac[0] = (mac[0] | 0x02) &^ 0x01
	return mac
}

// GenerateStation adds a station remembering one to four networks.
// About a third of stations use a randomized address, as modern phones do.
func (g *DataGenerator) GenerateStation() *Station {
	sta := &Station{
		RSSI:    -40 - g.rand.Intn(50),
		Channel: channels24GHz[g.rand.Intn(len(channels24GHz))],
	}
	if g.rand.Float32() < 0.33 {
		sta.Randomized = true
		sta.MAC = g.GenerateMAC("")
	} else {
		sta.Vendor = g.vendors[g.rand.Intn(len(g.vendors))]
		sta.MAC = g.GenerateMAC(sta.Vendor)
	}

	n := 1 + g.rand.Intn(4)
	for _, i := range g.rand.Perm(len(commonSSIDs))[:n] {
		sta.Networks = append(sta.Networks, commonSSIDs[i])
	}
	g.stations = append(g.stations, sta)
	return sta
}

// GenerateScenario populates the station list for a named scenario.
func (g *DataGenerator) GenerateScenario(scenario string) error {
	n, ok := scenarios[scenario]
	if !ok {
		return fmt.Errorf("unknown mock scenario %q", scenario)
	}
	for i := 0; i < n; i++ {
		g.GenerateStation()
	}
	return nil
}

// GetStations returns all stations
func (g *DataGenerator) GetStations() []*Station {
	return g.stations
}

// NextProbe picks a station and one of its networks, drifts the station's
// signal and returns the probe request it would send.
func (g *DataGenerator) NextProbe() ([]byte, int, error) {
	if len(g.stations) == 0 {
		g.GenerateStation()
	}
	sta := g.stations[g.rand.Intn(len(g.stations))]
	sta.RSSI += g.rand.Intn(11) - 5
	if sta.RSSI > -20 {
		sta.RSSI = -20
	}
	if sta.RSSI < -95 {
		sta.RSSI = -95
	}
	ssid := sta.Networks[g.rand.Intn(len(sta.Networks))]
	f, err := ProbeRequest(sta.MAC, ssid, sta.Channel)
	return f, sta.RSSI, err
}

// ProbeRequest serializes a directed probe request without radiotap or FCS.
func ProbeRequest(client net.HardwareAddr, ssid string, channel int) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{},
		&layers.Dot11{
			Type:     layers.Dot11TypeMgmtProbeReq,
			Address1: broadcast,
			Address2: client,
			Address3: broadcast,
		},
		dot11Info(layers.Dot11InformationElementIDSSID, []byte(ssid)),
		dot11Info(layers.Dot11InformationElementIDRates, supportedRates),
		dot11Info(layers.Dot11InformationElementIDDSSet, []byte{byte(channel)}),
	)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func dot11Info(id layers.Dot11InformationElementID, info []byte) *layers.Dot11InformationElement {
	return &layers.Dot11InformationElement{
		ID:     id,
		Length: uint8(len(info) & 0xff),
		Info:   info,
	}
}
