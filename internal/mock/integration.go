package mock

import (
	"context"
	"log"
	"time"
)

// DefaultInterval is the pause between simulated probe requests.
const DefaultInterval = 200 * time.Millisecond

// Receiver accepts captured frames; false means capture is off.
type Receiver interface {
	Deliver(frame []byte, rssi int) bool
}

// Traffic feeds simulated probe requests into a mock radio.
type Traffic struct {
	gen      *DataGenerator
	radio    Receiver
	interval time.Duration
	scenario string
}

// NewTraffic creates traffic for scenario ("basic" or "crowded").
func NewTraffic(radio Receiver, scenario string, interval time.Duration) (*Traffic, error) {
	if scenario == "" {
		scenario = "basic"
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	gen := NewDataGenerator(0)
	if err := gen.GenerateScenario(scenario); err != nil {
		return nil, err
	}
	log.Printf("[MOCK] Simulating %d stations (scenario %s)", len(gen.GetStations()), scenario)
	return &Traffic{gen: gen, radio: radio, interval: interval, scenario: scenario}, nil
}

// Run delivers one probe request per interval until ctx is done.
// It returns the number of frames the radio accepted.
func (t *Traffic) Run(ctx context.Context) int {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	delivered := 0
	for {
		select {
		case <-ctx.Done():
			return delivered
		case <-ticker.C:
			f, rssi, err := t.gen.NextProbe()
			if err != nil {
				log.Printf("[MOCK] Build probe failed: %v", err)
				continue
			}
			if t.radio.Deliver(f, rssi) {
				delivered++
			}
		}
	}
}

// GetScenario returns the current scenario
func (t *Traffic) GetScenario() string {
	return t.scenario
}
