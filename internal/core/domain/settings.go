package domain

import "time"

// AttackSettings are the operator-tunable parameters read when an attack starts.
type AttackSettings struct {
	DeauthPacketsPerBurst int           `json:"deauth_packets_per_burst"`
	BeaconInterval        time.Duration `json:"beacon_interval"`
	MaxBeaconSSIDs        int           `json:"max_beacon_ssids"`
	MaxProbes             int           `json:"max_probes"`
	RickrollSpeed         int           `json:"rickroll_speed"`
	ChannelHopping        bool          `json:"channel_hopping"`
	RandomizeMAC          bool          `json:"randomize_mac"`
	MinSignal             int           `json:"min_signal"`
	DeviceTimeout         time.Duration `json:"device_timeout"`
	FilterDuplicates      bool          `json:"filter_duplicates"`
	SaveProbes            bool          `json:"save_probes"`
}

// DefaultAttackSettings mirrors the factory defaults of the device.
func DefaultAttackSettings() AttackSettings {
	return AttackSettings{
		DeauthPacketsPerBurst: 10,
		BeaconInterval:        100 * time.Millisecond,
		MaxBeaconSSIDs:        20,
		MaxProbes:             100,
		RickrollSpeed:         2,
		ChannelHopping:        true,
		RandomizeMAC:          true,
		MinSignal:             -85,
		DeviceTimeout:         60 * time.Second,
		FilterDuplicates:      true,
		SaveProbes:            true,
	}
}

// Clamp returns a copy with every value forced into its legal range.
func (s AttackSettings) Clamp() AttackSettings {
	s.DeauthPacketsPerBurst = clampInt(s.DeauthPacketsPerBurst, 1, 50)
	s.MaxBeaconSSIDs = clampInt(s.MaxBeaconSSIDs, 1, 50)
	s.RickrollSpeed = clampInt(s.RickrollSpeed, 1, 5)
	if s.MaxProbes < 1 {
		s.MaxProbes = 1
	}
	if s.BeaconInterval < 100*time.Millisecond {
		s.BeaconInterval = 100 * time.Millisecond
	}
	if s.BeaconInterval > time.Second {
		s.BeaconInterval = time.Second
	}
	if s.DeviceTimeout <= 0 {
		s.DeviceTimeout = 60 * time.Second
	}
	return s
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
