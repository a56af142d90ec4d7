package storage

import (
	"encoding/json"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
)

// toProbeRecord converts a database model to a domain record.
func toProbeRecord(m ProbeModel) domain.ProbeRecord {
	var ssids []string
	if m.SSIDs != "" {
		_ = json.Unmarshal([]byte(m.SSIDs), &ssids)
	}
	return domain.ProbeRecord{
		Client:    m.Client,
		SSIDs:     ssids,
		Signal:    m.Signal,
		Vendor:    m.Vendor,
		Random:    m.Random,
		FirstSeen: m.FirstSeen,
		LastSeen:  m.LastSeen,
	}
}

// toProbeModel converts a domain record to a database model.
func toProbeModel(r domain.ProbeRecord) ProbeModel {
	b, _ := json.Marshal(r.SSIDs)
	return ProbeModel{
		Client:    r.Client,
		SSIDs:     string(b),
		Signal:    r.Signal,
		Vendor:    r.Vendor,
		Random:    r.Random,
		FirstSeen: r.FirstSeen,
		LastSeen:  r.LastSeen,
	}
}

// mergeProbe folds a newer sighting of the same client into the stored one.
func mergeProbe(old, cur domain.ProbeRecord) domain.ProbeRecord {
	seen := make(map[string]bool, len(old.SSIDs)+len(cur.SSIDs))
	var ssids []string
	for _, s := range append(append([]string(nil), old.SSIDs...), cur.SSIDs...) {
		if !seen[s] {
			seen[s] = true
			ssids = append(ssids, s)
		}
	}
	cur.SSIDs = ssids
	if !old.FirstSeen.IsZero() && (cur.FirstSeen.IsZero() || old.FirstSeen.Before(cur.FirstSeen)) {
		cur.FirstSeen = old.FirstSeen
	}
	if old.LastSeen.After(cur.LastSeen) {
		cur.LastSeen = old.LastSeen
	}
	if cur.Vendor == "" {
		cur.Vendor = old.Vendor
	}
	return cur
}

func toCredentialModel(r domain.CredentialRecord) *CredentialModel {
	b, _ := json.Marshal(r.Fields)
	return &CredentialModel{
		SSID:       r.SSID,
		Fields:     string(b),
		RemoteAddr: r.RemoteAddr,
		CapturedAt: r.CapturedAt,
	}
}

func toCredentialRecord(m CredentialModel) domain.CredentialRecord {
	fields := map[string]string{}
	if m.Fields != "" {
		_ = json.Unmarshal([]byte(m.Fields), &fields)
	}
	return domain.CredentialRecord{
		SSID:       m.SSID,
		Fields:     fields,
		RemoteAddr: m.RemoteAddr,
		CapturedAt: m.CapturedAt,
	}
}
