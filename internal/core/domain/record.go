package domain

import "time"

// RecordKind selects the collection a record is persisted to.
type RecordKind string

const (
	KindCredential RecordKind = "credential"
	KindProbe      RecordKind = "probe"
)

// Record is anything handed to the persistent sink.
type Record interface {
	Kind() RecordKind
}

// CredentialRecord holds the fields submitted to the portal login route.
type CredentialRecord struct {
	SSID       string            `json:"ssid"`
	Fields     map[string]string `json:"fields"`
	RemoteAddr string            `json:"remote_addr"`
	CapturedAt time.Time         `json:"captured_at"`
}

func (CredentialRecord) Kind() RecordKind { return KindCredential }

// ProbeRecord is the persisted form of an Observation.
type ProbeRecord struct {
	Client    string    `json:"client"`
	SSIDs     []string  `json:"ssids"`
	Signal    int       `json:"signal"`
	Vendor    string    `json:"vendor"`
	Random    bool      `json:"randomized"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

func (ProbeRecord) Kind() RecordKind { return KindProbe }

// NewProbeRecord flattens an observation.
func NewProbeRecord(o Observation) ProbeRecord {
	return ProbeRecord{
		Client:    FormatMAC(o.Client),
		SSIDs:     append([]string(nil), o.SSIDs...),
		Signal:    o.Signal,
		Random:    IsRandomizedMAC(o.Client),
		FirstSeen: o.FirstSeen,
		LastSeen:  o.LastSeen,
	}
}
