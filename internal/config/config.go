package config

import (
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
	"github.com/lcalzada-xor/airstrike/internal/core/ports"
)

// Config holds all application configuration. Attack is the startup value of
// the operator settings; once serving, read and update it only through
// AttackSettings and UpdateAttackSettings.
type Config struct {
	Interface      string
	APInterface    string
	APSSID         string
	APChannel      int
	Addr           string
	PortalAddr     string
	PortalIP       string
	DNSAddr        string
	DBPath         string
	OUIDBPath      string
	HostapdDir     string
	GRPCPort       int
	Debug          bool
	MockMode       bool
	MockScenario   string
	TickInterval   time.Duration
	HopInterval    time.Duration
	FrameGap       time.Duration
	PasswordHash   string
	AllowedOrigins []string

	mu     sync.RWMutex
	Attack domain.AttackSettings
}

var _ ports.SettingsStore = (*Config)(nil)

// Default returns the built-in defaults overridden by AIRSTRIKE_* variables.
// Flags bound by the CLI override both.
func Default() *Config {
	def := domain.DefaultAttackSettings()
	cfg := &Config{
		Interface:      getEnv("AIRSTRIKE_INTERFACE", "wlan0"),
		APInterface:    getEnv("AIRSTRIKE_AP_INTERFACE", ""),
		APSSID:         getEnv("AIRSTRIKE_AP_SSID", "airstrike"),
		APChannel:      getEnvInt("AIRSTRIKE_AP_CHANNEL", 1),
		Addr:           getEnv("AIRSTRIKE_ADDR", ":8080"),
		PortalAddr:     getEnv("AIRSTRIKE_PORTAL_ADDR", ":80"),
		PortalIP:       getEnv("AIRSTRIKE_PORTAL_IP", "192.168.4.1"),
		DNSAddr:        getEnv("AIRSTRIKE_DNS_ADDR", ":53"),
		DBPath:         getEnv("AIRSTRIKE_DB", getDefaultPath("airstrike.db")),
		OUIDBPath:      getEnv("AIRSTRIKE_OUI_DB", "data/oui/ieee_oui.db"),
		HostapdDir:     getEnv("AIRSTRIKE_HOSTAPD_DIR", filepath.Join(os.TempDir(), "airstrike")),
		GRPCPort:       getEnvInt("AIRSTRIKE_GRPC", 9000),
		Debug:          getEnvBool("AIRSTRIKE_DEBUG", false),
		MockMode:       getEnvBool("AIRSTRIKE_MOCK", false),
		MockScenario:   getEnv("AIRSTRIKE_MOCK_SCENARIO", "basic"),
		TickInterval:   getEnvDuration("AIRSTRIKE_TICK", 10*time.Millisecond),
		HopInterval:    getEnvDuration("AIRSTRIKE_HOP_INTERVAL", 500*time.Millisecond),
		FrameGap:       getEnvDuration("AIRSTRIKE_FRAME_GAP", time.Millisecond),
		PasswordHash:   getEnv("AIRSTRIKE_PASSWORD_HASH", ""),
		AllowedOrigins: splitList(getEnv("AIRSTRIKE_ALLOWED_ORIGINS", "")),
		Attack: domain.AttackSettings{
			DeauthPacketsPerBurst: getEnvInt("AIRSTRIKE_DEAUTH_BURST", def.DeauthPacketsPerBurst),
			BeaconInterval:        getEnvDuration("AIRSTRIKE_BEACON_INTERVAL", def.BeaconInterval),
			MaxBeaconSSIDs:        getEnvInt("AIRSTRIKE_MAX_BEACON_SSIDS", def.MaxBeaconSSIDs),
			MaxProbes:             getEnvInt("AIRSTRIKE_MAX_PROBES", def.MaxProbes),
			RickrollSpeed:         getEnvInt("AIRSTRIKE_RICKROLL_SPEED", def.RickrollSpeed),
			ChannelHopping:        getEnvBool("AIRSTRIKE_CHANNEL_HOPPING", def.ChannelHopping),
			RandomizeMAC:          getEnvBool("AIRSTRIKE_RANDOMIZE_MAC", def.RandomizeMAC),
			MinSignal:             getEnvInt("AIRSTRIKE_MIN_SIGNAL", def.MinSignal),
			DeviceTimeout:         getEnvDuration("AIRSTRIKE_DEVICE_TIMEOUT", def.DeviceTimeout),
			FilterDuplicates:      getEnvBool("AIRSTRIKE_FILTER_DUPLICATES", def.FilterDuplicates),
			SaveProbes:            getEnvBool("AIRSTRIKE_SAVE_PROBES", def.SaveProbes),
		},
	}
	return cfg
}

// Validate checks the values that cannot be clamped and clamps the rest.
func (c *Config) Validate() error {
	if !c.MockMode && !domain.IsValidInterface(c.Interface) {
		return fmt.Errorf("invalid interface name %q", c.Interface)
	}
	if c.APInterface == "" {
		c.APInterface = c.Interface
	}
	if !c.MockMode && !domain.IsValidInterface(c.APInterface) {
		return fmt.Errorf("invalid AP interface name %q", c.APInterface)
	}
	if !domain.IsValidChannel(c.APChannel) {
		return fmt.Errorf("invalid AP channel %d", c.APChannel)
	}
	if len(c.APSSID) == 0 || len(c.APSSID) > domain.MaxSSIDLen {
		return fmt.Errorf("AP SSID must be 1-%d bytes", domain.MaxSSIDLen)
	}
	if ip := net.ParseIP(c.PortalIP); ip == nil || ip.To4() == nil {
		return fmt.Errorf("portal IP %q is not IPv4", c.PortalIP)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port %d", c.GRPCPort)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.TickInterval)
	}
	if c.FrameGap < 0 {
		c.FrameGap = 0
	}
	c.mu.Lock()
	c.Attack = c.Attack.Clamp()
	c.mu.Unlock()
	return nil
}

// PortalAddress is PortalIP parsed.
func (c *Config) PortalAddress() net.IP {
	return net.ParseIP(c.PortalIP).To4()
}

// AttackSettings returns a snapshot of the operator settings.
func (c *Config) AttackSettings() domain.AttackSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Attack
}

// UpdateAttackSettings stores s clamped and returns the stored value.
// The running attack keeps its settings until the next start.
func (c *Config) UpdateAttackSettings(s domain.AttackSettings) domain.AttackSettings {
	s = s.Clamp()
	c.mu.Lock()
	c.Attack = s
	c.mu.Unlock()
	return s
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("250ms") or bare milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

// getDefaultPath returns name inside ~/.airstrike, creating the directory.
func getDefaultPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return name
	}

	dir := filepath.Join(home, ".airstrike")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create .airstrike directory, using current dir: %v", err)
		return name
	}

	return filepath.Join(dir, name)
}
