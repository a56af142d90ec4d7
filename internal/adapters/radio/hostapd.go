package radio

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
)

// execCommand allows mocking in tests
var execCommand = exec.Command

// Hostapd runs the access point personality with hostapd and iproute2.
type Hostapd struct {
	Interface  string
	ConfigPath string
	Address    net.IP

	mu       sync.Mutex
	identity domain.ApIdentity
	proc     *exec.Cmd
	exited   chan struct{}
}

var _ APController = (*Hostapd)(nil)

// NewHostapd creates a controller for iface. initial is reported as the
// identity until the first Apply.
func NewHostapd(iface, configDir string, address net.IP, initial domain.ApIdentity) *Hostapd {
	return &Hostapd{
		Interface:  iface,
		ConfigPath: filepath.Join(configDir, "hostapd-"+iface+".conf"),
		Address:    address,
		identity:   initial.Clone(),
	}
}

// Config renders the hostapd configuration for id.
func (h *Hostapd) Config(id domain.ApIdentity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "interface=%s\n", h.Interface)
	b.WriteString("driver=nl80211\n")
	fmt.Fprintf(&b, "ssid=%s\n", id.SSID)
	b.WriteString("hw_mode=g\n")
	fmt.Fprintf(&b, "channel=%d\n", id.Channel)
	if len(id.HWAddr) == 6 {
		fmt.Fprintf(&b, "bssid=%s\n", strings.ToLower(id.HWAddr.String()))
	}
	b.WriteString("auth_algs=1\n")
	b.WriteString("ignore_broadcast_ssid=0\n")
	return b.String()
}

// Apply restarts hostapd advertising id. An empty SSID only restores the
// hardware address and leaves the access point down.
func (h *Hostapd) Apply(id domain.ApIdentity) error {
	if id.SSID != "" && !domain.IsValidSSID(id.SSID) {
		return domain.ErrSSIDTooLong
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopLocked()

	steps := [][]string{{"ip", "link", "set", "dev", h.Interface, "down"}}
	if len(id.HWAddr) == 6 {
		steps = append(steps, []string{"ip", "link", "set", "dev", h.Interface, "address", id.HWAddr.String()})
	}
	steps = append(steps, []string{"ip", "link", "set", "dev", h.Interface, "up"})
	if h.Address != nil && id.SSID != "" {
		steps = append(steps, []string{"ip", "addr", "replace", h.Address.String() + "/24", "dev", h.Interface})
	}
	for _, s := range steps {
		if out, err := execCommand(s[0], s[1:]...).CombinedOutput(); err != nil {
			return fmt.Errorf("%s: %w (%s)", strings.Join(s, " "), err, bytes.TrimSpace(out))
		}
	}

	if id.SSID != "" {
		if err := os.WriteFile(h.ConfigPath, []byte(h.Config(id)), 0o600); err != nil {
			return fmt.Errorf("write hostapd config: %w", err)
		}
		cmd := execCommand("hostapd", h.ConfigPath)
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("start hostapd: %w", err)
		}
		exited := make(chan struct{})
		go func() {
			if err := cmd.Wait(); err != nil {
				log.Printf("[AP] hostapd on %s exited: %v", h.Interface, err)
			}
			close(exited)
		}()
		h.proc, h.exited = cmd, exited
	}
	h.identity = id.Clone()
	log.Printf("[AP] %s now advertising %q", h.Interface, id.SSID)
	return nil
}

func (h *Hostapd) stopLocked() {
	if h.proc == nil {
		return
	}
	if h.proc.Process != nil {
		_ = h.proc.Process.Kill()
	}
	<-h.exited
	h.proc, h.exited = nil, nil
}

func (h *Hostapd) Identity() domain.ApIdentity {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.identity.Clone()
}

// Stations counts associated clients from 'iw station dump'.
func (h *Hostapd) Stations() (int, error) {
	out, err := execCommand("iw", "dev", h.Interface, "station", "dump").Output()
	if err != nil {
		return 0, err
	}
	n := 0
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if strings.HasPrefix(strings.TrimSpace(scanner.Text()), "Station ") {
			n++
		}
	}
	return n, nil
}

func (h *Hostapd) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
	return nil
}
