package radio

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/lcalzada-xor/airstrike/internal/core/domain"
)

var reChannel = regexp.MustCompile(`([0-9]+)(?:\.[0-9]+)? MHz \[([0-9]+)\]`)

// EnableMonitorMode puts the interface into monitor mode on channel 1.
func EnableMonitorMode(iface string) error {
	log.Printf("[RADIO] Enabling monitor mode on %s...", iface)
	if err := runCmd("ip", "link", "set", iface, "down"); err != nil {
		return err
	}
	if err := runCmd("iw", iface, "set", "type", "monitor"); err != nil {
		log.Printf("[RADIO] Hint: 'Device or resource busy' usually means NetworkManager or wpa_supplicant still own %s", iface)
		return err
	}
	if err := runCmd("ip", "link", "set", iface, "up"); err != nil {
		return err
	}
	// Not fatal: the scheduler sets the channel on its first tick.
	_ = runCmd("iw", iface, "set", "channel", "1")
	return nil
}

// DisableMonitorMode puts the interface back into managed mode
func DisableMonitorMode(iface string) {
	log.Printf("[RADIO] Restoring managed mode on %s...", iface)
	_ = runCmd("ip", "link", "set", iface, "down")
	_ = runCmd("iw", iface, "set", "type", "managed")
	_ = runCmd("ip", "link", "set", iface, "up")
}

// KillConflictingProcesses stops NetworkManager and wpa_supplicant.
func KillConflictingProcesses() error {
	for _, svc := range []string{"NetworkManager", "wpa_supplicant"} {
		if err := runCmd("systemctl", "stop", svc); err != nil {
			return fmt.Errorf("stop %s: %w", svc, err)
		}
	}
	return nil
}

// RestoreNetworkServices restarts wpa_supplicant and NetworkManager.
// Both are attempted; the last failure is returned.
func RestoreNetworkServices() error {
	var lastErr error
	for _, svc := range []string{"wpa_supplicant", "NetworkManager"} {
		if err := runCmd("systemctl", "start", svc); err != nil {
			lastErr = fmt.Errorf("start %s: %w", svc, err)
		}
	}
	return lastErr
}

// SupportedChannels returns the enabled 2.4 GHz channels of iface's phy.
func SupportedChannels(iface string) ([]int, error) {
	out, err := execCommand("iw", "dev").Output()
	if err != nil {
		return nil, fmt.Errorf("iw dev: %w", err)
	}
	phy, err := phyForInterface(out, iface)
	if err != nil {
		return nil, err
	}
	info, err := execCommand("iw", "phy", phy, "info").Output()
	if err != nil {
		return nil, fmt.Errorf("iw phy %s info: %w", phy, err)
	}
	return parseChannels(info), nil
}

// phyForInterface maps "phy#0 ... Interface wlan0" to "phy0".
func phyForInterface(iwDev []byte, iface string) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(iwDev))
	currentPhy := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "phy#") {
			currentPhy = strings.Replace(line, "#", "", 1)
		} else if line == "Interface "+iface && currentPhy != "" {
			return currentPhy, nil
		}
	}
	return "", fmt.Errorf("interface %s not found in iw dev output", iface)
}

// parseChannels reads the Frequencies blocks of `iw phy X info`, skipping
// disabled entries and any channel whose frequency is not a 2.4 GHz one.
func parseChannels(info []byte) []int {
	var channels []int
	seen := make(map[int]bool)
	scanner := bufio.NewScanner(bytes.NewReader(info))
	inFrequencies := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "Frequencies:" {
			inFrequencies = true
			continue
		}
		if !inFrequencies {
			continue
		}
		if !strings.HasPrefix(line, "*") {
			inFrequencies = false
			continue
		}
		if strings.Contains(line, "(disabled)") {
			continue
		}
		m := reChannel.FindStringSubmatch(line)
		if len(m) < 3 {
			continue
		}
		mhz, _ := strconv.Atoi(m[1])
		ch, err := strconv.Atoi(m[2])
		if err != nil || domain.ChannelFrequency(ch) != mhz || seen[ch] {
			continue
		}
		seen[ch] = true
		channels = append(channels, ch)
	}
	return channels
}

func runCmd(name string, args ...string) error {
	output, err := execCommand(name, args...).CombinedOutput()
	if err != nil {
		log.Printf("[RADIO] Command failed: %s %v: %s", name, args, strings.TrimSpace(string(output)))
		return err
	}
	return nil
}
