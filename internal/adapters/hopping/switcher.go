package hopping

import (
	"fmt"
	"os/exec"
	"strconv"
	"sync/atomic"
)

// execCommand allows mocking in tests
var execCommand = exec.Command

// IWSwitcher tunes an interface with the 'iw' command.
type IWSwitcher struct {
	Interface string
	current   atomic.Int32
}

// NewIWSwitcher creates a switcher bound to iface.
func NewIWSwitcher(iface string) *IWSwitcher {
	return &IWSwitcher{Interface: iface}
}

// SetChannel executes the iw command to set the channel.
func (s *IWSwitcher) SetChannel(channel int) error {
	cmd := execCommand("iw", "dev", s.Interface, "set", "channel", strconv.Itoa(channel))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to set channel %d on %s: %w (%s)", channel, s.Interface, err, out)
	}
	s.current.Store(int32(channel))
	return nil
}

// Channel returns the last channel set successfully.
func (s *IWSwitcher) Channel() int {
	return int(s.current.Load())
}
