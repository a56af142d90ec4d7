package hopping

import "sync/atomic"

// SchedulerState is what the scheduler does on each Tick.
type SchedulerState int32

const (
	// StateIdle leaves the radio on whatever channel it is on.
	StateIdle SchedulerState = iota
	// StateHopping advances through the channel list every interval.
	StateHopping
	// StateLocked pins the radio to one channel until Unlock.
	StateLocked
)

var stateNames = [...]string{"idle", "hopping", "locked"}

func (s SchedulerState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// stateCell holds a SchedulerState readable without the scheduler mutex.
type stateCell struct{ v atomic.Int32 }

func (c *stateCell) Set(s SchedulerState) { c.v.Store(int32(s)) }

func (c *stateCell) Get() SchedulerState { return SchedulerState(c.v.Load()) }
