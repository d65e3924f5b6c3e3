package cpu

import "time"

// Master clock rates for the two NES video regions, in Hz.
const (
	NTSCFrequency = 1789773.0
	PALFrequency  = 1662607.0
)

// A Clock converts cycle counts into wall-clock delays for a
// configurable clock rate.
type Clock struct {
	Frequency float64 // CPU clock rate in Hz
}

// NTSC returns a clock running at the NTSC 2A03 rate.
func NTSC() Clock {
	return Clock{Frequency: NTSCFrequency}
}

// PAL returns a clock running at the PAL 2A07 rate.
func PAL() Clock {
	return Clock{Frequency: PALFrequency}
}

// Hook returns a cycle hook that runs each instruction and then sleeps
// the calling goroutine until the instruction's share of wall-clock
// time has elapsed. Per-instruction times are far below timer
// resolution, so the hook tracks a running deadline rather than
// sleeping each call.
func (c Clock) Hook() CycleFunc {
	var deadline time.Time
	return func(cycles int, fn func()) {
		fn()
		now := time.Now()
		if deadline.IsZero() || now.Sub(deadline) > 100*time.Millisecond {
			deadline = now
		}
		deadline = deadline.Add(time.Duration(float64(cycles) / c.Frequency * float64(time.Second)))
		if d := deadline.Sub(now); d > 0 {
			time.Sleep(d)
		}
	}
}
