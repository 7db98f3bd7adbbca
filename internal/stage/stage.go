// Package stage holds the pure rules of the checkup flow: which stages exist,
// how simulated progress moves on each tick and where a finished stage goes next.
package stage

import "time"

type Stage string

const (
	Home     Stage = "home"
	Breath   Stage = "step1"
	Face     Stage = "step2"
	Tongue   Stage = "step_tongue"
	Gait     Stage = "step4"
	Summary  Stage = "summary"
	Contacts Stage = "contacts"
	Settings Stage = "settings"
)

const (
	TickPeriod   = 100 * time.Millisecond
	HoldDelay    = time.Second
	CapturePulse = 200 * time.Millisecond

	Complete = 100.0

	// The capture pulse fires on the tick that carries progress past CaptureLow.
	CaptureLow  = 60.0
	CaptureHigh = 62.0

	visionRate = 2.0
)

// All lists every stage in a stable order.
var All = []Stage{Home, Breath, Face, Tongue, Gait, Summary, Contacts, Settings}

var successors = map[Stage]Stage{
	Breath: Face,
	Face:   Tongue,
	Tongue: Gait,
	Gait:   Summary,
}

var rates = map[Stage]float64{
	Breath: 0.6,
	Gait:   0.8,
}

// Parse maps a wire name onto a stage.
func Parse(name string) (Stage, bool) {
	for _, s := range All {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

// Scanning reports whether the stage drives a progress bar.
func (s Stage) Scanning() bool {
	switch s {
	case Breath, Face, Tongue, Gait:
		return true
	}
	return false
}

// Vision reports whether the stage needs the camera.
func (s Stage) Vision() bool {
	return s == Face || s == Tongue
}

// Next returns the automatic successor of a finished scanning stage.
func Next(s Stage) (Stage, bool) {
	n, ok := successors[s]
	return n, ok
}

// Rate is the progress added per tick while in s. Non-scanning stages do not move.
func Rate(s Stage) float64 {
	if !s.Scanning() {
		return 0
	}
	if r, ok := rates[s]; ok {
		return r
	}
	return visionRate
}

type TickResult struct {
	Progress float64
	Capture  bool
}

// Tick computes the progress after one tick. Progress never exceeds Complete and
// never decreases.
func Tick(s Stage, progress float64) TickResult {
	if progress >= Complete {
		return TickResult{Progress: Complete}
	}
	next := progress + Rate(s)
	if next > Complete {
		next = Complete
	}
	res := TickResult{Progress: next}
	if s.Vision() && progress <= CaptureLow && next > CaptureLow {
		res.Capture = true
	}
	return res
}

// ProgressAfter replays ticks from zero.
func ProgressAfter(s Stage, ticks int) float64 {
	p := 0.0
	for i := 0; i < ticks; i++ {
		p = Tick(s, p).Progress
	}
	return p
}

// CanNavigate reports whether a user may move from one stage to another by hand.
// Automatic advancement between scanning stages does not go through here.
func CanNavigate(from, to Stage) bool {
	switch from {
	case Home:
		return to == Breath || to == Contacts || to == Settings
	case Contacts, Settings, Summary:
		return to == Home
	}
	if from.Scanning() {
		return to == Home || to == from
	}
	return false
}
