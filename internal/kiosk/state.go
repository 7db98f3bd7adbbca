// Package kiosk holds the checkup flow state. Reduce is the only place the state
// changes; Session runs it on a single goroutine and carries out the effects it asks for.
package kiosk

import (
	"checkup-kiosk/internal/camera"
	"checkup-kiosk/internal/model"
	"checkup-kiosk/internal/stage"
)

const (
	StatusFacePrompt   = "正在捕捉面部气色..."
	StatusTonguePrompt = "请张嘴伸出舌头..."
	StatusCaptured     = "特征采集成功！"
)

type State struct {
	Stage         stage.Stage       `json:"stage"`
	Epoch         uint64            `json:"-"`
	Progress      float64           `json:"progress"`
	Capturing     bool              `json:"capturing"`
	ScanStatus    string            `json:"scan_status"`
	Profile       model.UserProfile `json:"profile"`
	HealthScore   int               `json:"health_score"`
	Advice        string            `json:"advice"`
	AdviceLoading bool              `json:"advice_loading"`
}

// NewState is the boot state: home screen, nothing scanned yet.
func NewState(p model.UserProfile) State {
	return State{
		Stage:       stage.Home,
		ScanStatus:  camera.StatusSearching,
		Profile:     p,
		HealthScore: model.Summary().HealthScore,
	}
}

type Event interface {
	event()
}

// Navigate is a user-driven stage change. Routes outside stage.CanNavigate are ignored.
type Navigate struct{ To stage.Stage }

// Tick, Advance and CaptureEnd come from timers armed for a particular stage entry.
type Tick struct{ Epoch uint64 }
type Advance struct{ Epoch uint64 }
type CaptureEnd struct{ Epoch uint64 }

type CameraResult struct {
	Epoch uint64
	Err   error
}

type ProfileUpdated struct{ Profile model.UserProfile }
type AdviceStarted struct{}
type AdviceFinished struct{ Text string }

// Teardown ends the current stage without entering another one.
type Teardown struct{}

func (Navigate) event()       {}
func (Tick) event()           {}
func (Advance) event()        {}
func (CaptureEnd) event()     {}
func (CameraResult) event()   {}
func (ProfileUpdated) event() {}
func (AdviceStarted) event()  {}
func (AdviceFinished) event() {}
func (Teardown) event()       {}

type EffectKind int

const (
	StopTicker EffectKind = iota
	StartTicker
	CancelAdvance
	ScheduleAdvance
	CancelCapturePulse
	ScheduleCaptureEnd
	StopCamera
	StartCamera
	RecordCheckup
)

var effectNames = [...]string{
	"StopTicker", "StartTicker", "CancelAdvance", "ScheduleAdvance",
	"CancelCapturePulse", "ScheduleCaptureEnd", "StopCamera", "StartCamera", "RecordCheckup",
}

func (k EffectKind) String() string {
	if int(k) < len(effectNames) {
		return effectNames[k]
	}
	return "EffectKind(?)"
}

type Effect struct {
	Kind  EffectKind
	Epoch uint64
}

// Reduce is pure: it returns the next state and the side effects the runtime must perform.
func Reduce(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case Navigate:
		if !stage.CanNavigate(s.Stage, e.To) {
			return s, nil
		}
		return enter(s, e.To)

	case Advance:
		if e.Epoch != s.Epoch || s.Progress < stage.Complete {
			return s, nil
		}
		next, ok := stage.Next(s.Stage)
		if !ok {
			return s, nil
		}
		return enter(s, next)

	case Tick:
		if e.Epoch != s.Epoch || !s.Stage.Scanning() || s.Progress >= stage.Complete {
			return s, nil
		}
		r := stage.Tick(s.Stage, s.Progress)
		s.Progress = r.Progress
		var effects []Effect
		if r.Capture {
			s.Capturing = true
			s.ScanStatus = StatusCaptured
			effects = append(effects, Effect{Kind: ScheduleCaptureEnd, Epoch: s.Epoch})
		}
		if s.Progress >= stage.Complete {
			effects = append(effects, Effect{Kind: StopTicker})
			if _, ok := stage.Next(s.Stage); ok {
				effects = append(effects, Effect{Kind: ScheduleAdvance, Epoch: s.Epoch})
			}
		}
		return s, effects

	case CaptureEnd:
		if e.Epoch == s.Epoch {
			s.Capturing = false
		}
		return s, nil

	case CameraResult:
		if e.Epoch != s.Epoch || !s.Stage.Vision() {
			return s, nil
		}
		if e.Err != nil {
			s.ScanStatus = camera.StatusUnavailable
		} else {
			s.ScanStatus = camera.StatusReady
		}
		return s, nil

	case ProfileUpdated:
		s.Profile = e.Profile
		return s, nil

	case AdviceStarted:
		s.AdviceLoading = true
		s.Advice = ""
		return s, nil

	case AdviceFinished:
		s.AdviceLoading = false
		s.Advice = e.Text
		return s, nil

	case Teardown:
		s.Epoch++
		s.Capturing = false
		return s, exitEffects()
	}
	return s, nil
}

func exitEffects() []Effect {
	return []Effect{
		{Kind: StopTicker},
		{Kind: CancelAdvance},
		{Kind: CancelCapturePulse},
		{Kind: StopCamera},
	}
}

// enter leaves the current stage and enters to. Entering the current stage again
// counts as a fresh entry.
func enter(s State, to stage.Stage) (State, []Effect) {
	effects := exitEffects()
	s.Epoch++
	s.Stage = to
	s.Capturing = false

	if to.Scanning() {
		s.Progress = 0
		effects = append(effects, Effect{Kind: StartTicker, Epoch: s.Epoch})
	}
	switch to {
	case stage.Face:
		s.ScanStatus = StatusFacePrompt
	case stage.Tongue:
		s.ScanStatus = StatusTonguePrompt
	case stage.Summary:
		effects = append(effects, Effect{Kind: RecordCheckup, Epoch: s.Epoch})
	}
	if to.Vision() {
		effects = append(effects, Effect{Kind: StartCamera, Epoch: s.Epoch})
	}
	return s, effects
}
