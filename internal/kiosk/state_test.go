package kiosk

import (
	"errors"
	"testing"

	"checkup-kiosk/internal/camera"
	"checkup-kiosk/internal/model"
	"checkup-kiosk/internal/stage"
)

func kinds(effects []Effect) map[EffectKind]int {
	out := make(map[EffectKind]int)
	for _, e := range effects {
		out[e.Kind]++
	}
	return out
}

func at(st stage.Stage, progress float64) State {
	s := NewState(model.DefaultProfile())
	s.Stage = st
	s.Progress = progress
	s.Epoch = 7
	return s
}

func TestNewState(t *testing.T) {
	s := NewState(model.DefaultProfile())
	if s.Stage != stage.Home {
		t.Errorf("Stage = %s, want home", s.Stage)
	}
	if s.HealthScore != 94 {
		t.Errorf("HealthScore = %d, want 94", s.HealthScore)
	}
	if s.ScanStatus != camera.StatusSearching {
		t.Errorf("ScanStatus = %q", s.ScanStatus)
	}
}

func TestNavigateIntoBreath(t *testing.T) {
	s := at(stage.Home, 100)
	next, effects := Reduce(s, Navigate{To: stage.Breath})

	if next.Stage != stage.Breath || next.Progress != 0 {
		t.Errorf("state = %s/%v, want step1/0", next.Stage, next.Progress)
	}
	if next.Epoch != s.Epoch+1 {
		t.Errorf("Epoch = %d, want %d", next.Epoch, s.Epoch+1)
	}
	k := kinds(effects)
	if k[StopCamera] != 1 || k[StartTicker] != 1 || k[StartCamera] != 0 {
		t.Errorf("effects = %v", effects)
	}
	for _, e := range effects {
		if e.Kind == StartTicker && e.Epoch != next.Epoch {
			t.Errorf("ticker armed for epoch %d, want %d", e.Epoch, next.Epoch)
		}
	}
}

func TestNavigateRejected(t *testing.T) {
	s := at(stage.Home, 0)
	next, effects := Reduce(s, Navigate{To: stage.Summary})
	if next != s || effects != nil {
		t.Errorf("invalid navigation changed state: %+v %v", next, effects)
	}
}

func TestTickAdvancesAndCompletes(t *testing.T) {
	s := at(stage.Gait, 99.5)
	next, effects := Reduce(s, Tick{Epoch: s.Epoch})
	if next.Progress != stage.Complete {
		t.Errorf("Progress = %v, want 100", next.Progress)
	}
	k := kinds(effects)
	if k[StopTicker] != 1 || k[ScheduleAdvance] != 1 {
		t.Errorf("effects = %v", effects)
	}

	// Further ticks at 100 change nothing.
	again, effects := Reduce(next, Tick{Epoch: s.Epoch})
	if again != next || effects != nil {
		t.Errorf("tick at 100 = %+v %v", again, effects)
	}
}

func TestStaleEventsIgnored(t *testing.T) {
	s := at(stage.Face, 100)
	for _, ev := range []Event{
		Tick{Epoch: s.Epoch - 1},
		Advance{Epoch: s.Epoch - 1},
		CameraResult{Epoch: s.Epoch - 1},
	} {
		if next, effects := Reduce(s, ev); next != s || effects != nil {
			t.Errorf("%T with stale epoch changed state", ev)
		}
	}
}

func TestCapturePulse(t *testing.T) {
	s := at(stage.Tongue, 60)
	next, effects := Reduce(s, Tick{Epoch: s.Epoch})
	if !next.Capturing || next.ScanStatus != StatusCaptured {
		t.Errorf("capturing = %v, status = %q", next.Capturing, next.ScanStatus)
	}
	if kinds(effects)[ScheduleCaptureEnd] != 1 {
		t.Errorf("effects = %v", effects)
	}
	ended, _ := Reduce(next, CaptureEnd{Epoch: next.Epoch})
	if ended.Capturing {
		t.Error("CaptureEnd left Capturing set")
	}
}

func TestAdvanceWalksTheChain(t *testing.T) {
	s := at(stage.Breath, 100)
	want := []stage.Stage{stage.Face, stage.Tongue, stage.Gait, stage.Summary}
	for _, w := range want {
		next, effects := Reduce(s, Advance{Epoch: s.Epoch})
		if next.Stage != w {
			t.Fatalf("Advance from %s = %s, want %s", s.Stage, next.Stage, w)
		}
		k := kinds(effects)
		if k[StopCamera] != 1 {
			t.Errorf("%s: StopCamera x%d, want exactly 1", w, k[StopCamera])
		}
		if w.Vision() != (k[StartCamera] == 1) {
			t.Errorf("%s: StartCamera x%d", w, k[StartCamera])
		}
		if w == stage.Summary && k[RecordCheckup] != 1 {
			t.Errorf("summary entry did not record the checkup")
		}
		s = next
		s.Progress = 100
	}

	if next, effects := Reduce(s, Advance{Epoch: s.Epoch}); next.Stage != stage.Summary || effects != nil {
		t.Errorf("summary advanced to %s", next.Stage)
	}
}

func TestAdvanceNeedsCompletion(t *testing.T) {
	s := at(stage.Face, 80)
	if next, _ := Reduce(s, Advance{Epoch: s.Epoch}); next.Stage != stage.Face {
		t.Errorf("advanced at 80%%: %s", next.Stage)
	}
}

func TestReentryResetsProgress(t *testing.T) {
	for _, st := range []stage.Stage{stage.Breath, stage.Face, stage.Tongue, stage.Gait} {
		s := at(st, 42)
		next, effects := Reduce(s, Navigate{To: st})
		if next.Progress != 0 {
			t.Errorf("%s: Progress after re-entry = %v", st, next.Progress)
		}
		k := kinds(effects)
		if k[StopCamera] != 1 || k[StartTicker] != 1 {
			t.Errorf("%s: effects = %v", st, effects)
		}
		if st.Vision() && k[StartCamera] != 1 {
			t.Errorf("%s: camera not restarted", st)
		}
	}
}

func TestVisionPrompts(t *testing.T) {
	s := at(stage.Breath, 100)
	face, _ := Reduce(s, Advance{Epoch: s.Epoch})
	if face.ScanStatus != StatusFacePrompt {
		t.Errorf("face status = %q", face.ScanStatus)
	}
	face.Progress = 100
	tongue, _ := Reduce(face, Advance{Epoch: face.Epoch})
	if tongue.ScanStatus != StatusTonguePrompt {
		t.Errorf("tongue status = %q", tongue.ScanStatus)
	}
}

func TestCameraResult(t *testing.T) {
	s := at(stage.Face, 10)
	ok, _ := Reduce(s, CameraResult{Epoch: s.Epoch})
	if ok.ScanStatus != camera.StatusReady {
		t.Errorf("status = %q", ok.ScanStatus)
	}
	failed, _ := Reduce(s, CameraResult{Epoch: s.Epoch, Err: errors.New("denied")})
	if failed.ScanStatus != camera.StatusUnavailable {
		t.Errorf("status = %q", failed.ScanStatus)
	}
	if failed.Stage != stage.Face {
		t.Error("camera failure must not leave the stage")
	}
}

func TestAdviceEvents(t *testing.T) {
	s := at(stage.Summary, 100)
	s.Advice = "old"
	loading, _ := Reduce(s, AdviceStarted{})
	if !loading.AdviceLoading || loading.Advice != "" {
		t.Errorf("after start: %+v", loading)
	}
	done, _ := Reduce(loading, AdviceFinished{Text: "new"})
	if done.AdviceLoading || done.Advice != "new" {
		t.Errorf("after finish: %+v", done)
	}
}

func TestTeardown(t *testing.T) {
	s := at(stage.Tongue, 30)
	s.Capturing = true
	next, effects := Reduce(s, Teardown{})
	if next.Epoch == s.Epoch || next.Capturing {
		t.Errorf("teardown state = %+v", next)
	}
	k := kinds(effects)
	if k[StopCamera] != 1 || k[StopTicker] != 1 || k[CancelAdvance] != 1 || k[CancelCapturePulse] != 1 {
		t.Errorf("effects = %v", effects)
	}
}
