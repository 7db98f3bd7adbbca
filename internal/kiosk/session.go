package kiosk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"checkup-kiosk/internal/model"
	"checkup-kiosk/internal/stage"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = errors.New("stage transition not allowed")
	ErrNotOnSummary      = errors.New("advice is only available on the summary screen")
	ErrNoAdvisor         = errors.New("no advisor configured")
	ErrClosed            = errors.New("session closed")
)

type Camera interface {
	Start(ctx context.Context) error
	Stop()
}

type Advisor interface {
	RequestAdvice(ctx context.Context, p model.UserProfile, s model.ScoreSummary) string
}

// Recorder receives a record each time a checkup reaches the summary. Record must not block.
type Recorder interface {
	Record(rec model.CheckupRecord)
}

type Options struct {
	TickPeriod   time.Duration
	HoldDelay    time.Duration
	CapturePulse time.Duration

	Profile  model.UserProfile
	Camera   Camera
	Advisor  Advisor
	Recorder Recorder
	Logger   *log.Logger

	// OnChange runs on the session goroutine after every state change and must return quickly.
	OnChange func(State)
}

type eventMsg struct{ ev Event }

type navigateMsg struct {
	to    stage.Stage
	reply chan error
}

type snapshotMsg struct{ reply chan State }

type profileMsg struct {
	profile model.UserProfile
	reply   chan error
}

type adviceMsg struct{ reply chan error }

type closeMsg struct{ reply chan struct{} }

// Session owns one kiosk's flow. All state lives on the run goroutine; callers and
// timers talk to it through the mailbox.
type Session struct {
	opts    Options
	logger  *log.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	mailbox chan interface{}
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	// owned by run
	state     State
	stopTick  func()
	hold      *time.Timer
	pulse     *time.Timer
	camCancel context.CancelFunc
}

func NewSession(opts Options) *Session {
	if opts.TickPeriod <= 0 {
		opts.TickPeriod = stage.TickPeriod
	}
	if opts.HoldDelay <= 0 {
		opts.HoldDelay = stage.HoldDelay
	}
	if opts.CapturePulse <= 0 {
		opts.CapturePulse = stage.CapturePulse
	}
	if opts.Profile == (model.UserProfile{}) {
		opts.Profile = model.DefaultProfile()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	s := &Session{
		opts:    opts,
		logger:  logger,
		mailbox: make(chan interface{}, 64),
		done:    make(chan struct{}),
		state:   NewState(opts.Profile),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Session) run() {
	defer s.wg.Done()
	defer close(s.done)

	for {
		switch m := (<-s.mailbox).(type) {
		case eventMsg:
			s.dispatch(m.ev)
		case navigateMsg:
			if !stage.CanNavigate(s.state.Stage, m.to) {
				m.reply <- fmt.Errorf("%s -> %s: %w", s.state.Stage, m.to, ErrInvalidTransition)
				continue
			}
			s.dispatch(Navigate{To: m.to})
			m.reply <- nil
		case snapshotMsg:
			m.reply <- s.state
		case profileMsg:
			s.dispatch(ProfileUpdated{Profile: m.profile})
			m.reply <- nil
		case adviceMsg:
			m.reply <- s.startAdvice()
		case closeMsg:
			s.dispatch(Teardown{})
			s.cancel()
			close(m.reply)
			return
		default:
			s.logger.Printf("unknown message type: %T", m)
		}
	}
}

func (s *Session) dispatch(ev Event) {
	prev := s.state
	next, effects := Reduce(prev, ev)
	s.state = next
	if prev.Stage != next.Stage {
		s.logger.Printf("stage %s -> %s", prev.Stage, next.Stage)
	}
	s.apply(effects)
	if s.opts.OnChange != nil && next != prev {
		s.opts.OnChange(next)
	}
}

func (s *Session) apply(effects []Effect) {
	for _, e := range effects {
		epoch := e.Epoch
		switch e.Kind {
		case StopTicker:
			if s.stopTick != nil {
				s.stopTick()
				s.stopTick = nil
			}
		case StartTicker:
			s.startTicker(epoch)
		case CancelAdvance:
			stopTimer(&s.hold)
		case ScheduleAdvance:
			stopTimer(&s.hold)
			s.hold = time.AfterFunc(s.opts.HoldDelay, func() { s.post(Advance{Epoch: epoch}) })
		case CancelCapturePulse:
			stopTimer(&s.pulse)
		case ScheduleCaptureEnd:
			stopTimer(&s.pulse)
			s.pulse = time.AfterFunc(s.opts.CapturePulse, func() { s.post(CaptureEnd{Epoch: epoch}) })
		case StopCamera:
			if s.camCancel != nil {
				s.camCancel()
				s.camCancel = nil
			}
			if s.opts.Camera != nil {
				s.opts.Camera.Stop()
			}
		case StartCamera:
			s.startCamera(epoch)
		case RecordCheckup:
			s.record()
		}
	}
}

// startTicker posts a Tick every period until the returned stop func runs.
func (s *Session) startTicker(epoch uint64) {
	if s.stopTick != nil {
		s.stopTick()
	}
	t := time.NewTicker(s.opts.TickPeriod)
	quit := make(chan struct{})
	s.stopTick = func() {
		t.Stop()
		close(quit)
	}
	go func() {
		for {
			select {
			case <-t.C:
				select {
				case s.mailbox <- eventMsg{ev: Tick{Epoch: epoch}}:
				case <-quit:
					return
				case <-s.done:
					return
				}
			case <-quit:
				return
			case <-s.done:
				return
			}
		}
	}()
}

func (s *Session) startCamera(epoch uint64) {
	if s.opts.Camera == nil {
		return
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.camCancel = cancel
	cam := s.opts.Camera
	go func() {
		err := cam.Start(ctx)
		if err != nil {
			s.logger.Printf("camera for epoch %d: %v", epoch, err)
		}
		s.post(CameraResult{Epoch: epoch, Err: err})
	}()
}

func (s *Session) startAdvice() error {
	if s.state.Stage != stage.Summary {
		return ErrNotOnSummary
	}
	if s.opts.Advisor == nil {
		return ErrNoAdvisor
	}
	if s.state.AdviceLoading {
		// One request at a time; the caller will see the in-flight result.
		return nil
	}
	s.dispatch(AdviceStarted{})

	profile := s.state.Profile
	summary := model.Summary()
	advisor := s.opts.Advisor
	go func() {
		// Stage changes do not cancel an issued request.
		text := advisor.RequestAdvice(context.Background(), profile, summary)
		s.post(AdviceFinished{Text: text})
	}()
	return nil
}

func (s *Session) record() {
	if s.opts.Recorder == nil {
		return
	}
	s.opts.Recorder.Record(model.CheckupRecord{
		ID:          uuid.NewString(),
		CompletedAt: time.Now().UTC(),
		Profile:     s.state.Profile,
		Summary:     model.Summary(),
	})
}

func (s *Session) post(ev Event) {
	select {
	case s.mailbox <- eventMsg{ev: ev}:
	case <-s.done:
	}
}

func stopTimer(t **time.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// send delivers a request and gives up once the session has shut down.
func (s *Session) send(msg interface{}) error {
	select {
	case s.mailbox <- msg:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// Navigate performs a user-driven stage change.
func (s *Session) Navigate(to stage.Stage) error {
	reply := make(chan error, 1)
	if err := s.send(navigateMsg{to: to, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrClosed
	}
}

func (s *Session) Snapshot() (State, error) {
	reply := make(chan State, 1)
	if err := s.send(snapshotMsg{reply: reply}); err != nil {
		return State{}, err
	}
	select {
	case st := <-reply:
		return st, nil
	case <-s.done:
		return State{}, ErrClosed
	}
}

// UpdateProfile replaces the profile used for the summary and the advice prompt.
func (s *Session) UpdateProfile(p model.UserProfile) error {
	reply := make(chan error, 1)
	if err := s.send(profileMsg{profile: p, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrClosed
	}
}

// RequestAdvice starts fetching the advisory note and returns without waiting for it.
// Progress shows up in State.AdviceLoading and State.Advice.
func (s *Session) RequestAdvice() error {
	reply := make(chan error, 1)
	if err := s.send(adviceMsg{reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrClosed
	}
}

// Close tears the current stage down (camera included) and stops the session.
func (s *Session) Close() {
	s.once.Do(func() {
		reply := make(chan struct{})
		s.mailbox <- closeMsg{reply: reply}
		<-reply
		s.wg.Wait()
	})
}

func (s *Session) Done() <-chan struct{} { return s.done }
