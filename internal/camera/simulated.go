package camera

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// SimulatedDevice stands in for real capture hardware on the kiosk and in tests.
type SimulatedDevice struct {
	Delay  time.Duration
	Deny   bool
	Tracks int

	mu      sync.Mutex
	opened  []*SimulatedStream
	pending atomic.Int64
}

func (d *SimulatedDevice) Open(ctx context.Context, facing Facing) (Stream, error) {
	d.pending.Add(1)
	defer d.pending.Add(-1)

	if d.Delay > 0 {
		t := time.NewTimer(d.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.Deny {
		return nil, ErrPermissionDenied
	}

	n := d.Tracks
	if n <= 0 {
		n = 1
	}
	s := &SimulatedStream{Facing: facing}
	for i := 0; i < n; i++ {
		s.tracks = append(s.tracks, &SimulatedTrack{})
	}
	d.mu.Lock()
	d.opened = append(d.opened, s)
	d.mu.Unlock()
	return s, nil
}

// Opened returns every stream handed out so far.
func (d *SimulatedDevice) Opened() []*SimulatedStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*SimulatedStream, len(d.opened))
	copy(out, d.opened)
	return out
}

// Live counts streams with at least one running track.
func (d *SimulatedDevice) Live() int {
	live := 0
	for _, s := range d.Opened() {
		if !s.Stopped() {
			live++
		}
	}
	return live
}

// Pending counts Open calls that have not returned yet.
func (d *SimulatedDevice) Pending() int {
	return int(d.pending.Load())
}

type SimulatedStream struct {
	Facing Facing
	tracks []*SimulatedTrack
}

func (s *SimulatedStream) Tracks() []Track {
	out := make([]Track, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t
	}
	return out
}

// Stopped reports whether every track has been stopped.
func (s *SimulatedStream) Stopped() bool {
	for _, t := range s.tracks {
		if !t.Stopped() {
			return false
		}
	}
	return true
}

type SimulatedTrack struct {
	stops atomic.Int32
}

func (t *SimulatedTrack) Stop() { t.stops.Add(1) }

func (t *SimulatedTrack) Stopped() bool { return t.stops.Load() > 0 }
