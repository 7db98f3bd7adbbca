// Package camera owns the video stream used by the face and tongue scans.
package camera

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrUnavailable      = errors.New("camera unavailable")
	// ErrSuperseded is returned by Start when Stop ran before the stream arrived.
	ErrSuperseded = errors.New("camera acquisition superseded")
)

// Status texts shown under the preview. The session picks one from each Start result.
const (
	StatusSearching   = "正在寻找面部..."
	StatusReady       = "摄像头已就绪，识别中..."
	StatusUnavailable = "摄像头不可用，请检查权限"
)

type Facing string

const FacingUser Facing = "user"

type Track interface {
	Stop()
}

type Stream interface {
	Tracks() []Track
}

// Device hands out video streams. Open may block on a permission prompt.
type Device interface {
	Open(ctx context.Context, facing Facing) (Stream, error)
}

// Adapter binds at most one stream at a time.
type Adapter struct {
	dev    Device
	logger *log.Logger

	mu     sync.Mutex
	stream Stream
	gen    uint64
}

func NewAdapter(dev Device, logger *log.Logger) *Adapter {
	return &Adapter{dev: dev, logger: logger}
}

// Start requests a front-facing stream and binds it for preview. A failure leaves
// nothing bound and is returned to the caller.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	// A start whose context is already gone must not disturb a newer stream.
	if err := ctx.Err(); err != nil {
		a.mu.Unlock()
		return fmt.Errorf("start camera: %w", err)
	}
	a.release()
	a.gen++
	gen := a.gen
	a.mu.Unlock()

	stream, err := a.dev.Open(ctx, FacingUser)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.logger.Printf("camera start failed: %v", err)
		return fmt.Errorf("start camera: %w", err)
	}
	if a.gen != gen || ctx.Err() != nil {
		// Stop (or a newer Start) ran while we waited; this stream belongs to nobody.
		stopTracks(stream)
		return ErrSuperseded
	}
	a.stream = stream
	return nil
}

// Stop releases every track of the bound stream. Calling it with nothing bound is a no-op,
// but it still invalidates any acquisition in flight.
func (a *Adapter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.release()
}

func (a *Adapter) release() {
	if a.stream == nil {
		return
	}
	stopTracks(a.stream)
	a.stream = nil
}

// Active reports whether a stream is bound.
func (a *Adapter) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream != nil
}

func stopTracks(s Stream) {
	for _, t := range s.Tracks() {
		t.Stop()
	}
}
