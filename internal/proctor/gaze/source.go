package gaze

import (
	"sync"

	"mockview/internal/proctor/models"
)

// FrameSource is a stream of camera frames. Close releases the underlying
// capture device and must be safe to call more than once.
type FrameSource interface {
	Frames() <-chan models.Frame
	Close() error
}

// ChannelSource is a FrameSource fed by uploads from the browser.
type ChannelSource struct {
	mu     sync.Mutex
	ch     chan models.Frame
	closed bool
}

func NewChannelSource(buffer int) *ChannelSource {
	if buffer <= 0 {
		buffer = 32
	}
	return &ChannelSource{ch: make(chan models.Frame, buffer)}
}

// Push offers a frame without blocking. Frames are dropped when the buffer is
// full or the source is closed.
func (s *ChannelSource) Push(frame models.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- frame:
		return true
	default:
		return false
	}
}

func (s *ChannelSource) Frames() <-chan models.Frame { return s.ch }

func (s *ChannelSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

func (s *ChannelSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
