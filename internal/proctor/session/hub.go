package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNoClient is returned when a command needs a connected browser and none is listening.
var ErrNoClient = errors.New("no client connected")

type CommandType string

const (
	CommandNotification   CommandType = "notification"
	CommandStatus         CommandType = "status"
	CommandNavigate       CommandType = "navigate"
	CommandExitFullscreen CommandType = "exit_fullscreen"
	CommandCameraRelease  CommandType = "camera_release"
	CommandEnded          CommandType = "ended"
)

// Command is pushed to the candidate's browser over the event stream.
type Command struct {
	Type CommandType `json:"type"`
	Data any         `json:"data,omitempty"`
}

// Hub fans commands out to every connected event stream of one session.
// Slow subscribers lose commands rather than stall the session.
type Hub struct {
	mu      sync.Mutex
	subs    map[uint64]chan Command
	next    uint64
	buffer  int
	closed  bool
	lastNav string
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subs: make(map[uint64]chan Command), buffer: buffer}
}

// Subscribe registers a listener. A pending navigation is delivered first.
// The channel is closed when the hub closes or the returned cancel func is
// called.
func (h *Hub) Subscribe() (<-chan Command, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Command, h.buffer)
	if h.lastNav != "" {
		ch <- Command{Type: CommandNavigate, Data: NavigatePayload{Path: h.lastNav}}
	}
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = ch
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}

// Broadcast delivers cmd to every subscriber with room and returns how many received it.
func (h *Hub) Broadcast(cmd Command) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0
	}
	delivered := 0
	for _, ch := range h.subs {
		select {
		case ch <- cmd:
			delivered++
		default:
		}
	}
	return delivered
}

// Subscribers reports how many event streams are attached.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

type NavigatePayload struct {
	Path string `json:"path"`
}

// NavigateTo sends the browser to path. The path is remembered so a browser
// that reconnects after the session ended is still redirected.
func (h *Hub) NavigateTo(_ context.Context, path string) error {
	h.mu.Lock()
	h.lastNav = path
	h.mu.Unlock()
	h.Broadcast(Command{Type: CommandNavigate, Data: NavigatePayload{Path: path}})
	return nil
}

func (h *Hub) LastNavigation() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastNav
}

// ExitFullscreen asks the browser to leave fullscreen.
func (h *Hub) ExitFullscreen(context.Context) error {
	if h.Broadcast(Command{Type: CommandExitFullscreen}) == 0 {
		return ErrNoClient
	}
	return nil
}
