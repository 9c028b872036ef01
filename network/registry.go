package network

import (
	"fmt"
	"sync"

	"github.com/czx-lab/aquinas/wire"
)

type (
	// Entry is one registered channel.
	Entry struct {
		ID           ChannelID
		Name         string
		RequiresAuth bool
		// Signal entries carry no payload
		Signal   bool
		dispatch func(s Session, payload []byte) error
	}

	// Registry maps channel ids to handlers. It is filled once before any connection
	// starts and then frozen.
	Registry struct {
		mu      sync.RWMutex
		entries map[ChannelID]*Entry
		frozen  bool
	}
)

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[ChannelID]*Entry),
	}
}

// Register installs a payload channel that decodes frames with codec and passes the value to handler.
// Registering an id again replaces the previous entry.
func Register[T any](r *Registry, id ChannelID, codec *wire.Codec[T], handler func(s Session, v T), requiresAuth bool) {
	r.add(&Entry{
		ID:           id,
		Name:         codec.String(),
		RequiresAuth: requiresAuth,
		dispatch: func(s Session, payload []byte) error {
			v, err := codec.Decode(payload)
			if err != nil {
				return protocolError(id, "decode", err)
			}

			handler(s, v)
			return nil
		},
	})
}

// RegisterSignal installs a channel whose frames carry no payload.
func (r *Registry) RegisterSignal(id ChannelID, handler func(s Session), requiresAuth bool) {
	r.add(&Entry{
		ID:           id,
		Name:         "signal",
		RequiresAuth: requiresAuth,
		Signal:       true,
		dispatch: func(s Session, _ []byte) error {
			handler(s)
			return nil
		},
	})
}

func (r *Registry) add(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		panic(fmt.Sprintf("network: register channel %d on frozen registry", e.ID))
	}
	if e.ID == Unused {
		panic("network: channel 0 is reserved")
	}
	r.entries[e.ID] = e
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.frozen
}

// Lookup returns the entry registered for id.
func (r *Registry) Lookup(id ChannelID) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	return e, ok
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Accept resolves the entry for a frame header and checks that s may receive it.
func (r *Registry) Accept(s Session, id ChannelID) (*Entry, error) {
	e, ok := r.Lookup(id)
	if !ok {
		return nil, protocolError(id, "lookup", ErrUnknownChannel)
	}
	if e.RequiresAuth && !s.Authenticated() {
		return nil, protocolError(id, e.Name, ErrUnauthenticated)
	}
	return e, nil
}

// Dispatch runs the complete inbound path for one frame.
func (r *Registry) Dispatch(s Session, id ChannelID, payload []byte) error {
	e, err := r.Accept(s, id)
	if err != nil {
		return err
	}
	return e.Handle(s, payload)
}

// Handle decodes payload and invokes the handler. An empty payload is a signal.
func (e *Entry) Handle(s Session, payload []byte) error {
	switch {
	case len(payload) == 0 && !e.Signal:
		return protocolError(e.ID, e.Name, ErrUnexpectedSignal)
	case len(payload) > 0 && e.Signal:
		return protocolError(e.ID, e.Name, ErrUnexpectedPayload)
	}
	return e.dispatch(s, payload)
}
