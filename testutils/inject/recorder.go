package inject

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/eeprom93cx6/components/board"
)

// PinEvent is one call observed by a Recorder.
type PinEvent struct {
	Pin  string
	High bool
	// Read is true when the event was a Get rather than a Set.
	Read bool
}

// Recorder is a board whose pins log every Set and Get in order. Reads return the result of
// ReadFunc, or low when it is nil.
type Recorder struct {
	*Board

	mu         sync.Mutex
	events     []PinEvent
	directions map[string]board.Direction
	pins       map[string]*GPIOPin

	ReadFunc func(pin string) bool
}

// NewRecorder returns a recording board that hands out any pin name.
func NewRecorder() *Recorder {
	r := &Recorder{
		Board:      NewBoard(),
		directions: map[string]board.Direction{},
		pins:       map[string]*GPIOPin{},
	}
	r.GPIOPinByNameFunc = r.pin
	return r
}

func (r *Recorder) pin(name string) (board.GPIOPin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		return nil, errors.New("empty pin name")
	}
	if p, ok := r.pins[name]; ok {
		return p, nil
	}
	p := &GPIOPin{}
	p.SetFunc = func(ctx context.Context, high bool, extra map[string]interface{}) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, PinEvent{Pin: name, High: high})
		return nil
	}
	p.GetFunc = func(ctx context.Context, extra map[string]interface{}) (bool, error) {
		r.mu.Lock()
		readFunc := r.ReadFunc
		r.mu.Unlock()
		high := false
		if readFunc != nil {
			high = readFunc(name)
		}
		r.mu.Lock()
		r.events = append(r.events, PinEvent{Pin: name, High: high, Read: true})
		r.mu.Unlock()
		return high, nil
	}
	p.SetDirectionFunc = func(ctx context.Context, dir board.Direction, extra map[string]interface{}) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.directions[name] = dir
		return nil
	}
	r.pins[name] = p
	return p, nil
}

// Events returns every recorded event.
func (r *Recorder) Events() []PinEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PinEvent(nil), r.events...)
}

// Reset forgets the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Direction returns the direction last configured on a pin and whether one was configured.
func (r *Recorder) Direction(name string) (board.Direction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dir, ok := r.directions[name]
	return dir, ok
}

// ClockedBits decodes the level of dataPin at every rising edge of clockPin, in order. This is
// what a chip listening on the bus would have shifted in.
func (r *Recorder) ClockedBits(clockPin, dataPin string) []int {
	var bits []int
	clockHigh := false
	dataHigh := false
	for _, ev := range r.Events() {
		if ev.Read {
			continue
		}
		switch ev.Pin {
		case dataPin:
			dataHigh = ev.High
		case clockPin:
			if ev.High && !clockHigh {
				if dataHigh {
					bits = append(bits, 1)
				} else {
					bits = append(bits, 0)
				}
			}
			clockHigh = ev.High
		}
	}
	return bits
}
