package board

import "context"

// Direction is the electrical direction a GPIO pin is driven in.
type Direction int

const (
	// DirectionInput configures a pin to be sampled.
	DirectionInput Direction = iota
	// DirectionOutput configures a pin to be driven.
	DirectionOutput
)

func (d Direction) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	}
	return "unknown"
}

// A GPIOPin represents an individual GPIO pin on a board.
type GPIOPin interface {
	// Set sets the pin to either low or high.
	Set(ctx context.Context, high bool, extra map[string]interface{}) error

	// Get gets the high/low state of the pin.
	Get(ctx context.Context, extra map[string]interface{}) (bool, error)

	// SetDirection configures the pin as an input or an output.
	SetDirection(ctx context.Context, dir Direction, extra map[string]interface{}) error
}
