// Package inject provides function-field mocks of the board capability for tests.
package inject

import (
	"context"

	"go.viam.com/eeprom93cx6/components/board"
)

// Board is an injected board.
type Board struct {
	board.Board
	GPIOPinByNameFunc func(name string) (board.GPIOPin, error)
	CloseFunc         func(ctx context.Context) error
}

// NewBoard returns a new injected board.
func NewBoard() *Board {
	return &Board{}
}

// GPIOPinByName calls the injected GPIOPinByName or the real version.
func (b *Board) GPIOPinByName(name string) (board.GPIOPin, error) {
	if b.GPIOPinByNameFunc == nil {
		return b.Board.GPIOPinByName(name)
	}
	return b.GPIOPinByNameFunc(name)
}

// Close calls the injected Close or the real version.
func (b *Board) Close(ctx context.Context) error {
	if b.CloseFunc == nil {
		if b.Board == nil {
			return nil
		}
		return b.Board.Close(ctx)
	}
	return b.CloseFunc(ctx)
}
