package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrNotAdjacent        = errors.New("tiles are not adjacent")
	ErrNotOwned           = errors.New("tile not owned by player")
	ErrInsufficientArmy   = errors.New("insufficient army to move")
	ErrTargetIsMountain   = errors.New("target tile is a mountain")
	ErrGameOver           = errors.New("game is over")
)

// WrapMoveError adds player and move context to a validation error.
func WrapMoveError(player int, m Move, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("player %d: move %s: %w", player, m, err)
}

// WrapGameStateError adds the game id and turn to an engine error.
func WrapGameStateError(gameID string, turn int, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("game %s turn %d: %w", gameID, turn, err)
}
