// Package tictactoe holds the pure game rules: move legality and outcome
// evaluation. Nothing here touches the registry or the transport.
package tictactoe

import (
	"fmt"

	"github.com/gridlinegames/tictactoe-relay/internal/apperror"
	"github.com/gridlinegames/tictactoe-relay/internal/entity"
)

// winCombos are the 8 winning triples: 3 rows, 3 columns, 2 diagonals.
// Evaluation order is fixed, though a legally-played game can never have two
// winning triples for different marks at once.
var winCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// DetermineResult evaluates a board: the winning mark, entity.WinnerDraw for
// a full board with no winner, or entity.EmptyCell while the game is still
// in progress.
func DetermineResult(board [9]string) string {
	for _, combo := range winCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return a
		}
	}

	for _, cell := range board {
		if cell == entity.EmptyCell {
			return entity.EmptyCell
		}
	}

	return entity.WinnerDraw
}

// ApplyMove validates symbol's move into cell and applies it. On an illegal
// move the room is left untouched and a sentinel error names the reason; the
// caller decides whether to surface it (the relay drops it silently).
func ApplyMove(room *entity.Room, symbol string, cell int) error {
	if err := validateMove(room, symbol, cell); err != nil {
		return err
	}

	room.Board[cell] = symbol

	switch result := DetermineResult(room.Board); result {
	case entity.EmptyCell:
		room.CurrentPlayer = toggleSymbol(symbol)
	default:
		room.IsGameOver = true
		room.Winner = result
	}

	return nil
}

func validateMove(room *entity.Room, symbol string, cell int) error {
	if cell < 0 || cell >= len(room.Board) {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidCell, cell)
	}

	if symbol != entity.SymbolX && symbol != entity.SymbolO {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidSymbol, symbol)
	}

	if room.IsGameOver {
		return apperror.ErrGameOver
	}

	if room.CurrentPlayer != symbol {
		return apperror.ErrNotYourTurn
	}

	if room.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

func toggleSymbol(symbol string) string {
	if symbol == entity.SymbolX {
		return entity.SymbolO
	}

	return entity.SymbolX
}
