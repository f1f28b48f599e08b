package entity

import (
	"fmt"

	"github.com/gridlinegames/tictactoe-relay/internal/apperror"
)

const (
	SymbolX = "X"
	SymbolO = "O"

	// WinnerDraw is the winner sentinel for a full board with no winning triple.
	WinnerDraw = "draw"

	EmptyCell = ""

	maxPlayers = 2
)

// Room is one two-player match. The JSON shape of a Room is the snapshot
// broadcast to both clients after every accepted state change.
type Room struct {
	ID            string    `json:"-"`
	Players       []*Player `json:"players"`
	Board         [9]string `json:"board"`
	CurrentPlayer string    `json:"currentPlayer"`
	IsGameOver    bool      `json:"isGameOver"`
	Winner        string    `json:"winner"`
}

// NewRoom creates a room with the creator seated as X. X always moves first.
func NewRoom(id, creatorConnID string) *Room {
	return &Room{
		ID:            id,
		Players:       []*Player{{ID: creatorConnID, Symbol: SymbolX}},
		CurrentPlayer: SymbolX,
	}
}

// AddPlayer seats connID on the free O seat. Once two seats are taken every
// further attempt fails with ErrRoomFull, including a re-join by a
// connection that is already seated.
func (that *Room) AddPlayer(connID string) (*Player, error) {
	if that.IsFull() {
		return nil, fmt.Errorf("%w: room %s", apperror.ErrRoomFull, that.ID)
	}

	player := &Player{ID: connID, Symbol: SymbolO}
	that.Players = append(that.Players, player)

	return player, nil
}

func (that *Room) IsFull() bool {
	return len(that.Players) >= maxPlayers
}

func (that *Room) HasPlayer(connID string) bool {
	for _, player := range that.Players {
		if player.ID == connID {
			return true
		}
	}

	return false
}

// Opponents returns every seated player except connID.
func (that *Room) Opponents(connID string) []*Player {
	opponents := make([]*Player, 0, len(that.Players))
	for _, player := range that.Players {
		if player.ID != connID {
			opponents = append(opponents, player)
		}
	}

	return opponents
}

// Reset clears the board for a rematch while keeping the seats. X opens the
// new game. Calling Reset on an already-reset room is a no-op.
func (that *Room) Reset() {
	that.Board = [9]string{}
	that.CurrentPlayer = SymbolX
	that.IsGameOver = false
	that.Winner = EmptyCell
}

// Clone returns a deep copy. The registry hands out clones so that no caller
// can mutate a live room outside the registry's lock.
func (that *Room) Clone() *Room {
	clone := &Room{
		ID:            that.ID,
		Players:       make([]*Player, len(that.Players)),
		Board:         that.Board,
		CurrentPlayer: that.CurrentPlayer,
		IsGameOver:    that.IsGameOver,
		Winner:        that.Winner,
	}

	for i, player := range that.Players {
		playerCopy := *player
		clone.Players[i] = &playerCopy
	}

	return clone
}
