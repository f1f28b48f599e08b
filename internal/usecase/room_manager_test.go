package usecase

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlinegames/tictactoe-relay/internal/apperror"
	"github.com/gridlinegames/tictactoe-relay/internal/entity"
)

func newTestManager(t *testing.T) *RoomManager {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewRoomManager(logger, nil)
}

func TestRoomManager_CreateRoom(t *testing.T) {
	t.Run("Creates a room with a shareable code", func(t *testing.T) {
		// Given: an empty manager
		manager := newTestManager(t)

		// When: a connection creates a room
		room, err := manager.CreateRoom("conn-a")

		// Then: the code is 5 upper-case alphanumerics and the creator holds X
		require.NoError(t, err)
		assert.Len(t, room.ID, roomCodeLength)
		for _, r := range room.ID {
			assert.Contains(t, roomCodeAlphabet, string(r))
		}
		require.Len(t, room.Players, 1)
		assert.Equal(t, entity.SymbolX, room.Players[0].Symbol)
		assert.Equal(t, 1, manager.RoomCount())
	})

	t.Run("Concurrent creates yield unique codes", func(t *testing.T) {
		// Given: an empty manager
		manager := newTestManager(t)

		const creators = 50

		// When: many connections create rooms at once
		var wg sync.WaitGroup
		codes := make(chan string, creators)

		for i := 0; i < creators; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				room, err := manager.CreateRoom("conn")
				if assert.NoError(t, err) {
					codes <- room.ID
				}
			}()
		}
		wg.Wait()
		close(codes)

		// Then: every room exists under its own code
		seen := make(map[string]bool)
		for code := range codes {
			assert.False(t, seen[code], "duplicate room code %s", code)
			seen[code] = true
		}
		assert.Equal(t, creators, manager.RoomCount())
	})
}

func TestRoomManager_JoinRoom(t *testing.T) {
	t.Run("Second connection joins as O", func(t *testing.T) {
		// Given: a freshly created room
		manager := newTestManager(t)
		created, err := manager.CreateRoom("conn-a")
		require.NoError(t, err)

		// When: a second connection joins by code
		room, err := manager.JoinRoom(created.ID, "conn-b")

		// Then: both seats are taken in join order
		require.NoError(t, err)
		require.Len(t, room.Players, 2)
		assert.Equal(t, entity.SymbolX, room.Players[0].Symbol)
		assert.Equal(t, entity.SymbolO, room.Players[1].Symbol)
		assert.Equal(t, entity.SymbolX, room.CurrentPlayer)
	})

	t.Run("Hand-typed lower-case codes are accepted", func(t *testing.T) {
		// Given: a freshly created room
		manager := newTestManager(t)
		created, err := manager.CreateRoom("conn-a")
		require.NoError(t, err)

		// When: the second player types the code in lower case
		room, err := manager.JoinRoom(strings.ToLower(created.ID), "conn-b")

		// Then: the join still lands in the same room
		require.NoError(t, err)
		assert.Equal(t, created.ID, room.ID)
		require.Len(t, room.Players, 2)
	})

	t.Run("Lower-case joiner can keep playing with the typed code", func(t *testing.T) {
		// Given: a room joined under a hand-typed lower-case code
		manager := newTestManager(t)
		created, err := manager.CreateRoom("conn-a")
		require.NoError(t, err)

		lowerID := strings.ToLower(created.ID)
		_, err = manager.JoinRoom(lowerID, "conn-b")
		require.NoError(t, err)

		// When: the whole session keeps using the lower-case id
		afterX, err := manager.MakeMove(lowerID, entity.SymbolX, 4)
		require.NoError(t, err)
		afterO, err := manager.MakeMove(lowerID, entity.SymbolO, 0)
		require.NoError(t, err)
		reset, err := manager.RestartRoom(lowerID)
		require.NoError(t, err)

		// Then: moves and the rematch land in the same room
		assert.Equal(t, entity.SymbolX, afterX.Board[4])
		assert.Equal(t, entity.SymbolO, afterO.Board[0])
		assert.Equal(t, [9]string{}, reset.Board)

		found, err := manager.FindRoom(lowerID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("Join with unknown code fails", func(t *testing.T) {
		// Given: an empty manager
		manager := newTestManager(t)

		// When: joining a code that was never created
		_, err := manager.JoinRoom("ZZZZZ", "conn-b")

		// Then: ErrRoomNotFound
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Third join on a full room fails without mutating seats", func(t *testing.T) {
		// Given: a full room
		manager := newTestManager(t)
		created, err := manager.CreateRoom("conn-a")
		require.NoError(t, err)
		_, err = manager.JoinRoom(created.ID, "conn-b")
		require.NoError(t, err)

		// When: a third connection tries the same code
		_, err = manager.JoinRoom(created.ID, "conn-c")

		// Then: ErrRoomFull, and the room still has its original two seats
		require.ErrorIs(t, err, apperror.ErrRoomFull)

		room, err := manager.FindRoom(created.ID)
		require.NoError(t, err)
		require.Len(t, room.Players, 2)
		assert.Equal(t, "conn-a", room.Players[0].ID)
		assert.Equal(t, "conn-b", room.Players[1].ID)
	})
}

func TestRoomManager_MakeMove(t *testing.T) {
	newFullRoom := func(t *testing.T, manager *RoomManager) *entity.Room {
		t.Helper()

		created, err := manager.CreateRoom("conn-a")
		require.NoError(t, err)
		room, err := manager.JoinRoom(created.ID, "conn-b")
		require.NoError(t, err)

		return room
	}

	t.Run("Accepted moves alternate the turn", func(t *testing.T) {
		// Given: a full room
		manager := newTestManager(t)
		room := newFullRoom(t, manager)

		// When: X then O each make a legal move
		afterX, err := manager.MakeMove(room.ID, entity.SymbolX, 4)
		require.NoError(t, err)
		afterO, err := manager.MakeMove(room.ID, entity.SymbolO, 0)
		require.NoError(t, err)

		// Then: turns alternate and both marks landed
		assert.Equal(t, entity.SymbolO, afterX.CurrentPlayer)
		assert.Equal(t, entity.SymbolX, afterO.CurrentPlayer)
		assert.Equal(t, entity.SymbolX, afterO.Board[4])
		assert.Equal(t, entity.SymbolO, afterO.Board[0])
	})

	t.Run("Rejected move leaves the room untouched", func(t *testing.T) {
		// Given: a full room where it is X's turn
		manager := newTestManager(t)
		room := newFullRoom(t, manager)

		// When: O moves out of turn
		_, err := manager.MakeMove(room.ID, entity.SymbolO, 0)

		// Then: the move errors and the stored room equals the join snapshot
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)

		unchanged, err := manager.FindRoom(room.ID)
		require.NoError(t, err)
		assert.Equal(t, room, unchanged)
	})

	t.Run("Move on an unknown room fails", func(t *testing.T) {
		// Given: an empty manager
		manager := newTestManager(t)

		// When: a move references a code that does not exist
		_, err := manager.MakeMove("ZZZZZ", entity.SymbolX, 0)

		// Then: ErrRoomNotFound
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Winning sequence finishes the game", func(t *testing.T) {
		// Given: a full room
		manager := newTestManager(t)
		room := newFullRoom(t, manager)

		// When: X completes the top row before O can block
		moves := []struct {
			symbol string
			cell   int
		}{
			{entity.SymbolX, 0},
			{entity.SymbolO, 3},
			{entity.SymbolX, 1},
			{entity.SymbolO, 4},
			{entity.SymbolX, 2},
		}

		var final *entity.Room
		for _, move := range moves {
			var err error
			final, err = manager.MakeMove(room.ID, move.symbol, move.cell)
			require.NoError(t, err)
		}

		// Then: the final snapshot declares X the winner
		assert.True(t, final.IsGameOver)
		assert.Equal(t, entity.SymbolX, final.Winner)

		// And: further moves are dropped
		_, err := manager.MakeMove(room.ID, entity.SymbolO, 5)
		require.ErrorIs(t, err, apperror.ErrGameOver)
	})
}

func TestRoomManager_RestartRoom(t *testing.T) {
	t.Run("Rematch resets the board and keeps the seats", func(t *testing.T) {
		// Given: a full room with a finished game
		manager := newTestManager(t)
		created, err := manager.CreateRoom("conn-a")
		require.NoError(t, err)
		_, err = manager.JoinRoom(created.ID, "conn-b")
		require.NoError(t, err)

		for _, move := range [][2]any{
			{entity.SymbolX, 0}, {entity.SymbolO, 3},
			{entity.SymbolX, 1}, {entity.SymbolO, 4},
			{entity.SymbolX, 2},
		} {
			_, err = manager.MakeMove(created.ID, move[0].(string), move[1].(int))
			require.NoError(t, err)
		}

		// When: the room is restarted twice
		first, err := manager.RestartRoom(created.ID)
		require.NoError(t, err)
		second, err := manager.RestartRoom(created.ID)
		require.NoError(t, err)

		// Then: both snapshots show the same fresh game with seats preserved
		assert.Equal(t, first, second)
		assert.Equal(t, [9]string{}, first.Board)
		assert.Equal(t, entity.SymbolX, first.CurrentPlayer)
		assert.False(t, first.IsGameOver)
		assert.Equal(t, entity.EmptyCell, first.Winner)
		require.Len(t, first.Players, 2)
	})

	t.Run("Rematch on an unknown room fails", func(t *testing.T) {
		manager := newTestManager(t)

		_, err := manager.RestartRoom("ZZZZZ")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestRoomManager_RemoveRoom(t *testing.T) {
	t.Run("Removed codes stop resolving", func(t *testing.T) {
		// Given: an open room
		manager := newTestManager(t)
		created, err := manager.CreateRoom("conn-a")
		require.NoError(t, err)

		// When: the room is removed
		removed := manager.RemoveRoom(created.ID)

		// Then: the code no longer resolves
		assert.True(t, removed)
		_, err = manager.FindRoom(created.ID)
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Removing an unknown code reports false", func(t *testing.T) {
		manager := newTestManager(t)

		assert.False(t, manager.RemoveRoom("ZZZZZ"))
	})
}

func TestRoomManager_RemoveByConnection(t *testing.T) {
	t.Run("Disconnect tears the room down", func(t *testing.T) {
		// Given: a full room
		manager := newTestManager(t)
		created, err := manager.CreateRoom("conn-a")
		require.NoError(t, err)
		_, err = manager.JoinRoom(created.ID, "conn-b")
		require.NoError(t, err)

		// When: one seated connection goes away
		room, ok := manager.RemoveByConnection("conn-b")

		// Then: the pre-deletion snapshot names the survivor and the room is gone
		require.True(t, ok)
		opponents := room.Opponents("conn-b")
		require.Len(t, opponents, 1)
		assert.Equal(t, "conn-a", opponents[0].ID)

		_, err = manager.FindRoom(created.ID)
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
		assert.Equal(t, 0, manager.RoomCount())
	})

	t.Run("Creator disconnect cleans up an unjoined room", func(t *testing.T) {
		// Given: a room nobody joined
		manager := newTestManager(t)
		created, err := manager.CreateRoom("conn-a")
		require.NoError(t, err)

		// When: the creator disconnects
		room, ok := manager.RemoveByConnection("conn-a")

		// Then: the room is removed and there is nobody to notify
		require.True(t, ok)
		assert.Empty(t, room.Opponents("conn-a"))
		assert.Equal(t, 0, manager.RoomCount())

		_, err = manager.FindRoom(created.ID)
		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Unseated connection removes nothing", func(t *testing.T) {
		// Given: a manager with one room
		manager := newTestManager(t)
		_, err := manager.CreateRoom("conn-a")
		require.NoError(t, err)

		// When: an unrelated connection disconnects
		_, ok := manager.RemoveByConnection("conn-z")

		// Then: no room is touched
		assert.False(t, ok)
		assert.Equal(t, 1, manager.RoomCount())
	})
}

func TestRoomManager_SnapshotIsolation(t *testing.T) {
	// Given: a created room and its returned snapshot
	manager := newTestManager(t)
	created, err := manager.CreateRoom("conn-a")
	require.NoError(t, err)

	// When: the caller scribbles on the snapshot
	created.Board[0] = entity.SymbolO
	created.Players[0].ID = "intruder"

	// Then: the stored room is unaffected
	stored, err := manager.FindRoom(created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.EmptyCell, stored.Board[0])
	assert.Equal(t, "conn-a", stored.Players[0].ID)
}
