package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gridlinegames/tictactoe-relay/internal/apperror"
	"github.com/gridlinegames/tictactoe-relay/internal/entity"
	"github.com/gridlinegames/tictactoe-relay/internal/tictactoe"
)

const (
	roomCodeLength   = 5
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	recordTimeout = 5 * time.Second
)

type historyRecorder interface {
	Record(ctx context.Context, room *entity.Room) error
}

// RoomManager owns every open room. A single mutex serializes
// create/join/move/rematch/disconnect against the map and the room contents,
// so no handler can observe a torn mutation and a move can never race a
// disconnect-triggered delete. Every room handed out is a clone.
type RoomManager struct {
	logger  *slog.Logger
	history historyRecorder

	mu    sync.Mutex
	rooms map[string]*entity.Room
}

// NewRoomManager builds a manager. history may be nil, in which case finished
// games are not recorded.
func NewRoomManager(logger *slog.Logger, history historyRecorder) *RoomManager {
	return &RoomManager{
		logger:  logger.With("component", "room_manager"),
		history: history,
		rooms:   make(map[string]*entity.Room),
	}
}

// CreateRoom opens a room with connID seated as X and returns its snapshot.
func (that *RoomManager) CreateRoom(connID string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	roomID, err := that.generateRoomCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate room code: %w", err)
	}

	room := entity.NewRoom(roomID, connID)
	that.rooms[roomID] = room

	that.logger.Info("room created", "roomID", roomID, "connID", connID)

	return room.Clone(), nil
}

// JoinRoom seats connID as O. Fails with apperror.ErrRoomNotFound or
// apperror.ErrRoomFull; on success the returned snapshot already carries both
// players and drives the game-start broadcast.
func (that *RoomManager) JoinRoom(roomID, connID string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.findLocked(roomID)
	if err != nil {
		return nil, err
	}

	if _, err = room.AddPlayer(connID); err != nil {
		return nil, fmt.Errorf("failed to seat player: %w", err)
	}

	that.logger.Info("player joined room", "roomID", room.ID, "connID", connID)

	return room.Clone(), nil
}

// FindRoom returns a snapshot of an open room.
func (that *RoomManager) FindRoom(roomID string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.findLocked(roomID)
	if err != nil {
		return nil, err
	}

	return room.Clone(), nil
}

// MakeMove applies symbol's move into cell as one atomic unit. Illegal moves
// leave the room untouched and return the rule error; callers drop those
// silently. A finishing move is handed to the history recorder outside the
// lock.
func (that *RoomManager) MakeMove(roomID, symbol string, cell int) (*entity.Room, error) {
	that.mu.Lock()

	room, err := that.findLocked(roomID)
	if err != nil {
		that.mu.Unlock()
		return nil, err
	}

	if err = tictactoe.ApplyMove(room, symbol, cell); err != nil {
		that.mu.Unlock()
		return nil, fmt.Errorf("move rejected: %w", err)
	}

	snapshot := room.Clone()
	that.mu.Unlock()

	if snapshot.IsGameOver {
		that.logger.Info("game finished", "roomID", snapshot.ID, "winner", snapshot.Winner)
		go that.recordResult(snapshot)
	}

	return snapshot, nil
}

// RestartRoom resets the board for a rematch, keeping both seats. Resetting
// an already-reset room yields the same snapshot again.
func (that *RoomManager) RestartRoom(roomID string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.findLocked(roomID)
	if err != nil {
		return nil, err
	}

	room.Reset()

	that.logger.Info("room reset for rematch", "roomID", room.ID)

	return room.Clone(), nil
}

// RemoveRoom deletes a room outright. Subsequent lookups of the code fail
// with apperror.ErrRoomNotFound.
func (that *RoomManager) RemoveRoom(roomID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.findLocked(roomID)
	if err != nil {
		return false
	}

	delete(that.rooms, room.ID)

	that.logger.Info("room removed", "roomID", room.ID)

	return true
}

// RemoveByConnection deletes the room seating connID, if any, and returns its
// pre-deletion snapshot so the caller can notify the surviving player. A
// connection occupies at most one room, so the scan stops at the first hit.
func (that *RoomManager) RemoveByConnection(connID string) (*entity.Room, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for roomID, room := range that.rooms {
		if !room.HasPlayer(connID) {
			continue
		}

		snapshot := room.Clone()
		delete(that.rooms, roomID)

		that.logger.Info("room closed on disconnect", "roomID", roomID, "connID", connID)

		return snapshot, true
	}

	return nil, false
}

// RoomCount reports the number of currently open rooms.
func (that *RoomManager) RoomCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.rooms)
}

// findLocked resolves an id to its live room. Codes are shared out of band
// and often typed by hand, so lookups are case-insensitive; every registry
// operation resolves ids through here. Caller must hold the lock.
func (that *RoomManager) findLocked(roomID string) (*entity.Room, error) {
	room, ok := that.rooms[strings.ToUpper(roomID)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	return room, nil
}

// generateRoomCode draws a short shareable code and re-draws on collision
// with any open room. Caller must hold the lock.
func (that *RoomManager) generateRoomCode() (string, error) {
	for {
		buf := make([]byte, roomCodeLength)
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}

		code := make([]byte, roomCodeLength)
		for i, b := range buf {
			code[i] = roomCodeAlphabet[int(b)%len(roomCodeAlphabet)]
		}

		if _, exists := that.rooms[string(code)]; !exists {
			return string(code), nil
		}
	}
}

func (that *RoomManager) recordResult(room *entity.Room) {
	if that.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	if err := that.history.Record(ctx, room); err != nil {
		that.logger.Error("failed to record match result", "roomID", room.ID, "error", err)
	}
}
