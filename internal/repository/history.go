package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gridlinegames/tictactoe-relay/internal/entity"
)

// MatchRecord is the final state of one finished game. Rematches in the same
// room append further records under the same room code.
type MatchRecord struct {
	RoomID     string    `json:"room_id"`
	Winner     string    `json:"winner"`
	Board      [9]string `json:"board"`
	FinishedAt time.Time `json:"finished_at"`
}

type MatchHistoryRepository interface {
	Record(ctx context.Context, room *entity.Room) error
	RecentByRoom(ctx context.Context, roomID string) ([]MatchRecord, error)
}

type dbMatchHistory struct {
	client *redis.Client
	ttl    time.Duration
}

func NewMatchHistoryRepository(client *redis.Client, ttl time.Duration) MatchHistoryRepository {
	return &dbMatchHistory{
		client: client,
		ttl:    ttl,
	}
}

// Record appends the finished room's outcome to the room's history list and
// refreshes the retention TTL.
func (that *dbMatchHistory) Record(ctx context.Context, room *entity.Room) error {
	record := MatchRecord{
		RoomID:     room.ID,
		Winner:     room.Winner,
		Board:      room.Board,
		FinishedAt: time.Now().UTC(),
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal match record: %w", err)
	}

	key := matchKey(room.ID)

	if err = that.client.RPush(ctx, key, recordJSON).Err(); err != nil {
		return fmt.Errorf("failed to append match record: %w", err)
	}

	if err = that.client.Expire(ctx, key, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set match record expiry: %w", err)
	}

	return nil
}

// RecentByRoom lists every recorded final for a room code, oldest first. A
// room with no recorded games yields an empty slice.
func (that *dbMatchHistory) RecentByRoom(ctx context.Context, roomID string) ([]MatchRecord, error) {
	rows, err := that.client.LRange(ctx, matchKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list match records: %w", err)
	}

	records := make([]MatchRecord, 0, len(rows))
	for _, row := range rows {
		var record MatchRecord
		if err = json.Unmarshal([]byte(row), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match record: %w", err)
		}

		records = append(records, record)
	}

	return records, nil
}

func matchKey(roomID string) string {
	return "match:" + roomID
}
