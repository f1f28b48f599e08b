package websocket

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// client is one live connection. The mutex serializes writes: broadcasts for
// the same room can originate from both players' read loops.
type client struct {
	id   string
	conn *websocket.Conn

	writeMu sync.Mutex
}

func (that *client) send(action string, payload any) error {
	message := Message{Action: action}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		message.Payload = raw
	}

	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
