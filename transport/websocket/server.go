package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gridlinegames/tictactoe-relay/internal/entity"
)

type roomManager interface {
	CreateRoom(connID string) (*entity.Room, error)
	JoinRoom(roomID, connID string) (*entity.Room, error)
	MakeMove(roomID, symbol string, cell int) (*entity.Room, error)
	RestartRoom(roomID string) (*entity.Room, error)
	RemoveByConnection(connID string) (*entity.Room, bool)
}

// Server binds the websocket event surface to the room manager. Each
// connection gets a generated id used as its seat key in rooms.
type Server struct {
	logger *slog.Logger
	rooms  roomManager

	upgrader websocket.Upgrader

	registry *connRegistry

	handlers map[string]func(c *client, payload json.RawMessage)
}

func New(logger *slog.Logger, rooms roomManager) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		rooms:  rooms,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		registry: newConnRegistry(),
		handlers: make(map[string]func(*client, json.RawMessage)),
	}

	server.handlers[ActionCreateRoom] = server.handleCreateRoom
	server.handlers[ActionJoinRoom] = server.handleJoinRoom
	server.handlers[ActionMakeMove] = server.handleMakeMove
	server.handlers[ActionPlayAgain] = server.handlePlayAgain

	return server
}

// Start - starts WebSocket server and blocks until it fails or ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", that)

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// ServeHTTP upgrades the request and runs the connection's read loop until
// the peer goes away.
func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
	}

	that.registry.add(c)

	log = log.With("connID", c.id)
	log.Info("connection established")

	defer that.closeConnection(c)

	that.readLoop(c)
}

func (that *Server) readLoop(c *client) {
	log := that.logger.With("method", "readLoop", "connID", c.id)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("connection closed unexpectedly", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(raw, &message); err != nil {
			log.Debug("dropping malformed message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Debug("dropping message with unknown action", "action", message.Action)
			continue
		}

		handler(c, message.Payload)
	}
}

// closeConnection runs exactly once per connection, after its read loop
// returns. If the connection was seated, the room is gone by the time the
// survivor hears about it.
func (that *Server) closeConnection(c *client) {
	log := that.logger.With("method", "closeConnection", "connID", c.id)

	that.registry.remove(c.id)
	_ = c.conn.Close()

	room, ok := that.rooms.RemoveByConnection(c.id)
	if !ok {
		log.Info("connection closed")
		return
	}

	for _, opponent := range room.Opponents(c.id) {
		that.sendTo(opponent.ID, ActionOpponentLeft, nil)
	}

	log.Info("connection closed, room torn down", "roomID", room.ID)
}

// broadcast delivers action with the room snapshot to every seated player.
// Delivery to one member never blocks on another member's failure.
func (that *Server) broadcast(room *entity.Room, action string) {
	for _, player := range room.Players {
		that.sendTo(player.ID, action, room)
	}
}

func (that *Server) sendTo(connID, action string, payload any) {
	log := that.logger.With("method", "sendTo", "connID", connID)

	c, ok := that.registry.get(connID)
	if !ok {
		log.Debug("connection not found", "action", action)
		return
	}

	if err := c.send(action, payload); err != nil {
		log.Error("failed to send message", "action", action, "error", err)
	}
}
