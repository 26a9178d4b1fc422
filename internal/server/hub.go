package server

import (
	"context"
	"errors"
	"sync"

	"bazas-game/internal/game"
	"bazas-game/internal/protocol"
	"bazas-game/internal/registry"

	"github.com/charmbracelet/log"
)

// ErrAlreadyInRoom is returned when a client that is seated somewhere tries
// to create or join another room.
var ErrAlreadyInRoom = errors.New("already in a room")

// clientMessage is a helper struct to pass messages along with the client reference.
type clientMessage struct {
	client  *Client
	message protocol.Message
}

// Hub manages active WebSocket connections and routes their intents to rooms.
type Hub struct {
	registry       *registry.Registry
	logger         *log.Logger
	clients        map[string]*Client // client ID -> connection
	clientToRoom   map[string]string  // client ID -> room code
	clientMu       sync.RWMutex
	processMessage chan clientMessage
	register       chan *Client
	unregister     chan *Client
	done           chan struct{}
}

// NewHub creates a hub and the room registry it owns. Registry options
// configure rules, clock, recorder and seed.
func NewHub(logger *log.Logger, opts ...registry.Option) *Hub {
	h := &Hub{
		logger:         logger,
		clients:        make(map[string]*Client),
		clientToRoom:   make(map[string]string),
		processMessage: make(chan clientMessage),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
	}
	opts = append([]registry.Option{registry.WithLogger(logger.WithPrefix("registry"))}, opts...)
	h.registry = registry.New(h.sendMessageToClient, opts...)
	return h
}

// Registry exposes the live rooms for the HTTP API.
func (h *Hub) Registry() *registry.Registry {
	return h.registry
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.clientMu.RLock()
	defer h.clientMu.RUnlock()
	return len(h.clients)
}

// Run starts the Hub's main loop and returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.clientMu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.clientMu.Unlock()
			h.logger.Info("client connected", "client", client.ID, "addr", client.conn.RemoteAddr(), "clients", total)
			h.sendTo(client.ID, protocol.TypeWelcome, protocol.WelcomePayload{PlayerID: client.ID})

		case client := <-h.unregister:
			h.disconnect(client)

		case clientMsg := <-h.processMessage:
			h.handleMessage(clientMsg.client, clientMsg.message)

		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

// disconnect drops the client and treats it as leaving its room.
func (h *Hub) disconnect(client *Client) {
	h.clientMu.Lock()
	current, exists := h.clients[client.ID]
	if !exists || current != client {
		h.clientMu.Unlock()
		return
	}
	delete(h.clients, client.ID)
	code, inRoom := h.clientToRoom[client.ID]
	delete(h.clientToRoom, client.ID)
	close(client.send)
	h.clientMu.Unlock()

	h.logger.Info("client disconnected", "client", client.ID, "name", client.Name)
	if !inRoom {
		return
	}
	if err := h.registry.Leave(code, client.ID); err != nil {
		h.logger.Debug("leave on disconnect failed", "client", client.ID, "code", code, "error", err)
	}
}

// drop queues a client for unregistration unless the hub has stopped.
func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	h.clientMu.Lock()
	defer h.clientMu.Unlock()
	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
	h.logger.Info("hub stopped")
}

// handleMessage validates a client message and dispatches the intent.
func (h *Hub) handleMessage(client *Client, msg protocol.Message) {
	intent, err := protocol.ParseIntent(msg)
	if err != nil {
		h.logger.Debug("rejected message", "client", client.ID, "type", msg.Type, "error", err)
		h.sendError(client.ID, err)
		return
	}

	switch in := intent.(type) {
	case protocol.Ping:
		h.sendTo(client.ID, protocol.TypePong, nil)
	case protocol.CreateRoom:
		h.handleCreateRoom(client, in)
	case protocol.JoinRoom:
		h.handleJoinRoom(client, in)
	case protocol.RoomIntent:
		h.handleRoomIntent(client, in)
	default:
		h.logger.Warn("unhandled intent", "client", client.ID, "type", intent.IntentType())
	}
}

func (h *Hub) handleCreateRoom(client *Client, in protocol.CreateRoom) {
	if _, ok := h.roomOf(client.ID); ok {
		h.sendError(client.ID, ErrAlreadyInRoom)
		return
	}

	s, err := h.registry.Create(client.ID, in.Name, in.MaxSeats)
	if err != nil {
		h.logger.Warn("failed to create room", "client", client.ID, "error", err)
		h.sendError(client.ID, err)
		return
	}
	h.seat(client, s.Code(), in.Name)
	s.Created(client.ID)
}

func (h *Hub) handleJoinRoom(client *Client, in protocol.JoinRoom) {
	if _, ok := h.roomOf(client.ID); ok {
		h.sendError(client.ID, ErrAlreadyInRoom)
		return
	}

	s, err := h.registry.Join(in.Code, client.ID, in.Name)
	if err != nil {
		h.logger.Debug("join rejected", "client", client.ID, "code", in.Code, "error", err)
		// the session answers every rejection except a missing room
		if errors.Is(err, game.ErrRoomNotFound) {
			h.sendError(client.ID, err)
		}
		return
	}
	h.seat(client, s.Code(), in.Name)
}

// handleRoomIntent forwards an intent to the room the client is seated in.
func (h *Hub) handleRoomIntent(client *Client, in protocol.RoomIntent) {
	code, ok := h.roomOf(client.ID)
	if !ok || code != in.RoomCode() {
		h.sendError(client.ID, game.ErrPlayerNotSeated)
		return
	}

	if _, isLeave := in.(protocol.LeaveRoom); isLeave {
		h.clientMu.Lock()
		delete(h.clientToRoom, client.ID)
		h.clientMu.Unlock()
		if err := h.registry.Leave(code, client.ID); err != nil {
			h.logger.Debug("leave failed", "client", client.ID, "code", code, "error", err)
		}
		return
	}

	s, err := h.registry.Get(code)
	if err != nil {
		h.sendError(client.ID, err)
		return
	}

	switch in := in.(type) {
	case protocol.StartGame:
		err = s.Start(client.ID)
	case protocol.PlaceBid:
		err = s.Bid(client.ID, in.Value)
	case protocol.PlayCard:
		err = s.Play(client.ID, in.Card)
	case protocol.RequestState:
		err = s.State(client.ID)
	case protocol.Chat:
		err = s.Chat(client.ID, in.Text)
	}
	if errors.Is(err, game.ErrRoomNotFound) {
		h.sendError(client.ID, err)
	}
}

// roomOf returns the room the client is seated in, forgetting rooms that
// were torn down meanwhile.
func (h *Hub) roomOf(clientID string) (string, bool) {
	h.clientMu.RLock()
	code, ok := h.clientToRoom[clientID]
	h.clientMu.RUnlock()
	if !ok {
		return "", false
	}
	if s, err := h.registry.Get(code); err == nil && s.HasPlayer(clientID) {
		return code, true
	}
	h.clientMu.Lock()
	if h.clientToRoom[clientID] == code {
		delete(h.clientToRoom, clientID)
	}
	h.clientMu.Unlock()
	return "", false
}

func (h *Hub) seat(client *Client, code, name string) {
	h.clientMu.Lock()
	client.Name = name
	h.clientToRoom[client.ID] = code
	h.clientMu.Unlock()
	h.logger.Info("client seated", "client", client.ID, "name", name, "code", code)
}

// sendMessageToClient delivers a message without blocking. A client whose
// buffer is full is disconnected.
func (h *Hub) sendMessageToClient(clientID string, message []byte) {
	h.clientMu.RLock()
	client, ok := h.clients[clientID]
	if !ok {
		h.clientMu.RUnlock()
		h.logger.Debug("dropping message for unknown client", "client", clientID)
		return
	}
	select {
	case client.send <- message:
		h.clientMu.RUnlock()
	default:
		h.clientMu.RUnlock()
		h.logger.Warn("client send buffer full, disconnecting", "client", clientID)
		go h.drop(client)
	}
}

func (h *Hub) sendTo(clientID, msgType string, payload interface{}) {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		h.logger.Error("failed to encode message", "type", msgType, "error", err)
		return
	}
	h.sendMessageToClient(clientID, msg)
}

func (h *Hub) sendError(clientID string, err error) {
	h.sendTo(clientID, protocol.TypeRoomError, protocol.ErrorPayload{Code: errorCode(err), Message: err.Error()})
}

// errorCode extends the game error codes with the transport ones.
func errorCode(err error) string {
	switch {
	case errors.Is(err, protocol.ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, protocol.ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, ErrAlreadyInRoom):
		return "already_in_room"
	}
	return game.ErrorCode(err)
}
