package service

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/ayush-sharaf/pollproject-backend/internal/model"

	"github.com/google/uuid"
)

type Role int

const (
	RoleNone Role = iota
	RoleTeacher
	RoleStudent
)

const sendBufferSize = 256

// WSClient is one socket connection. Conn-level I/O lives in the handler;
// the hub only queues encoded events on Send.
type WSClient struct {
	ID        string
	Send      chan []byte
	role      Role
	studentID string
	closed    bool
}

func NewWSClient() *WSClient {
	return &WSClient{
		ID:   uuid.NewString(),
		Send: make(chan []byte, sendBufferSize),
	}
}

// WSHub fans events out to connected clients. Sends never block: a client
// whose buffer is full misses the message.
type WSHub struct {
	clients map[string]*WSClient
	mu      sync.RWMutex
}

func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[string]*WSClient)}
}

func (h *WSHub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client.ID] = client
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("WS: %s connected (total: %d)", client.ID, total)
}

// Unregister removes the client and closes its send queue.
func (h *WSHub) Unregister(client *WSClient) {
	h.mu.Lock()
	if c, ok := h.clients[client.ID]; ok && c == client {
		delete(h.clients, client.ID)
	}
	h.closeLocked(client)
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("WS: %s disconnected (total: %d)", client.ID, total)
}

// SetTeacher marks the client as a teacher connection and drops any
// student binding.
func (h *WSHub) SetTeacher(client *WSClient) {
	h.mu.Lock()
	client.role = RoleTeacher
	client.studentID = ""
	h.mu.Unlock()
}

// SetStudent binds the client to a student identity.
func (h *WSHub) SetStudent(client *WSClient, studentID string) {
	h.mu.Lock()
	client.role = RoleStudent
	client.studentID = studentID
	h.mu.Unlock()
}

// StudentID returns the identity bound by SetStudent, if any.
func (h *WSHub) StudentID(client *WSClient) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return client.studentID, client.role == RoleStudent
}

func (h *WSHub) Broadcast(event *model.WSEvent) {
	h.deliver(event, func(*WSClient) bool { return true })
}

func (h *WSHub) BroadcastToTeachers(event *model.WSEvent) {
	h.deliver(event, func(c *WSClient) bool { return c.role == RoleTeacher })
}

// SendTo queues an event for a single connection.
func (h *WSHub) SendTo(connID string, event *model.WSEvent) bool {
	data, err := json.Marshal(event)
	if err != nil {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[connID]
	if !ok || client.closed {
		return false
	}
	select {
	case client.Send <- data:
		return true
	default:
		log.Printf("WS: send buffer full for %s, dropping %s", connID, event.Type)
		return false
	}
}

// Disconnect closes a connection's send queue. The writer flushes what is
// already queued and then closes the socket.
func (h *WSHub) Disconnect(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[connID]; ok {
		h.closeLocked(client)
	}
}

func (h *WSHub) deliver(event *model.WSEvent, match func(*WSClient) bool) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.closed || !match(client) {
			continue
		}
		select {
		case client.Send <- data:
		default:
			log.Printf("WS: send buffer full for %s, dropping %s", client.ID, event.Type)
		}
	}
}

func (h *WSHub) closeLocked(client *WSClient) {
	if !client.closed {
		client.closed = true
		close(client.Send)
	}
}

// Shutdown closes every client's send queue.
func (h *WSHub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		h.closeLocked(client)
		delete(h.clients, id)
	}
}

func (h *WSHub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Counts returns the number of teacher and student connections.
func (h *WSHub) Counts() (teachers, students int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		switch c.role {
		case RoleTeacher:
			teachers++
		case RoleStudent:
			students++
		}
	}
	return teachers, students
}
