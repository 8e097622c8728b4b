package handler

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ayush-sharaf/pollproject-backend/internal/model"
	"github.com/ayush-sharaf/pollproject-backend/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const (
	readWait   = 60 * time.Second
	pingPeriod = readWait * 9 / 10
	writeWait  = 10 * time.Second
)

type WSHandler struct {
	hub       *service.WSHub
	classroom *service.Classroom
	origins   []string

	readWait   time.Duration
	pingPeriod time.Duration
}

func NewWSHandler(hub *service.WSHub, classroom *service.Classroom, allowedOrigin string) *WSHandler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &WSHandler{
		hub:        hub,
		classroom:  classroom,
		origins:    []string{allowedOrigin},
		readWait:   readWait,
		pingPeriod: pingPeriod,
	}
}

func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(h.handleConnection, websocket.Config{Origins: h.origins})(c)
	}
	return fiber.ErrUpgradeRequired
}

// handleConnection must not return before the writer goroutine has exited:
// the conn is recycled by the websocket package once it returns.
func (h *WSHandler) handleConnection(c *websocket.Conn) {
	client := service.NewWSClient()
	writerDone := make(chan struct{})

	h.hub.Register(client)
	defer func() {
		if studentID, ok := h.hub.StudentID(client); ok {
			h.classroom.LeaveStudent(studentID, client.ID)
		}
		h.hub.Unregister(client)
		<-writerDone
	}()

	go h.writeLoop(c, client, writerDone)

	// Reader loop. Pongs to the writer's pings keep idle clients alive.
	c.SetReadDeadline(time.Now().Add(h.readWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(h.readWait))
	})
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			break
		}

		c.SetReadDeadline(time.Now().Add(h.readWait))

		var event model.WSEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			h.sendError(client, "invalid message")
			continue
		}
		h.dispatch(client, &event)
	}
}

// writeLoop drains the client's queue and pings on an interval. When the
// queue is closed it sends a close frame and closes the socket.
func (h *WSHandler) writeLoop(c *websocket.Conn, client *service.WSClient, done chan<- struct{}) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
		close(done)
	}()

	for {
		select {
		case msg, ok := <-client.Send:
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) dispatch(client *service.WSClient, event *model.WSEvent) {
	ctx := context.Background()

	switch event.Type {
	case model.EventPing:
		h.send(client, model.EventPong, nil)

	case model.EventJoinTeacher:
		if prev, ok := h.hub.StudentID(client); ok {
			h.classroom.LeaveStudent(prev, client.ID)
		}
		h.hub.SetTeacher(client)
		h.classroom.WelcomeTeacher(client.ID)

	case model.EventJoinStudent:
		p, err := model.DecodeJoinStudent(event.Data)
		if err != nil {
			h.sendError(client, err.Error())
			return
		}
		if prev, ok := h.hub.StudentID(client); ok && prev != p.StudentID {
			h.classroom.LeaveStudent(prev, client.ID)
		}
		h.hub.SetStudent(client, p.StudentID)
		h.classroom.JoinStudent(p.StudentID, p.Name, client.ID)

	case model.EventCreatePoll:
		p, err := model.DecodeCreatePoll(event.Data)
		if err != nil {
			h.sendError(client, err.Error())
			return
		}
		if _, err := h.classroom.CreatePoll(p); err != nil {
			h.sendError(client, err.Error())
		}

	case model.EventSubmitAnswer:
		p, err := model.DecodeSubmitAnswer(event.Data)
		if err != nil {
			h.sendError(client, err.Error())
			return
		}
		studentID, ok := h.hub.StudentID(client)
		if !ok {
			return
		}
		h.classroom.SubmitAnswer(ctx, studentID, p.OptionID)

	case model.EventEndPoll:
		h.classroom.EndPoll(ctx)

	case model.EventGetResults:
		h.classroom.SendResults(client.ID)

	case model.EventGetPollHistory:
		go h.sendPollHistory(ctx, client)

	case model.EventKickStudent:
		studentID, err := model.DecodeKickStudent(event.Data)
		if err != nil {
			h.sendError(client, err.Error())
			return
		}
		h.classroom.KickStudent(studentID)

	case model.EventSendChat:
		p, err := model.DecodeChat(event.Data)
		if err != nil {
			h.sendError(client, err.Error())
			return
		}
		h.classroom.SendChat(p.Sender, p.Message, p.IsTeacher)

	case model.EventGetChatHistory:
		h.classroom.SendChatHistory(client.ID)

	default:
		log.Printf("WS: unknown event type %s from %s", event.Type, client.ID)
		h.sendError(client, "unknown event type: "+event.Type)
	}
}

func (h *WSHandler) sendPollHistory(ctx context.Context, client *service.WSClient) {
	rows, err := h.classroom.PollHistory(ctx)
	if err != nil {
		log.Printf("[History] load failed: %v", err)
		h.sendError(client, "failed to load poll history")
		return
	}
	if rows == nil {
		rows = []model.PollRecord{}
	}
	h.send(client, model.EventPollHistory, rows)
}

func (h *WSHandler) sendError(client *service.WSClient, reason string) {
	h.send(client, model.EventError, reason)
}

func (h *WSHandler) send(client *service.WSClient, eventType string, data any) {
	event, err := model.NewWSEvent(eventType, data)
	if err != nil {
		log.Printf("WS: %v", err)
		return
	}
	h.hub.SendTo(client.ID, event)
}
