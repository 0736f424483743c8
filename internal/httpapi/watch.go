package httpapi

import (
	"context"
	"encoding/json"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/park285/xiangqi-bot/internal/match"
)

const (
	messageState = "state"
	messageMove  = "move"
	messageError = "error"
)

// wsMessage is the frame exchanged on /ws/matches/:id. Clients send
// {"type":"move","move":"h2e2"}; the server sends state and error frames.
type wsMessage struct {
	Type    string          `json:"type"`
	Move    string          `json:"move,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (s *Server) watch(c *websocket.Conn) {
	id := c.Params("id")
	updates, cancel, err := s.mgr.Watch(id)
	if err != nil {
		s.writeError(c, err)
		_ = c.Close()
		return
	}
	defer cancel()
	s.logger.Info("ws_watch_start", zap.String("match_id", id))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	inbound := make(chan wsMessage)
	go func() {
		defer stop()
		for {
			var msg wsMessage
			if err := c.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ws_watch_end", zap.String("match_id", id))
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			raw, _ := json.Marshal(st)
			if err := c.WriteJSON(wsMessage{Type: messageState, Payload: raw}); err != nil {
				return
			}
		case msg := <-inbound:
			if msg.Type != messageMove {
				s.writeError(c, match.ErrInvalidArgs)
				continue
			}
			// the new state arrives through updates
			if _, err := s.mgr.Play(ctx, id, msg.Move); err != nil {
				s.writeError(c, err)
			}
		}
	}
}

func (s *Server) writeError(c *websocket.Conn, err error) {
	raw, _ := json.Marshal(match.DomainError(err))
	if werr := c.WriteJSON(wsMessage{Type: messageError, Payload: raw}); werr != nil {
		s.logger.Debug("ws_write_failed", zap.Error(werr))
	}
}
