package service

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"
)

// Draw appends a draw event to the room log and relays it to every other member.
func (s *WhiteboardService) Draw(connID string, payload json.RawMessage) error {
	return s.appendAndRelay(connID, domain.KindDraw, domain.EventDraw, payload)
}

// Erase appends an erase event to the room log and relays it to every other member.
func (s *WhiteboardService) Erase(connID string, payload json.RawMessage) error {
	return s.appendAndRelay(connID, domain.KindErase, domain.EventErase, payload)
}

func (s *WhiteboardService) appendAndRelay(connID string, kind domain.EventKind, event string, payload json.RawMessage) error {
	payload, err := normalizePayload(payload)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.roomSession(connID)
	if err != nil {
		return err
	}
	ev := domain.DrawEvent{
		Kind:      kind,
		Payload:   payload,
		UserID:    sess.UserID,
		Timestamp: s.now().UTC(),
	}
	relay := domain.Frame{Event: event, Data: payload}
	appended := s.rooms.AppendEvent(sess.RoomID, ev, func(members []string) {
		s.transport.Multicast(without(members, connID), relay)
	})
	if !appended {
		return ErrNotInRoom
	}
	logrus.WithFields(logrus.Fields{"room_id": sess.RoomID, "user_id": sess.UserID, "event": event}).Debug("Event relayed")
	return nil
}

// ClearCanvas empties the room log and tells every member, the sender included.
func (s *WhiteboardService) ClearCanvas(connID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.roomSession(connID)
	if err != nil {
		return err
	}
	cleared := s.rooms.ClearLog(sess.RoomID, func(members []string) {
		s.transport.Multicast(members, domain.Frame{Event: domain.EventClearCanvas})
	})
	if !cleared {
		return ErrNotInRoom
	}
	logrus.WithFields(logrus.Fields{"room_id": sess.RoomID, "user_id": sess.UserID}).Info("Canvas cleared")
	return nil
}

// MoveCursor records the cursor position and relays it to every other member. Not logged for replay.
func (s *WhiteboardService) MoveCursor(connID string, x, y float64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.roomSession(connID)
	if err != nil {
		return err
	}
	if err := s.sessions.SetCursor(connID, domain.Cursor{X: x, Y: y}); err != nil {
		return ErrNoSession
	}
	moved := domain.Frame{
		Event: domain.EventCursorMove,
		Data:  domain.CursorMovePayload{UserID: sess.UserID, Username: sess.Username, X: x, Y: y},
	}
	if !s.rooms.Fanout(sess.RoomID, func(members []string) {
		s.transport.Multicast(without(members, connID), moved)
	}) {
		return ErrNotInRoom
	}
	return nil
}

// ChangeTool stores a string "color" from toolData on the session and relays the tool
// data to every other member. The color is kept even when the session is not in a room yet.
func (s *WhiteboardService) ChangeTool(connID string, toolData json.RawMessage) error {
	toolData, err := normalizePayload(toolData)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions.Lookup(connID); !ok {
		return ErrNoSession
	}
	if color, ok := toolColor(toolData); ok {
		if err := s.sessions.SetColor(connID, color); err != nil {
			return ErrNoSession
		}
	}

	sess, err := s.roomSession(connID)
	if err != nil {
		return err
	}
	changed := domain.Frame{
		Event: domain.EventUserToolChange,
		Data:  domain.ToolChangePayload{UserID: sess.UserID, Username: sess.Username, ToolData: toolData},
	}
	if !s.rooms.Fanout(sess.RoomID, func(members []string) {
		s.transport.Multicast(without(members, connID), changed)
	}) {
		return ErrNotInRoom
	}
	return nil
}

func toolColor(toolData json.RawMessage) (string, bool) {
	var probe struct {
		Color any `json:"color"`
	}
	if err := json.Unmarshal(toolData, &probe); err != nil {
		return "", false
	}
	color, ok := probe.Color.(string)
	return color, ok
}

// normalizePayload maps an absent payload to JSON null and rejects malformed JSON.
func normalizePayload(payload json.RawMessage) (json.RawMessage, error) {
	if len(payload) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(payload) {
		return nil, ErrInvalidPayload
	}
	return append(json.RawMessage(nil), payload...), nil
}
