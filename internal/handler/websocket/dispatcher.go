package websocket

import (
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/metrics"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/service"
)

// Engine is the session engine the dispatcher drives.
type Engine interface {
	Connect(connID string) (domain.Session, error)
	Disconnect(connID string) error
	CreatePrivateRoom(connID string, req domain.CreatePrivateRoomRequest) (domain.PrivateRoomCreatedPayload, error)
	JoinRoom(connID string, req domain.JoinRoomRequest) (domain.RoomInfo, error)
	Draw(connID string, payload json.RawMessage) error
	Erase(connID string, payload json.RawMessage) error
	ClearCanvas(connID string) error
	MoveCursor(connID string, x, y float64) error
	ChangeTool(connID string, toolData json.RawMessage) error
}

var errMalformed = errors.New("malformed frame")

// Dispatcher decodes inbound frames and routes them to the engine. It implements hub.MessageHandler.
type Dispatcher struct {
	engine Engine
}

func NewDispatcher(engine Engine) *Dispatcher {
	if engine == nil {
		panic("Engine cannot be nil for Dispatcher")
	}
	return &Dispatcher{engine: engine}
}

// HandleMessage routes one raw text frame. Malformed frames and unknown events are dropped.
func (d *Dispatcher) HandleMessage(connID string, raw []byte) {
	logCtx := logrus.WithField("conn_id", connID)

	var frame domain.InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
		logCtx.WithError(err).Warn("Dropping malformed frame")
		metrics.EventReceived("malformed", "error")
		return
	}
	logCtx = logCtx.WithField("event", frame.Event)

	err := d.route(connID, frame)
	switch {
	case err == nil:
		metrics.EventReceived(frame.Event, "ok")
	case service.IsBenign(err):
		logCtx.WithError(err).Debug("Event ignored")
		metrics.EventReceived(frame.Event, "ignored")
	default:
		metrics.EventReceived(frame.Event, "error")
		if reason, rejected := rejectionReason(err); rejected {
			metrics.RequestRejected(frame.Event, reason)
			return
		}
		logCtx.WithError(err).Warn("Event failed")
	}
}

func (d *Dispatcher) route(connID string, frame domain.InboundFrame) error {
	switch frame.Event {
	case domain.EventCreatePrivateRoom:
		var req domain.CreatePrivateRoomRequest
		if err := decodeData(frame.Data, &req); err != nil {
			return err
		}
		_, err := d.engine.CreatePrivateRoom(connID, req)
		return err
	case domain.EventJoinRoom:
		var req domain.JoinRoomRequest
		if err := decodeData(frame.Data, &req); err != nil {
			return err
		}
		_, err := d.engine.JoinRoom(connID, req)
		return err
	case domain.EventDraw:
		return d.engine.Draw(connID, frame.Data)
	case domain.EventErase:
		return d.engine.Erase(connID, frame.Data)
	case domain.EventClearCanvas:
		return d.engine.ClearCanvas(connID)
	case domain.EventCursorMove:
		var req domain.CursorMoveRequest
		if err := decodeData(frame.Data, &req); err != nil {
			return err
		}
		return d.engine.MoveCursor(connID, req.X, req.Y)
	case domain.EventChangeTool:
		return d.engine.ChangeTool(connID, frame.Data)
	default:
		logrus.WithFields(logrus.Fields{"conn_id": connID, "event": frame.Event}).Debug("Unknown event")
		return nil
	}
}

// HandleDisconnect tears down the session of connID.
func (d *Dispatcher) HandleDisconnect(connID string) {
	if err := d.engine.Disconnect(connID); err != nil && !service.IsBenign(err) {
		logrus.WithError(err).WithField("conn_id", connID).Error("Failed to disconnect session")
	}
}

// decodeData treats a missing payload as an empty object.
func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errMalformed
	}
	return nil
}

func rejectionReason(err error) (string, bool) {
	reasons := []struct {
		err    error
		reason string
	}{
		{service.ErrNameAndPasswordRequired, "missing_fields"},
		{service.ErrRoomNameTooShort, "name_too_short"},
		{service.ErrPasswordTooShort, "password_too_short"},
		{service.ErrInvalidMaxUsers, "invalid_max_users"},
		{service.ErrPasswordRequired, "password_required"},
		{service.ErrIncorrectPassword, "incorrect_password"},
		{service.ErrRoomFull, "room_full"},
		{service.ErrRoomClosed, "room_closed"},
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason, true
		}
	}
	return "", false
}
