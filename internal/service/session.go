package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"
)

// Connect allocates a session for a freshly accepted connection and greets it with user_connected.
func (s *WhiteboardService) Connect(connID string) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Register(connID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to register session: %w", err)
	}
	s.transport.Send(connID, domain.Frame{
		Event: domain.EventUserConnected,
		Data:  domain.UserConnectedPayload{UserID: sess.UserID},
	})
	logrus.WithFields(logrus.Fields{"conn_id": connID, "user_id": sess.UserID}).Info("Session connected")
	return sess, nil
}

// Disconnect tears down the session of connID, leaving its room first.
// Calling it again for the same connection returns ErrNoSession and does nothing.
func (s *WhiteboardService) Disconnect(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions.Lookup(connID)
	if !ok {
		return ErrNoSession
	}
	if sess.InRoom() {
		s.leaveRoomLocked(sess)
	}
	s.sessions.Unregister(connID)

	logrus.WithFields(logrus.Fields{
		"conn_id": connID,
		"user_id": sess.UserID,
		"room_id": sess.RoomID,
	}).Info("Session disconnected")
	return nil
}

// leaveRoomLocked drops sess from its room and tells the remaining members. Requires s.mu held exclusively.
func (s *WhiteboardService) leaveRoomLocked(sess domain.Session) {
	remaining, ok := s.rooms.RemoveMember(sess.RoomID, sess.ConnID)
	if !ok {
		return
	}
	if remaining == 0 {
		return
	}
	left := domain.Frame{
		Event: domain.EventUserLeft,
		Data:  domain.UserPayload{UserID: sess.UserID, Username: sess.Username},
	}
	s.rooms.Fanout(sess.RoomID, func(members []string) {
		s.transport.Multicast(members, left)
	})
}
