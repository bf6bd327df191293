package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/repository"
)

const (
	minRoomNameLen = 3
	minPasswordLen = 4
)

func validatePrivateRoom(name, password string, maxUsers int) error {
	if name == "" || password == "" {
		return ErrNameAndPasswordRequired
	}
	if len([]rune(name)) < minRoomNameLen {
		return ErrRoomNameTooShort
	}
	if len([]rune(password)) < minPasswordLen {
		return ErrPasswordTooShort
	}
	if maxUsers < 1 {
		return ErrInvalidMaxUsers
	}
	return nil
}

// CreatePrivateRoom registers a password-protected room and replies private_room_created.
// The creator is not joined; it must follow up with join_room. Validation failures are
// answered with room_creation_error and also returned.
func (s *WhiteboardService) CreatePrivateRoom(connID string, req domain.CreatePrivateRoomRequest) (domain.PrivateRoomCreatedPayload, error) {
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": connID, "operation": "CreatePrivateRoom"})

	if _, ok := s.sessions.Lookup(connID); !ok {
		return domain.PrivateRoomCreatedPayload{}, ErrNoSession
	}

	name := strings.TrimSpace(req.RoomName)
	password := strings.TrimSpace(req.Password)
	maxUsers := s.cfg.DefaultMaxUsers
	if req.MaxUsers != nil {
		maxUsers = *req.MaxUsers
	}
	if err := validatePrivateRoom(name, password, maxUsers); err != nil {
		logCtx.WithError(err).Info("Rejected private room request")
		s.reject(connID, domain.EventRoomCreationError, err)
		return domain.PrivateRoomCreatedPayload{}, err
	}

	// bcrypt is slow; keep it out of the exclusive section.
	digest, err := s.hasher.Digest(password)
	if err != nil {
		logCtx.WithError(err).Error("Failed to hash room password")
		s.reject(connID, domain.EventRoomCreationError, ErrInternalServer)
		return domain.PrivateRoomCreatedPayload{}, fmt.Errorf("%w: %v", ErrInternalServer, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions.Lookup(connID)
	if !ok {
		return domain.PrivateRoomCreatedPayload{}, ErrNoSession
	}

	policy := domain.PrivateRoomPolicy{
		Name:         name,
		PasswordHash: digest,
		MaxUsers:     maxUsers,
		CreatedAt:    s.now().UTC(),
		CreatorID:    sess.UserID,
	}
	roomID, err := s.registerPolicyLocked(policy)
	if err != nil {
		logCtx.WithError(err).Error("Failed to allocate private room id")
		s.reject(connID, domain.EventRoomCreationError, ErrInternalServer)
		return domain.PrivateRoomCreatedPayload{}, err
	}
	s.rooms.Ensure(roomID, name, true)

	created := domain.PrivateRoomCreatedPayload{RoomID: roomID, RoomName: name, MaxUsers: maxUsers}
	s.transport.Send(connID, domain.Frame{Event: domain.EventPrivateRoomCreated, Data: created})
	logCtx.WithFields(logrus.Fields{"room_id": roomID, "max_users": maxUsers}).Info("Private room created")
	return created, nil
}

// registerPolicyLocked draws fresh ids until one is free in both the directory and the room store.
func (s *WhiteboardService) registerPolicyLocked(policy domain.PrivateRoomPolicy) (string, error) {
	for attempt := 0; attempt < maxRoomIDAttempts; attempt++ {
		id, err := s.newRoomID()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInternalServer, err)
		}
		if _, taken := s.rooms.Get(id); taken {
			continue
		}
		policy.RoomID = id
		err = s.privateRooms.Create(policy)
		if errors.Is(err, repository.ErrDuplicateRoom) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInternalServer, err)
		}
		return id, nil
	}
	return "", fmt.Errorf("%w: no free room id after %d attempts", ErrInternalServer, maxRoomIDAttempts)
}

// JoinRoom moves the session of connID into req.RoomID (default room when empty).
//
// On success the caller receives drawing_data followed by room_joined, every other member
// receives user_joined, and every member including the caller receives users_update.
// When switching rooms the old room gets user_left. Rejections are answered with room_join_error.
func (s *WhiteboardService) JoinRoom(connID string, req domain.JoinRoomRequest) (domain.RoomInfo, error) {
	roomID := req.RoomID
	if roomID == "" {
		roomID = domain.DefaultRoomID
	}
	logCtx := logrus.WithFields(logrus.Fields{"conn_id": connID, "room_id": roomID, "operation": "JoinRoom"})

	if _, ok := s.sessions.Lookup(connID); !ok {
		return domain.RoomInfo{}, ErrNoSession
	}

	// Password check runs before the exclusive section; the policy is re-read under the lock.
	authenticated := false
	if s.privateRooms.Exists(roomID) {
		if err := s.checkPassword(roomID, req.Password); err != nil {
			logCtx.WithError(err).Info("Rejected join")
			s.reject(connID, domain.EventRoomJoinError, err)
			return domain.RoomInfo{}, err
		}
		authenticated = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions.Lookup(connID)
	if !ok {
		return domain.RoomInfo{}, ErrNoSession
	}

	policy, private := s.privateRooms.Get(roomID)
	switch {
	case authenticated && !private:
		return domain.RoomInfo{}, s.rejectJoin(logCtx, connID, ErrRoomClosed)
	case private && !authenticated:
		if err := s.checkPassword(roomID, req.Password); err != nil {
			return domain.RoomInfo{}, s.rejectJoin(logCtx, connID, err)
		}
	}

	if private {
		occupied := s.rooms.MemberCount(roomID)
		if sess.RoomID == roomID {
			occupied--
		}
		if occupied >= policy.MaxUsers {
			return domain.RoomInfo{}, s.rejectJoin(logCtx, connID, ErrRoomFull)
		}
	}

	prev := sess
	if prev.InRoom() && prev.RoomID != roomID {
		s.leaveRoomLocked(prev)
	}

	name := roomID
	if private {
		name = policy.Name
	}
	s.rooms.Ensure(roomID, name, private)
	if err := s.rooms.AddMember(roomID, connID); err != nil {
		if prev.InRoom() && prev.RoomID != roomID {
			_ = s.rooms.AddMember(prev.RoomID, connID)
		}
		logCtx.WithError(err).Error("Failed to add member")
		s.reject(connID, domain.EventRoomJoinError, ErrInternalServer)
		return domain.RoomInfo{}, fmt.Errorf("%w: %v", ErrInternalServer, err)
	}
	if err := s.sessions.SetRoom(connID, roomID); err != nil {
		s.rooms.RemoveMember(roomID, connID)
		return domain.RoomInfo{}, fmt.Errorf("%w: %v", ErrInternalServer, err)
	}
	if req.Username != "" {
		if err := s.sessions.SetName(connID, req.Username); err != nil {
			logCtx.WithError(err).Warn("Failed to set username")
		}
	}
	sess, _ = s.sessions.Lookup(connID)

	history, _ := s.rooms.Snapshot(roomID)
	if history == nil {
		history = []domain.DrawEvent{}
	}
	s.transport.Send(connID, domain.Frame{Event: domain.EventDrawingData, Data: domain.DrawingDataPayload{Data: history}})

	info, _ := s.rooms.Get(roomID)
	s.transport.Send(connID, domain.Frame{Event: domain.EventRoomJoined, Data: info})

	joined := domain.Frame{
		Event: domain.EventUserJoined,
		Data:  domain.UserPayload{UserID: sess.UserID, Username: sess.Username},
	}
	s.rooms.Fanout(roomID, func(members []string) {
		s.transport.Multicast(without(members, connID), joined)
		s.transport.Multicast(members, domain.Frame{
			Event: domain.EventUsersUpdate,
			Data:  domain.UsersUpdatePayload{Users: s.usersOf(members)},
		})
	})

	logCtx.WithFields(logrus.Fields{
		"user_id":    sess.UserID,
		"username":   sess.Username,
		"is_private": private,
		"user_count": info.UserCount,
	}).Info("Session joined room")
	return info, nil
}

func (s *WhiteboardService) checkPassword(roomID, password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if !s.privateRooms.Authenticate(roomID, password) {
		return ErrIncorrectPassword
	}
	return nil
}

func (s *WhiteboardService) rejectJoin(logCtx *logrus.Entry, connID string, err error) error {
	logCtx.WithError(err).Info("Rejected join")
	s.reject(connID, domain.EventRoomJoinError, err)
	return err
}
