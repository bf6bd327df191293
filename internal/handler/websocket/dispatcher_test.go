package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/domain"
	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/service"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Connect(connID string) (domain.Session, error) {
	args := m.Called(connID)
	return args.Get(0).(domain.Session), args.Error(1)
}

func (m *mockEngine) Disconnect(connID string) error {
	return m.Called(connID).Error(0)
}

func (m *mockEngine) CreatePrivateRoom(connID string, req domain.CreatePrivateRoomRequest) (domain.PrivateRoomCreatedPayload, error) {
	args := m.Called(connID, req)
	return args.Get(0).(domain.PrivateRoomCreatedPayload), args.Error(1)
}

func (m *mockEngine) JoinRoom(connID string, req domain.JoinRoomRequest) (domain.RoomInfo, error) {
	args := m.Called(connID, req)
	return args.Get(0).(domain.RoomInfo), args.Error(1)
}

func (m *mockEngine) Draw(connID string, payload json.RawMessage) error {
	return m.Called(connID, payload).Error(0)
}

func (m *mockEngine) Erase(connID string, payload json.RawMessage) error {
	return m.Called(connID, payload).Error(0)
}

func (m *mockEngine) ClearCanvas(connID string) error {
	return m.Called(connID).Error(0)
}

func (m *mockEngine) MoveCursor(connID string, x, y float64) error {
	return m.Called(connID, x, y).Error(0)
}

func (m *mockEngine) ChangeTool(connID string, toolData json.RawMessage) error {
	return m.Called(connID, toolData).Error(0)
}

func TestDispatcher_RoutesEvents(t *testing.T) {
	engine := new(mockEngine)
	d := NewDispatcher(engine)

	maxUsers := 4
	engine.On("CreatePrivateRoom", "c1", domain.CreatePrivateRoomRequest{RoomName: "Team", Password: "abcd", MaxUsers: &maxUsers}).
		Return(domain.PrivateRoomCreatedPayload{}, nil).Once()
	engine.On("JoinRoom", "c1", domain.JoinRoomRequest{RoomID: "r1", Username: "alice", Password: "pw"}).
		Return(domain.RoomInfo{}, nil).Once()
	engine.On("Draw", "c1", json.RawMessage(`{"x":1}`)).Return(nil).Once()
	engine.On("Erase", "c1", json.RawMessage(`[1,2]`)).Return(nil).Once()
	engine.On("ClearCanvas", "c1").Return(nil).Once()
	engine.On("MoveCursor", "c1", 3.5, 4.0).Return(nil).Once()
	engine.On("ChangeTool", "c1", json.RawMessage(`{"color":"#fff"}`)).Return(nil).Once()

	d.HandleMessage("c1", []byte(`{"event":"create_private_room","data":{"room_name":"Team","password":"abcd","max_users":4}}`))
	d.HandleMessage("c1", []byte(`{"event":"join_room","data":{"room_id":"r1","username":"alice","password":"pw"}}`))
	d.HandleMessage("c1", []byte(`{"event":"draw","data":{"x":1}}`))
	d.HandleMessage("c1", []byte(`{"event":"erase","data":[1,2]}`))
	d.HandleMessage("c1", []byte(`{"event":"clear_canvas"}`))
	d.HandleMessage("c1", []byte(`{"event":"cursor_move","data":{"x":3.5,"y":4}}`))
	d.HandleMessage("c1", []byte(`{"event":"change_tool","data":{"color":"#fff"}}`))

	engine.AssertExpectations(t)
}

func TestDispatcher_JoinWithoutDataUsesDefaults(t *testing.T) {
	engine := new(mockEngine)
	d := NewDispatcher(engine)
	engine.On("JoinRoom", "c1", domain.JoinRoomRequest{}).Return(domain.RoomInfo{}, nil).Once()

	d.HandleMessage("c1", []byte(`{"event":"join_room"}`))

	engine.AssertExpectations(t)
}

func TestDispatcher_DropsMalformedFrames(t *testing.T) {
	engine := new(mockEngine)
	d := NewDispatcher(engine)

	d.HandleMessage("c1", []byte(`not json`))
	d.HandleMessage("c1", []byte(`{"data":{}}`))
	d.HandleMessage("c1", []byte(`{"event":"cursor_move","data":{"x":"left"}}`))
	d.HandleMessage("c1", []byte(`{"event":"join_room","data":"default"}`))
	d.HandleMessage("c1", []byte(`{"event":"unknown_event","data":{}}`))

	engine.AssertNotCalled(t, "MoveCursor", mock.Anything, mock.Anything, mock.Anything)
	engine.AssertNotCalled(t, "JoinRoom", mock.Anything, mock.Anything)
}

func TestDispatcher_ToleratesEngineErrors(t *testing.T) {
	engine := new(mockEngine)
	d := NewDispatcher(engine)
	engine.On("Draw", "gone", mock.Anything).Return(service.ErrNoSession).Once()
	engine.On("JoinRoom", "c1", mock.Anything).Return(domain.RoomInfo{}, service.ErrRoomFull).Once()
	engine.On("Disconnect", "gone").Return(service.ErrNoSession).Once()

	assert.NotPanics(t, func() {
		d.HandleMessage("gone", []byte(`{"event":"draw","data":{}}`))
		d.HandleMessage("c1", []byte(`{"event":"join_room","data":{"room_id":"full"}}`))
		d.HandleDisconnect("gone")
	})
	engine.AssertExpectations(t)
}

func TestRejectionReason(t *testing.T) {
	reason, ok := rejectionReason(service.ErrIncorrectPassword)
	assert.True(t, ok)
	assert.Equal(t, "incorrect_password", reason)

	_, ok = rejectionReason(service.ErrInternalServer)
	assert.False(t, ok)
}
