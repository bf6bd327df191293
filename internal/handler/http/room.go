package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CyberneticsMan/CybersCollaborativeWhiteboard/internal/service"
)

// RoomQuerier is the read-only view of the engine the HTTP API needs.
type RoomQuerier interface {
	RoomDetails(roomID string) (service.RoomDetails, error)
	Stats() service.Stats
}

// RoomHandler serves room lookups and live counters.
type RoomHandler struct {
	rooms RoomQuerier
}

func NewRoomHandler(rooms RoomQuerier) *RoomHandler {
	if rooms == nil {
		panic("RoomQuerier cannot be nil for RoomHandler")
	}
	return &RoomHandler{rooms: rooms}
}

// GetRoom handles GET /api/rooms/:roomId.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	details, err := h.rooms.RoomDetails(c.Param("roomId"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, details)
}

// Stats handles GET /api/stats.
func (h *RoomHandler) Stats(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, h.rooms.Stats())
}

// Ping handles GET /ping.
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
