package http

import (
	"net/http"

	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
	"github.com/gin-gonic/gin"
)

type StatsSource interface {
	GlobalStats() core.Stats
}

type RoomSource interface {
	List() []core.RoomInfo
	Get(name domain.RoomName) (core.RoomInfo, bool)
	Members(name domain.RoomName) []core.MemberDTO
}

// Handlers serve read-only diagnostics over REST.
type Handlers struct {
	Stats StatsSource
	Rooms RoomSource
}

type RoomDetail struct {
	core.RoomInfo
	Members []core.MemberDTO `json:"members"`
}

func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/stats", h.handleStats)
	r.GET("/rooms", h.handleRooms)
	r.GET("/rooms/:name", h.handleRoom)
}

func HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Stats.GlobalStats())
}

func (h *Handlers) handleRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.Rooms.List()})
}

func (h *Handlers) handleRoom(c *gin.Context) {
	name := domain.RoomName(c.Param("name"))
	info, ok := h.Rooms.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, RoomDetail{RoomInfo: info, Members: h.Rooms.Members(name)})
}
