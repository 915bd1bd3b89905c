package websocket

import (
	"crypto/subtle"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard feed is served behind the internal API key check
		// below, not browser-origin restriction.
		return true
	},
}

// HandleWebSocket upgrades a dashboard connection after checking the shared
// internal API key (the same INTERNAL_API_KEY secret and header that
// pkg/middleware.InternalAPIKey checks, also accepted as the api_key query
// parameter — there is no per-rider or per-driver identity on this feed,
// only operators).
func HandleWebSocket(c *gin.Context, hub *Hub) {
	expected := os.Getenv("INTERNAL_API_KEY")
	provided := c.Query("api_key")
	if provided == "" {
		provided = c.GetHeader("X-Internal-API-Key")
	}

	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing internal API key"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return
	}

	client := NewClient(uuid.NewString(), conn, hub)

	hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
