package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches one operator connection to the handover feed.
func ServeWs(hub *Hub, c *websocket.Conn, operatorID uuid.UUID) {
	client := &Client{Hub: hub, Conn: c, OperatorID: operatorID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
