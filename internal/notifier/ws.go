package notifier

import (
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/pharma-bid-service/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades push-channel connections and joins each client to
// the rooms for its identity and role, plus an optional request room for
// focused observers.
type WSHandler struct {
	Hub    *Hub
	Logger *log.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *Hub, logger *log.Logger) *WSHandler {
	return &WSHandler{Hub: hub, Logger: logger}
}

// HandleWS handles GET /ws?userId=...&role=retailer|wholesaler[&requestId=...].
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	role := r.URL.Query().Get("role")
	requestID := r.URL.Query().Get("requestId")

	if userID == "" || (role != "retailer" && role != "wholesaler") {
		http.Error(w, "userId and a valid role are required", http.StatusBadRequest)
		return
	}

	rooms := make([]string, 0, 2)
	if role == "retailer" {
		rooms = append(rooms, models.RetailerRoom(userID))
	} else {
		rooms = append(rooms, models.WholesalerRoom(userID))
	}
	if requestID != "" {
		rooms = append(rooms, models.RequestRoom(requestID))
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		ID:    uuid.New().String(),
		Rooms: rooms,
		Send:  make(chan []byte, sendBuffer),
	}
	h.Hub.Register(client)

	go h.writePump(client, conn)
	go h.readPump(client, conn)
}

// writePump drains the client's send channel onto the connection and
// keeps it alive with pings.
func (h *WSHandler) writePump(client *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames and unregisters on disconnect.
func (h *WSHandler) readPump(client *Client, conn *websocket.Conn) {
	defer h.Hub.Unregister(client)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.Logger.Printf("websocket read error: %v", err)
			}
			return
		}
	}
}
