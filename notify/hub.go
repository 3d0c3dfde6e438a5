package notify

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/tableside/utils"
)

const writeWait = 5 * time.Second

type client struct {
	branchID uint
	role     string
}

// Hub holds staff websocket connections and broadcasts events to the
// connections of the event's branch.
type Hub struct {
	clients map[*websocket.Conn]client
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]client)}
}

func (h *Hub) Register(conn *websocket.Conn, branchID uint, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = client{branchID: branchID, role: role}
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) Emit(branchID uint, eventType string, refID string) {
	data, err := json.Marshal(newMessage(branchID, eventType, refID))
	if err != nil {
		utils.ErrorLogger.Errorf("Error marshaling message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, c := range h.clients {
		if c.branchID != branchID {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"branch_id": branchID,
				"role":      c.role,
			}).Errorf("Error sending message to client: %v", err)
		}
	}
}
