package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"quartier-watch/internal/notify"

	"github.com/google/uuid"
)

// Hub maintains the set of active client connections and delivers
// notification payloads to each user's connections. It implements
// notify.Sink, so the routing layer never touches connection state.
type Hub struct {
	// Maps user ID to that user's open connections (a user can be
	// connected from several devices).
	clients map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	direct     chan *directMessage

	// Called after a user's last connection goes away, so session
	// routing can be torn down.
	OnLastDisconnect func(userID uuid.UUID)

	mu sync.RWMutex
}

type directMessage struct {
	userID  uuid.UUID
	payload []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		direct:     make(chan *directMessage, 64),
	}
}

// Notify implements notify.Sink. Payloads for users with no open
// connection are dropped; the feed snapshot model means a reconnecting
// client re-syncs from current state anyway.
func (h *Hub) Notify(userID uuid.UUID, n *notify.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		log.Printf("Hub: Failed to encode %s notification: %v", n.Kind, err)
		return
	}
	h.direct <- &directMessage{userID: userID, payload: payload}
}

// Register attaches a new client connection.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister detaches a client connection.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// IsConnected reports whether the user has at least one open connection.
func (h *Hub) IsConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// Run processes registration and delivery. Call it once, in its own
// goroutine.
func (h *Hub) Run() {
	log.Println("Hub: started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; !ok {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			log.Printf("Hub: User %s connected (%d connection(s))", client.UserID, len(h.clients[client.UserID]))
			h.mu.Unlock()

		case client := <-h.unregister:
			var lastGone bool
			h.mu.Lock()
			if userClients, ok := h.clients[client.UserID]; ok {
				if _, open := userClients[client]; open {
					delete(userClients, client)
					close(client.Send)
					if len(userClients) == 0 {
						delete(h.clients, client.UserID)
						lastGone = true
					}
				}
			}
			h.mu.Unlock()
			if lastGone {
				log.Printf("Hub: User %s fully disconnected", client.UserID)
				if h.OnLastDisconnect != nil {
					h.OnLastDisconnect(client.UserID)
				}
			}

		case msg := <-h.direct:
			h.mu.RLock()
			for client := range h.clients[msg.userID] {
				select {
				case client.Send <- msg.payload:
				default:
					// Slow consumer; drop rather than block delivery
					// for everyone else.
					log.Printf("Hub: Send buffer full for user %s, dropping payload", msg.userID)
				}
			}
			h.mu.RUnlock()
		}
	}
}
