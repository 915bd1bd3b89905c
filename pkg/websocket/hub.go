package websocket

import (
	"log"
	"sync"
)

// MessageHandler is a function that handles incoming messages
type MessageHandler func(*Client, *Message)

// Hub maintains the set of connected dashboard subscribers and broadcasts
// match-engine events (assignment commits, refusals, vehicle syncs) to them.
type Hub struct {
	// Registered clients by subscriber ID
	clients map[string]*Client

	// Clients grouped by the vehicle feed they're watching
	vehicles map[string]map[string]*Client

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Broadcast messages to specific subscribers or feeds
	Broadcast chan *BroadcastMessage

	// Message handlers by message type
	handlers map[string]MessageHandler

	mu sync.RWMutex
}

// BroadcastMessage represents a message to be broadcast
type BroadcastMessage struct {
	Target   string   // "client", "vehicle", "all"
	TargetID string   // Client ID or Vehicle ID
	Message  *Message // Message to send
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		vehicles:   make(map[string]map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan *BroadcastMessage, 256),
		handlers:   make(map[string]MessageHandler),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	log.Println("WebSocket Hub started")
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case broadcast := <-h.Broadcast:
			h.broadcastMessage(broadcast)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existingClient, ok := h.clients[client.ID]; ok {
		close(existingClient.Send)
	}

	h.clients[client.ID] = client
	log.Printf("Client registered: %s", client.ID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)

		vehicleID := client.GetVehicle()
		if vehicleID != "" {
			if feed, ok := h.vehicles[vehicleID]; ok {
				delete(feed, client.ID)
				if len(feed) == 0 {
					delete(h.vehicles, vehicleID)
				}
			}
		}

		close(client.Send)
		log.Printf("Client unregistered: %s", client.ID)
	}
}

func (h *Hub) broadcastMessage(broadcast *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch broadcast.Target {
	case "client":
		if client, ok := h.clients[broadcast.TargetID]; ok {
			client.SendMessage(broadcast.Message)
		}

	case "vehicle":
		if feed, ok := h.vehicles[broadcast.TargetID]; ok {
			for _, client := range feed {
				client.SendMessage(broadcast.Message)
			}
		}

	case "all":
		for _, client := range h.clients {
			client.SendMessage(broadcast.Message)
		}
	}
}

// HandleMessage routes incoming messages to appropriate handlers
func (h *Hub) HandleMessage(client *Client, msg *Message) {
	h.mu.RLock()
	handler, exists := h.handlers[msg.Type]
	h.mu.RUnlock()

	if exists {
		handler(client, msg)
	} else {
		log.Printf("No handler for message type: %s", msg.Type)
	}
}

// RegisterHandler registers a message handler for a specific type
func (h *Hub) RegisterHandler(msgType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[msgType] = handler
	log.Printf("Registered handler for message type: %s", msgType)
}

// AddClientToVehicleFeed subscribes a client to a single vehicle's event feed
func (h *Hub) AddClientToVehicleFeed(clientID, vehicleID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}

	if _, ok := h.vehicles[vehicleID]; !ok {
		h.vehicles[vehicleID] = make(map[string]*Client)
	}

	h.vehicles[vehicleID][clientID] = client
	client.SetVehicle(vehicleID)

	log.Printf("Client %s subscribed to vehicle %s", clientID, vehicleID)
}

// RemoveClientFromVehicleFeed unsubscribes a client from a vehicle's feed
func (h *Hub) RemoveClientFromVehicleFeed(clientID, vehicleID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if feed, ok := h.vehicles[vehicleID]; ok {
		delete(feed, clientID)
		if len(feed) == 0 {
			delete(h.vehicles, vehicleID)
		}
	}

	if client, ok := h.clients[clientID]; ok {
		client.SetVehicle("")
	}

	log.Printf("Client %s unsubscribed from vehicle %s", clientID, vehicleID)
}

// SendToClient sends a message to a specific subscriber
func (h *Hub) SendToClient(clientID string, msg *Message) {
	h.Broadcast <- &BroadcastMessage{Target: "client", TargetID: clientID, Message: msg}
}

// SendToVehicle sends a message to every subscriber of a vehicle's feed
func (h *Hub) SendToVehicle(vehicleID string, msg *Message) {
	h.Broadcast <- &BroadcastMessage{Target: "vehicle", TargetID: vehicleID, Message: msg}
}

// SendToAll broadcasts a message to all connected subscribers
func (h *Hub) SendToAll(msg *Message) {
	h.Broadcast <- &BroadcastMessage{Target: "all", Message: msg}
}

// GetClient returns a client by ID
func (h *Hub) GetClient(clientID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[clientID]
	return client, ok
}

// GetClientsForVehicle returns all clients watching a vehicle's feed
func (h *Hub) GetClientsForVehicle(vehicleID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients := make([]*Client, 0)
	if feed, ok := h.vehicles[vehicleID]; ok {
		for _, client := range feed {
			clients = append(clients, client)
		}
	}
	return clients
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetVehicleFeedCount returns the number of distinct vehicle feeds with at
// least one subscriber
func (h *Hub) GetVehicleFeedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.vehicles)
}
