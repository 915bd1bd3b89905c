package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestWebSocketConn spins up a throwaway echo server and dials it,
// giving tests a real *websocket.Conn without exercising HandleWebSocket.
func createTestWebSocketConn(t *testing.T) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestNewClient(t *testing.T) {
	hub := NewHub()
	conn := createTestWebSocketConn(t)

	client := NewClient("sub-123", conn, hub)

	assert.NotNil(t, client)
	assert.Equal(t, "sub-123", client.ID)
	assert.Equal(t, hub, client.Hub)
	assert.NotNil(t, client.Send)
	assert.Equal(t, "", client.VehicleID)
}

func TestClientSetAndGetVehicle(t *testing.T) {
	hub := NewHub()
	conn := createTestWebSocketConn(t)
	client := NewClient("sub-123", conn, hub)

	assert.Equal(t, "", client.GetVehicle())

	client.SetVehicle("V-789")
	assert.Equal(t, "V-789", client.GetVehicle())

	client.SetVehicle("")
	assert.Equal(t, "", client.GetVehicle())
}

func TestClientSendMessage(t *testing.T) {
	hub := NewHub()
	conn := createTestWebSocketConn(t)
	client := NewClient("sub-123", conn, hub)

	msg := &Message{
		Type:      "match.assignment.committed",
		Data:      map[string]interface{}{"vehicle_id": "V-1"},
		Timestamp: time.Now(),
	}

	client.SendMessage(msg)

	select {
	case received := <-client.Send:
		assert.Equal(t, msg.Type, received.Type)
		assert.Equal(t, "V-1", received.Data["vehicle_id"])
	case <-time.After(100 * time.Millisecond):
		t.Fatal("message not received in channel")
	}
}

func TestClientSendMessageChannelFull(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn := createTestWebSocketConn(t)
	client := NewClient("sub-123", conn, hub)
	client.Send = make(chan *Message, 2)

	hub.Register <- client
	time.Sleep(10 * time.Millisecond)

	for i := 0; i < 2; i++ {
		client.SendMessage(&Message{Type: "test", Data: map[string]interface{}{"count": i}})
	}

	// Exceeding capacity closes the channel and unregisters the client
	// instead of blocking.
	client.SendMessage(&Message{Type: "overflow", Data: map[string]interface{}{}})
	time.Sleep(10 * time.Millisecond)
}

func TestClientConcurrentVehicleAccess(t *testing.T) {
	hub := NewHub()
	conn := createTestWebSocketConn(t)
	client := NewClient("sub-123", conn, hub)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(id int) {
			client.SetVehicle("V-" + string(rune('A'+id)))
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		go func() {
			_ = client.GetVehicle()
			done <- true
		}()
	}
	for i := 0; i < 20; i++ {
		<-done
	}
}

func TestMessageMarshalUnmarshalRoundTrip(t *testing.T) {
	original := &Message{
		Type:      "match.vehicle.synced",
		VehicleID: "V-123",
		Timestamp: time.Now().Round(time.Second),
		Data: map[string]interface{}{
			"position_node_id": float64(42),
		},
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original.Type, decoded.Type)
	assert.Equal(t, original.VehicleID, decoded.VehicleID)
	assert.Equal(t, original.Timestamp.Unix(), decoded.Timestamp.Unix())
	assert.Equal(t, original.Data["position_node_id"], decoded.Data["position_node_id"])
}

func TestMessageUnmarshalJSONInvalidTimestamp(t *testing.T) {
	jsonData := `{"type": "test", "timestamp": "not-a-time", "data": {}}`

	var msg Message
	err := json.Unmarshal([]byte(jsonData), &msg)
	assert.Error(t, err)
}

func TestMessageUnmarshalJSONEmptyTimestamp(t *testing.T) {
	jsonData := `{"type": "test", "data": {}}`

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(jsonData), &msg))
	assert.Equal(t, "test", msg.Type)
}

func TestClientChannelBuffering(t *testing.T) {
	hub := NewHub()
	conn := createTestWebSocketConn(t)
	client := NewClient("sub-123", conn, hub)

	assert.Equal(t, 256, cap(client.Send))

	for i := 0; i < 256; i++ {
		client.SendMessage(&Message{Type: "test", Data: map[string]interface{}{"count": i}})
	}
	assert.Equal(t, 256, len(client.Send))
}

func TestMultipleClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	numClients := 20
	clients := make([]*Client, numClients)
	for i := 0; i < numClients; i++ {
		conn := createTestWebSocketConn(t)
		client := NewClient("sub-"+string(rune('a'+i)), conn, hub)
		clients[i] = client
		hub.Register <- client
	}

	time.Sleep(20 * time.Millisecond)

	for i, client := range clients {
		client.SendMessage(&Message{Type: "personal", Data: map[string]interface{}{"id": i}})
	}

	for i, client := range clients {
		select {
		case msg := <-client.Send:
			assert.Equal(t, "personal", msg.Type)
			assert.Equal(t, i, msg.Data["id"])
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client %d did not receive message", i)
		}
	}
}
