// Package server WebSocket 动态网关单元测试
package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"cocktail-hub/internal/apiserver/cocktail"
	"cocktail-hub/internal/shared/model"
)

func TestNewFeedGateway(t *testing.T) {
	g := NewFeedGateway(nil)
	if g == nil {
		t.Fatal("expected gateway instance")
	}
	if g.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", g.ClientCount())
	}
}

func TestPublish_NoClients(t *testing.T) {
	g := NewFeedGateway(nil)

	// 无客户端时不 panic
	g.Publish(cocktail.Event{Type: cocktail.EventCreated, ID: "ct-1"})
}

func TestClientCount_Concurrent(t *testing.T) {
	g := NewFeedGateway(nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				g.ClientCount()
				g.Publish(cocktail.Event{Type: cocktail.EventRated, ID: "ct-1"})
			}
		}()
	}
	wg.Wait()
}

// ============================================================================
// WebSocket 集成（httptest + gorilla/websocket）
// ============================================================================

func dialFeed(t *testing.T, g *FeedGateway) (*websocket.Conn, func()) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(g.HandleWebSocket))
	wsURL := strings.Replace(server.URL, "http://", "ws://", 1)

	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial failed: %v", err)
	}
	return client, func() {
		client.Close()
		server.Close()
	}
}

func TestHandleWebSocket_ReceivesEvents(t *testing.T) {
	g := NewFeedGateway(nil)
	client, cleanup := dialFeed(t, g)
	defer cleanup()

	// 等待连接注册完成
	deadline := time.Now().Add(2 * time.Second)
	for g.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if g.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", g.ClientCount())
	}

	g.Publish(cocktail.Event{
		Type:     cocktail.EventCreated,
		ID:       "ct-1",
		Cocktail: &model.Cocktail{ID: "ct-1", Name: "Mojito"},
	})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var received cocktail.Event
	if err := client.ReadJSON(&received); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if received.Type != cocktail.EventCreated || received.ID != "ct-1" {
		t.Errorf("unexpected event: %+v", received)
	}
	if received.Cocktail == nil || received.Cocktail.Name != "Mojito" {
		t.Errorf("expected cocktail payload, got %+v", received.Cocktail)
	}
}

func TestHandleWebSocket_PingPong(t *testing.T) {
	g := NewFeedGateway(nil)
	client, cleanup := dialFeed(t, g)
	defer cleanup()

	if err := client.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp map[string]string
	if err := client.ReadJSON(&resp); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if resp["type"] != "pong" {
		t.Errorf("expected pong, got %v", resp)
	}
}

func TestHandleWebSocket_DisconnectCleansUp(t *testing.T) {
	g := NewFeedGateway(nil)
	client, cleanup := dialFeed(t, g)

	deadline := time.Now().Add(2 * time.Second)
	for g.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	client.Close()
	cleanup()

	deadline = time.Now().Add(2 * time.Second)
	for g.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if g.ClientCount() != 0 {
		t.Errorf("expected client removed after disconnect, got %d", g.ClientCount())
	}
}
