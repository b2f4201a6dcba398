// Package server WebSocket 鸡尾酒动态网关
//
// 网关向已连接客户端实时推送鸡尾酒变更（创建、评分、发布切换、删除），
// 供前端列表页免刷新更新。
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cocktail-hub/internal/apiserver/cocktail"
)

// upgrader WebSocket 升级器配置
//
// CheckOrigin 当前允许所有来源，生产环境应限制。
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// FeedGateway WebSocket 动态网关
//
// 网关负责：
//   - 管理 WebSocket 连接
//   - 接收鸡尾酒变更事件（实现 cocktail.EventSink）
//   - 将事件推送给所有已连接客户端
type FeedGateway struct {
	clients map[*websocket.Conn]chan cocktail.Event
	mu      sync.RWMutex
	metrics *Metrics // 可为 nil
}

// NewFeedGateway 创建动态网关实例
func NewFeedGateway(metrics *Metrics) *FeedGateway {
	return &FeedGateway{
		clients: make(map[*websocket.Conn]chan cocktail.Event),
		metrics: metrics,
	}
}

// Publish 广播变更事件到所有客户端
//
// 实现 cocktail.EventSink。推送通道已满的慢客户端会丢弃本条事件，
// 不阻塞请求处理路径。
func (g *FeedGateway) Publish(event cocktail.Event) {
	if g.metrics != nil {
		switch event.Type {
		case cocktail.EventCreated:
			g.metrics.CocktailsCreatedTotal.Inc()
		case cocktail.EventRated:
			g.metrics.RatingsSubmittedTotal.Inc()
		}
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, ch := range g.clients {
		select {
		case ch <- event:
		default:
			log.Printf("[feed] slow client, event %s dropped", event.Type)
		}
	}
}

// HandleWebSocket 处理 WebSocket 连接请求
//
// 路由: GET /ws/cocktails
//
// 推送消息格式：
//
//	事件消息：{"type": "created"|"rated"|"publish_toggled"|"deleted", "id": "...", "cocktail": {...}}
//
// 客户端消息：
//
//	心跳：{"type": "ping"} -> 响应 {"type": "pong"}
func (g *FeedGateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := g.addClient(conn)
	defer g.removeClient(conn)

	log.Printf("WebSocket client connected to cocktail feed")

	done := make(chan struct{})
	go g.readPump(conn, done)

	g.writePump(conn, ch, done)
}

// addClient 添加客户端连接
func (g *FeedGateway) addClient(conn *websocket.Conn) chan cocktail.Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch := make(chan cocktail.Event, 16)
	g.clients[conn] = ch
	if g.metrics != nil {
		g.metrics.WSConnectionsActive.Inc()
	}
	return ch
}

// removeClient 移除客户端连接
func (g *FeedGateway) removeClient(conn *websocket.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.clients[conn]; ok {
		delete(g.clients, conn)
		if g.metrics != nil {
			g.metrics.WSConnectionsActive.Dec()
		}
	}
}

// ClientCount 当前连接数
func (g *FeedGateway) ClientCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}

// readPump 读取客户端消息
//
// 在独立 goroutine 中运行，处理心跳并在连接关闭时通知写循环。
func (g *FeedGateway) readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}

		var req map[string]interface{}
		if json.Unmarshal(msg, &req) == nil {
			if req["type"] == "ping" {
				conn.WriteJSON(map[string]string{"type": "pong"})
				if g.metrics != nil {
					g.metrics.WSMessagesTotal.WithLabelValues("out", "pong").Inc()
				}
			}
		}
	}
}

// writePump 向客户端推送事件
//
// 主循环处理事件推送，每 30s 发送 ping 保持连接。
func (g *FeedGateway) writePump(conn *websocket.Conn, ch chan cocktail.Event, done chan struct{}) {
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-done:
			return
		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case event := <-ch:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}
			if g.metrics != nil {
				g.metrics.WSMessagesTotal.WithLabelValues("out", string(event.Type)).Inc()
			}
		}
	}
}
