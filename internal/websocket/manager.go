package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Client 告警推送客户端（监控大屏/管理后台）
type Client struct {
	ID      string          // 连接ID
	Conn    *websocket.Conn // WebSocket连接
	Send    chan []byte     // 发送消息通道
	Manager *Manager        // 管理器引用
	closed  bool            // 标记channel是否已关闭
	closeMu sync.Mutex      // 保护closed字段
}

// Manager 告警事件推送管理器，把告警事件广播给所有已连接的前端
type Manager struct {
	clients    map[string]*Client // 客户端映射 connID -> Client
	register   chan *Client       // 注册通道
	unregister chan *Client       // 注销通道
	broadcast  chan []byte        // 广播通道
	mu         sync.RWMutex       // 读写锁
	logger     *zap.Logger        // 日志
	upgrader   websocket.Upgrader
}

// NewManager 创建新的推送管理器
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 10),
		unregister: make(chan *Client, 10),
		broadcast:  make(chan []byte, 256),
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Run 启动管理器
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("告警推送管理器已停止")
			return
		case client := <-m.register:
			m.registerClient(client)
		case client := <-m.unregister:
			m.unregisterClient(client)
		case message := <-m.broadcast:
			m.broadcastMessage(message)
		}
	}
}

// Broadcast 向所有客户端广播消息，队列满时丢弃
func (m *Manager) Broadcast(message []byte) {
	select {
	case m.broadcast <- message:
	default:
		m.logger.Warn("广播队列已满，丢弃消息")
	}
}

// ServeStream 处理前端的告警流连接
func (m *Manager) ServeStream(c echo.Context) error {
	conn, err := m.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		m.logger.Error("websocket升级失败", zap.Error(err))
		return err
	}

	client := &Client{
		ID:      uuid.NewString(),
		Conn:    conn,
		Send:    make(chan []byte, 64),
		Manager: m,
	}
	m.register <- client

	go client.WritePump()
	client.ReadPump()
	return nil
}

// registerClient 注册客户端
func (m *Manager) registerClient(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clients[client.ID] = client
	m.logger.Info("前端已连接告警流", zap.String("connID", client.ID), zap.Int("totalClients", len(m.clients)))
}

// unregisterClient 注销客户端
func (m *Manager) unregisterClient(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[client.ID]; exists {
		delete(m.clients, client.ID)
		client.closeChannel()
		m.logger.Info("前端已断开告警流", zap.String("connID", client.ID), zap.Int("totalClients", len(m.clients)))
	}
}

// broadcastMessage 广播消息
func (m *Manager) broadcastMessage(message []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		select {
		case client.Send <- message:
		default:
			// 发送失败，客户端可能已断开
			m.logger.Warn("推送消息失败，客户端可能已断开", zap.String("connID", client.ID))
		}
	}
}

// ClientCount 获取客户端数量
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// ReadPump 读取客户端消息。
// 前端连接只用于接收推送，读到的内容直接丢弃，读取循环用于感知断开。
func (c *Client) ReadPump() {
	defer func() {
		c.Manager.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Manager.logger.Error("websocket读取失败", zap.Error(err), zap.String("connID", c.ID))
			}
			break
		}
	}
}

// WritePump 向客户端写入消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// 通道已关闭
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Manager.logger.Error("websocket写入失败", zap.Error(err), zap.String("connID", c.ID))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeChannel 安全地关闭发送通道
func (c *Client) closeChannel() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}
