package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"hoverarena/protocol"
)

// ClientConn 单个 WebSocket 连接：有界发送队列 + 读写两个协程
type ClientConn struct {
	SessionID string

	ws      *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter
	metrics *Metrics

	writeTimeout time.Duration
	readTimeout  time.Duration

	handle Handle // 由 Registry 在持锁时维护
}

// NewClientConn 包装连接；ws 可为 nil（测试或非 WebSocket 传输）
func NewClientConn(ws *websocket.Conn, cfg Config, metrics *Metrics) *ClientConn {
	cfg = cfg.normalize()
	limit := rate.Limit(cfg.InboundRate)
	if cfg.InboundRate < 0 {
		limit = rate.Inf
	}
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &ClientConn{
		SessionID:    uuid.New().String(),
		ws:           ws,
		send:         make(chan []byte, cfg.SendQueueSize),
		done:         make(chan struct{}),
		limiter:      rate.NewLimiter(limit, cfg.InboundBurst),
		metrics:      metrics,
		writeTimeout: cfg.WriteTimeout,
		readTimeout:  cfg.ReadTimeout,
	}
}

// Enqueue 将帧压入发送队列（非阻塞，满则丢弃最新一帧，防止阻塞 Tick）
func (c *ClientConn) Enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		c.metrics.IncEnqueued()
		return true
	default:
		c.metrics.IncDropped()
		return false
	}
}

// Send 编码并入队
func (c *ClientConn) Send(t protocol.MessageType, payload []byte) bool {
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		Log.Errorw("encode outbound frame", "session", c.SessionID, "type", t.String(), "err", err)
		return false
	}
	return c.Enqueue(frame)
}

// Close 关闭连接（幂等）；发送通道不关闭，写协程通过 done 退出
func (c *ClientConn) Close() {
	c.once.Do(func() {
		close(c.done)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

// Done 连接关闭后可读
func (c *ClientConn) Done() <-chan struct{} { return c.done }

// pingPeriod 传输层 ping 间隔，须小于读超时；pong 刷新读截止时间，空闲但健康的连接不会被断开
func (c *ClientConn) pingPeriod() time.Duration {
	return c.readTimeout / 2
}

// writePump 独立协程，负责从 send 队列写出到 WS（二进制帧），并定期发送传输层 ping
func (c *ClientConn) writePump() {
	ticker := time.NewTicker(c.pingPeriod())
	defer ticker.Stop()
	defer c.Close()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				Log.Debugw("ws ping failed", "session", c.SessionID, "err", err)
				return
			}
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				Log.Debugw("ws write failed", "session", c.SessionID, "err", err)
				return
			}
		}
	}
}

// readPump 读取客户端帧并交给服务器分发；退出时注销连接
func (c *ClientConn) readPump(s *Server) {
	defer s.Disconnect(c)
	c.ws.SetReadLimit(s.cfg.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
	})

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Warnw("ws read error", "session", c.SessionID, "err", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
		if kind != websocket.BinaryMessage {
			Log.Debugw("non-binary frame rejected", "session", c.SessionID, "kind", kind)
			continue
		}
		if !c.limiter.Allow() {
			c.metrics.IncRateLimited()
			continue
		}
		s.HandleFrame(c, data)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// 不做鉴权：允许所有来源
		return true
	},
}

// HandleWS WebSocket 接入（/ws）：分配身份、注册并启动读写协程
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	if s.closed.Load() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnw("ws upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := NewClientConn(ws, s.cfg, s.metrics)
	id, err := s.Accept(c)
	if err != nil {
		c.Close()
		return
	}
	Log.Infow("client connected", "player", id, "session", c.SessionID, "remote", r.RemoteAddr)

	go c.writePump()
	go c.readPump(s)
}
