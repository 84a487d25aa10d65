package server

import (
	"hoverarena/protocol"
)

// HandlerFunc 消息处理函数；id 为已解析的发送方身份
type HandlerFunc func(c *ClientConn, id PlayerID, env protocol.Envelope)

// Router 按消息类型分发的路由表，新增类型只需注册，不改分支
// 注册只在启动阶段进行，之后只读，可被多个读协程并发使用
type Router struct {
	registry *Registry
	metrics  *Metrics
	handlers map[protocol.MessageType]HandlerFunc
}

// NewRouter 创建空路由表
func NewRouter(registry *Registry, metrics *Metrics) *Router {
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &Router{
		registry: registry,
		metrics:  metrics,
		handlers: make(map[protocol.MessageType]HandlerFunc),
	}
}

// Handle 注册处理函数，重复注册覆盖
func (r *Router) Handle(t protocol.MessageType, fn HandlerFunc) {
	r.handlers[t] = fn
}

// Route 解析身份并分发；失败只记录诊断，不会 panic
func (r *Router) Route(c *ClientConn, env protocol.Envelope) (err error) {
	id, ok := r.registry.IdentityOf(c)
	if !ok {
		r.metrics.IncRoutingErrors()
		Log.Warnw("message from unregistered connection", "session", c.SessionID, "type", env.Type.String())
		return &RoutingError{Kind: ErrUnregisteredConnection, Type: env.Type, Session: c.SessionID}
	}
	fn, ok := r.handlers[env.Type]
	if !ok {
		r.metrics.IncRoutingErrors()
		Log.Debugw("unknown message type ignored", "player", id, "type", env.Type.String(), "len", env.Length)
		return &RoutingError{Kind: ErrUnknownMessageType, Type: env.Type, Session: c.SessionID}
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.IncHandlerPanics()
			Log.Errorw("message handler panicked", "player", id, "type", env.Type.String(), "panic", rec)
		}
	}()
	fn(c, id, env)
	return nil
}
