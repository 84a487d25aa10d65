package server

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/multierr"

	"hoverarena/protocol"
)

// Server 顶层编排：持有注册表、路由、控制器、心跳与广播，负责整体生命周期
type Server struct {
	cfg         Config
	metrics     *Metrics
	registry    *Registry
	router      *Router
	loop        *Loop
	keepalive   *Keepalive
	broadcaster *Broadcaster
	controller  *Controller

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// New 组装各组件并启动模拟协程；sim 为 nil 时使用 NopSimulation
func New(cfg Config, sim Simulation) *Server {
	cfg = cfg.normalize()
	metrics := &Metrics{}
	registry := NewRegistry()

	s := &Server{
		cfg:         cfg,
		metrics:     metrics,
		registry:    registry,
		router:      NewRouter(registry, metrics),
		loop:        NewLoop(cfg.TickRate, sim, metrics),
		keepalive:   NewKeepalive(cfg.KeepaliveInterval, cfg.KeepaliveTimeout, registry, metrics),
		broadcaster: NewBroadcaster(registry, metrics),
	}
	s.loop.Subscribe(s.broadcaster)
	s.controller = NewController(cfg, sim, s.loop, s.keepalive, metrics)
	s.registerHandlers()

	s.ctx, s.cancel = context.WithCancel(context.Background())
	go s.controller.Run(s.ctx)
	return s
}

func (s *Server) registerHandlers() {
	s.router.Handle(protocol.MsgPing, func(c *ClientConn, id PlayerID, _ protocol.Envelope) {
		// 只回复发起方，不广播
		c.Enqueue(pongFrame)
	})
	s.router.Handle(protocol.MsgPong, func(_ *ClientConn, id PlayerID, _ protocol.Envelope) {
		s.keepalive.RecordPong(id)
	})
	s.router.Handle(protocol.MsgGameState, func(_ *ClientConn, id PlayerID, _ protocol.Envelope) {
		Log.Debugw("inbound GAME_STATE ignored", "player", id)
	})
	s.router.Handle(protocol.MsgStartGame, func(_ *ClientConn, id PlayerID, _ protocol.Envelope) {
		if err := s.controller.OnStartGame(s.ctx, id); err != nil {
			Log.Warnw("start game not queued", "player", id, "err", err)
		}
	})
	s.router.Handle(protocol.MsgStopGame, func(_ *ClientConn, id PlayerID, _ protocol.Envelope) {
		if err := s.controller.OnStopGame(s.ctx, id); err != nil {
			Log.Warnw("stop game not queued", "player", id, "err", err)
		}
	})
}

var pongFrame = protocol.MustEncode(protocol.MsgPong, nil)

// Accept 为新连接分配身份并注册
func (s *Server) Accept(c *ClientConn) (PlayerID, error) {
	if s.closed.Load() {
		return "", ErrServerClosed
	}
	id := s.registry.NextIdentity()
	s.registry.Register(c, id)
	// 与 Shutdown 竞争：UnregisterAll 之后注册的连接在此撤回
	if s.closed.Load() {
		s.registry.Unregister(c)
		c.Close()
		return "", ErrServerClosed
	}
	s.keepalive.Track(id)
	if err := s.controller.OnConnect(s.ctx, id, c); err != nil {
		s.registry.Unregister(c)
		s.keepalive.Forget(id)
		return "", fmt.Errorf("accept %s: %w", id, err)
	}
	return id, nil
}

// Disconnect 传输关闭或出错时调用：只影响该连接，可重复调用
func (s *Server) Disconnect(c *ClientConn) {
	c.Close()
	id, ok := s.registry.Unregister(c)
	if !ok {
		return
	}
	s.keepalive.Forget(id)
	if err := s.controller.OnDisconnect(s.ctx, id); err != nil && !errors.Is(err, context.Canceled) {
		Log.Warnw("disconnect not queued", "player", id, "err", err)
	}
	Log.Infow("client disconnected", "player", id, "session", c.SessionID)
}

// HandleFrame 解码一帧并分发；协议错误只丢弃该帧，连接保持
func (s *Server) HandleFrame(c *ClientConn, frame []byte) {
	env, err := protocol.Decode(frame)
	if err != nil {
		s.metrics.IncProtocolErrors()
		Log.Warnw("dropping malformed frame", "session", c.SessionID, "bytes", len(frame), "err", err)
		return
	}
	_ = s.router.Route(c, env)
}

// Shutdown 停止模拟与心跳，注销并关闭所有连接，最后结束模拟协程
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrServerClosed
	}
	var err error
	if stopErr := s.controller.Stop(ctx); stopErr != nil {
		err = multierr.Append(err, fmt.Errorf("stop simulation: %w", stopErr))
	}
	for _, b := range s.registry.UnregisterAll() {
		s.keepalive.Forget(b.ID)
		b.Conn.Close()
	}
	s.cancel()
	select {
	case <-s.controller.running:
	case <-ctx.Done():
		err = multierr.Append(err, fmt.Errorf("wait for simulation goroutine: %w", ctx.Err()))
	}
	Log.Info("server shut down")
	return err
}

func (s *Server) Config() Config { return s.cfg }
func (s *Server) Metrics() *Metrics { return s.metrics }
func (s *Server) Registry() *Registry { return s.registry }
func (s *Server) Router() *Router { return s.router }
func (s *Server) Controller() *Controller { return s.controller }
func (s *Server) Keepalive() *Keepalive { return s.keepalive }
func (s *Server) Broadcaster() *Broadcaster { return s.broadcaster }
