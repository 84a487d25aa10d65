package server

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"hoverarena/protocol"
)

// observeLogs 替换全局日志并在测试结束时恢复
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Log
	SetLogger(zap.New(core))
	t.Cleanup(func() { Log = prev })
	return logs
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.KeepaliveInterval = 50 * time.Millisecond
	cfg.InboundRate = -1
	return cfg
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	s := New(cfg, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

// newTestConn 无底层 WebSocket 的连接，出站帧留在 send 队列中供断言
func newTestConn(cfg Config) *ClientConn {
	return NewClientConn(nil, cfg, nil)
}

func acceptConn(t *testing.T, s *Server) (*ClientConn, PlayerID) {
	t.Helper()
	c := NewClientConn(nil, s.cfg, s.metrics)
	id, err := s.Accept(c)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	return c, id
}

// nextEnvelope 读取下一帧，超时返回 false
func nextEnvelope(t *testing.T, c *ClientConn, timeout time.Duration) (protocol.Envelope, bool) {
	t.Helper()
	select {
	case frame := <-c.send:
		env, err := protocol.Decode(frame)
		if err != nil {
			t.Fatalf("decode outbound frame: %v", err)
		}
		return env, true
	case <-time.After(timeout):
		return protocol.Envelope{}, false
	}
}

// waitForType 丢弃其他类型，直到读到 want
func waitForType(t *testing.T, c *ClientConn, want protocol.MessageType, timeout time.Duration) (protocol.Envelope, bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return protocol.Envelope{}, false
		}
		env, ok := nextEnvelope(t, c, left)
		if !ok {
			return protocol.Envelope{}, false
		}
		if env.Type == want {
			return env, true
		}
	}
}

func drain(c *ClientConn) []protocol.Envelope {
	var out []protocol.Envelope
	for {
		select {
		case frame := <-c.send:
			if env, err := protocol.Decode(frame); err == nil {
				out = append(out, env)
			}
		default:
			return out
		}
	}
}

// inspect 在模拟协程中取阶段与快照；尚未初始化时快照为 nil
func inspect(t *testing.T, ctrl *Controller) (Phase, *Snapshot) {
	t.Helper()
	var (
		phase Phase
		snap  *Snapshot
	)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := ctrl.Inspect(ctx, func(gs *GameState, p Phase) {
		phase = p
		if gs != nil {
			s := gs.Snapshot(0)
			snap = &s
		}
	})
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	return phase, snap
}

func encodeFrame(mt protocol.MessageType, payload []byte) []byte {
	return protocol.MustEncode(mt, payload)
}
