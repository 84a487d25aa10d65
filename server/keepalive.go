package server

import (
	"sync"
	"time"

	"hoverarena/protocol"
)

var pingFrame = protocol.MustEncode(protocol.MsgPing, nil)

// Keepalive 心跳探测：独立于模拟频率，定期向所有连接广播 PING
// 调度只在模拟协程中进行；lastSeen 由读协程（PONG）并发写入，用锁保护
type Keepalive struct {
	sched    *Scheduler
	timeout  time.Duration
	registry *Registry
	metrics  *Metrics

	mu       sync.Mutex
	lastSeen map[PlayerID]time.Time
	now      func() time.Time
}

// NewKeepalive timeout 为 0 时只探测不驱逐
func NewKeepalive(interval, timeout time.Duration, registry *Registry, metrics *Metrics) *Keepalive {
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &Keepalive{
		sched:    NewScheduler(interval),
		timeout:  timeout,
		registry: registry,
		metrics:  metrics,
		lastSeen: make(map[PlayerID]time.Time),
		now:      time.Now,
	}
}

// Start 启动探测，第一次 PING 立即发送
// 停止期间没有探测，也就收不到 PONG，所以启动时把所有记录重置为当前时间
func (k *Keepalive) Start() bool {
	if k.sched.Running() {
		return false
	}
	k.mu.Lock()
	now := k.now()
	for id := range k.lastSeen {
		k.lastSeen[id] = now
	}
	k.mu.Unlock()
	k.sched.Start(0)
	Log.Info("keepalive started")
	return true
}

// Stop 停止探测；返回后不再发送 PING
func (k *Keepalive) Stop() bool {
	if !k.sched.Stop() {
		return false
	}
	Log.Info("keepalive stopped")
	return true
}

func (k *Keepalive) Running() bool { return k.sched.Running() }
func (k *Keepalive) C() <-chan time.Time { return k.sched.C() }

// Track 开始跟踪新注册的身份
func (k *Keepalive) Track(id PlayerID) {
	k.mu.Lock()
	k.lastSeen[id] = k.now()
	k.mu.Unlock()
}

// Forget 停止跟踪
func (k *Keepalive) Forget(id PlayerID) {
	k.mu.Lock()
	delete(k.lastSeen, id)
	k.mu.Unlock()
}

// RecordPong 记录活跃时间（由路由的 PONG 处理调用）
func (k *Keepalive) RecordPong(id PlayerID) {
	k.metrics.IncPongs()
	k.mu.Lock()
	k.lastSeen[id] = k.now()
	k.mu.Unlock()
}

// LastSeen 最近一次 PONG（或注册）时间
func (k *Keepalive) LastSeen(id PlayerID) (time.Time, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	t, ok := k.lastSeen[id]
	return t, ok
}

// Probe 广播 PING 并驱逐超时连接，然后重排下一次
func (k *Keepalive) Probe() {
	bindings := k.registry.Bindings()
	sent := 0
	for _, b := range bindings {
		if b.Conn.Enqueue(pingFrame) {
			sent++
		}
	}
	k.metrics.AddPings(sent)

	if k.timeout > 0 {
		for _, b := range k.stale(bindings) {
			k.metrics.IncEvictions()
			Log.Warnw("keepalive timeout, closing connection", "player", b.ID, "session", b.Conn.SessionID)
			b.Conn.Close()
		}
	}
	k.sched.Rearm()
}

func (k *Keepalive) stale(bindings []Binding) []Binding {
	k.mu.Lock()
	defer k.mu.Unlock()
	cutoff := k.now().Add(-k.timeout)
	var out []Binding
	for _, b := range bindings {
		if t, ok := k.lastSeen[b.ID]; ok && t.Before(cutoff) {
			out = append(out, b)
		}
	}
	return out
}
