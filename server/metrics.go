package server

import (
	"sync/atomic"
)

// Metrics 记录服务器运行期的关键指标（用于监控与调试）
type Metrics struct {
	TickCount          int64 // Tick 次数
	TotalTickNs        int64 // Tick 累计耗时（纳秒）
	SnapshotsBroadcast int64 // 广播的 GAME_STATE 次数
	FramesEnqueued     int64 // 成功入队的出站帧
	FramesDropped      int64 // 因发送队列满被丢弃的出站帧
	ProtocolErrors     int64 // 解码失败的入站帧
	RoutingErrors      int64 // 未注册连接 / 未知类型
	PingsSent          int64
	PongsReceived      int64
	RateLimited        int64 // 因入站限流被丢弃的消息
	CommandsDropped    int64 // 命令队列满被丢弃的输入
	HandlerPanics      int64
	Evictions          int64 // 心跳超时被断开的连接
}

func (m *Metrics) IncEnqueued() { atomic.AddInt64(&m.FramesEnqueued, 1) }
func (m *Metrics) IncDropped() { atomic.AddInt64(&m.FramesDropped, 1) }
func (m *Metrics) IncProtocolErrors() { atomic.AddInt64(&m.ProtocolErrors, 1) }
func (m *Metrics) IncRoutingErrors() { atomic.AddInt64(&m.RoutingErrors, 1) }
func (m *Metrics) IncPongs() { atomic.AddInt64(&m.PongsReceived, 1) }
func (m *Metrics) IncRateLimited() { atomic.AddInt64(&m.RateLimited, 1) }
func (m *Metrics) IncCommandsDropped() { atomic.AddInt64(&m.CommandsDropped, 1) }
func (m *Metrics) IncHandlerPanics() { atomic.AddInt64(&m.HandlerPanics, 1) }
func (m *Metrics) IncEvictions() { atomic.AddInt64(&m.Evictions, 1) }
func (m *Metrics) IncSnapshots() { atomic.AddInt64(&m.SnapshotsBroadcast, 1) }
func (m *Metrics) AddPings(n int) { atomic.AddInt64(&m.PingsSent, int64(n)) }
func (m *Metrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":          tick,
		"avg_tick_ms":         avgMs,
		"snapshots_broadcast": atomic.LoadInt64(&m.SnapshotsBroadcast),
		"frames_enqueued":     atomic.LoadInt64(&m.FramesEnqueued),
		"frames_dropped":      atomic.LoadInt64(&m.FramesDropped),
		"protocol_errors":     atomic.LoadInt64(&m.ProtocolErrors),
		"routing_errors":      atomic.LoadInt64(&m.RoutingErrors),
		"pings_sent":          atomic.LoadInt64(&m.PingsSent),
		"pongs_received":      atomic.LoadInt64(&m.PongsReceived),
		"rate_limited":        atomic.LoadInt64(&m.RateLimited),
		"commands_dropped":    atomic.LoadInt64(&m.CommandsDropped),
		"handler_panics":      atomic.LoadInt64(&m.HandlerPanics),
		"evictions":           atomic.LoadInt64(&m.Evictions),
	}
}
