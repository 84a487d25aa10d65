package server

import (
	"hoverarena/protocol"
)

// Broadcaster 将快照编码为 GAME_STATE 并扇出到所有已注册连接
// 每个连接走各自的有界队列，慢连接只会丢帧，不会拖住 Tick
type Broadcaster struct {
	registry *Registry
	metrics  *Metrics
}

func NewBroadcaster(registry *Registry, metrics *Metrics) *Broadcaster {
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &Broadcaster{registry: registry, metrics: metrics}
}

// PublishSnapshot 实现 SnapshotSubscriber
func (b *Broadcaster) PublishSnapshot(s Snapshot) {
	payload, err := s.MarshalPayload()
	if err != nil {
		Log.Errorw("snapshot encode failed", "tick", s.Tick, "err", err)
		return
	}
	frame, err := protocol.Encode(protocol.MsgGameState, payload)
	if err != nil {
		// 超过 uint16 上限的快照无法装入一个信封，本 Tick 跳过
		Log.Errorw("snapshot too large for one envelope", "tick", s.Tick, "bytes", len(payload), "err", err)
		return
	}
	b.Broadcast(frame)
	b.metrics.IncSnapshots()
}

// Broadcast 将已编码的帧发给所有连接，返回成功入队的数量
func (b *Broadcaster) Broadcast(frame []byte) int {
	n := 0
	for _, bind := range b.registry.Bindings() {
		if bind.Conn.Enqueue(frame) {
			n++
		}
	}
	return n
}

// SendTo 发给指定玩家
func (b *Broadcaster) SendTo(id PlayerID, t protocol.MessageType, payload []byte) bool {
	c, ok := b.registry.ConnectionOf(id)
	if !ok {
		return false
	}
	return c.Send(t, payload)
}
