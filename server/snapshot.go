package server

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot 某一时刻权威状态的不可变副本，可安全序列化与发送
type Snapshot struct {
	Tick        uint64       `msgpack:"tick" json:"tick"`
	Players     []Player     `msgpack:"players" json:"players"`
	AIPlayers   []AIPlayer   `msgpack:"aiPlayers" json:"aiPlayers"`
	Projectiles []Projectile `msgpack:"projectiles" json:"projectiles"`
	World       World        `msgpack:"world" json:"world"`
}

// MarshalPayload 序列化为 GAME_STATE 负载（msgpack）
func (s Snapshot) MarshalPayload() ([]byte, error) {
	b, err := msgpack.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot tick %d: %w", s.Tick, err)
	}
	return b, nil
}

// UnmarshalSnapshot 解析 GAME_STATE 负载
func UnmarshalSnapshot(payload []byte) (Snapshot, error) {
	var s Snapshot
	if err := msgpack.Unmarshal(payload, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, nil
}
