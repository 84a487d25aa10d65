package server

import "time"

// PlayerID 玩家唯一标识，注册时单调分配，进程生命周期内不复用
type PlayerID string

// Player 玩家实体（服务端权威状态）
type Player struct {
	ID          PlayerID `msgpack:"id" json:"id"`
	X           float64  `msgpack:"x" json:"x"`
	Y           float64  `msgpack:"y" json:"y"`
	VX          float64  `msgpack:"vx" json:"vx"`
	VY          float64  `msgpack:"vy" json:"vy"`
	HoverMode   bool     `msgpack:"hoverMode" json:"hoverMode"`
	LandingGear bool     `msgpack:"landingGear" json:"landingGear"`
	FacingRight bool     `msgpack:"facingRight" json:"facingRight"`
	Connected   bool     `msgpack:"connected" json:"connected"`

	LastUpdateTime time.Time `msgpack:"-" json:"-"`
}

const (
	DefaultAIType   = "default"
	DefaultAIHealth = 100.0
)

// AIPlayer AI 控制的实体
type AIPlayer struct {
	ID          string  `msgpack:"id" json:"id"`
	X           float64 `msgpack:"x" json:"x"`
	Y           float64 `msgpack:"y" json:"y"`
	VX          float64 `msgpack:"vx" json:"vx"`
	VY          float64 `msgpack:"vy" json:"vy"`
	HoverMode   bool    `msgpack:"hoverMode" json:"hoverMode"`
	LandingGear bool    `msgpack:"landingGear" json:"landingGear"`
	FacingRight bool    `msgpack:"facingRight" json:"facingRight"`
	Type        string  `msgpack:"type" json:"type"`
	Health      float64 `msgpack:"health" json:"health"`

	LastUpdateTime time.Time `msgpack:"-" json:"-"`
}

// NewAIPlayer 按默认类型与血量创建 AI 实体
func NewAIPlayer(id string, x, y float64) AIPlayer {
	return AIPlayer{ID: id, X: x, Y: y, Type: DefaultAIType, Health: DefaultAIHealth}
}

// Projectile 投射物
type Projectile struct {
	ID      string  `msgpack:"id" json:"id"`
	OwnerID string  `msgpack:"ownerId" json:"ownerId"`
	X       float64 `msgpack:"x" json:"x"`
	Y       float64 `msgpack:"y" json:"y"`
	VX      float64 `msgpack:"vx" json:"vx"`
	VY      float64 `msgpack:"vy" json:"vy"`

	LastUpdateTime time.Time `msgpack:"-" json:"-"`
}

// EntityState 部分状态更新，nil 字段保持不变
type EntityState struct {
	HoverMode   *bool
	LandingGear *bool
	FacingRight *bool
	Health      *float64 // 仅 AI
	Type        *string  // 仅 AI
}

func (s EntityState) applyPlayer(p *Player) {
	if s.HoverMode != nil {
		p.HoverMode = *s.HoverMode
	}
	if s.LandingGear != nil {
		p.LandingGear = *s.LandingGear
	}
	if s.FacingRight != nil {
		p.FacingRight = *s.FacingRight
	}
}

func (s EntityState) applyAI(a *AIPlayer) {
	if s.HoverMode != nil {
		a.HoverMode = *s.HoverMode
	}
	if s.LandingGear != nil {
		a.LandingGear = *s.LandingGear
	}
	if s.FacingRight != nil {
		a.FacingRight = *s.FacingRight
	}
	if s.Health != nil {
		a.Health = *s.Health
	}
	if s.Type != nil {
		a.Type = *s.Type
	}
}
