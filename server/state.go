package server

import (
	"sort"
	"time"
)

// GameState 权威数据存储：玩家、AI、投射物与世界
// 非并发安全：只允许模拟控制器的单一协程读写
type GameState struct {
	players     map[PlayerID]*Player
	aiPlayers   map[string]*AIPlayer
	projectiles map[string]*Projectile
	world       World

	now func() time.Time
}

// NewGameState 以世界配置初始化游戏状态
func NewGameState(cfg WorldConfig) *GameState {
	return &GameState{
		players:     make(map[PlayerID]*Player),
		aiPlayers:   make(map[string]*AIPlayer),
		projectiles: make(map[string]*Projectile),
		world:       NewWorld(cfg),
		now:         time.Now,
	}
}

// World 返回世界状态副本
func (g *GameState) World() World { return g.world }

// Advance 推进世界时间
func (g *GameState) Advance(dt float64) { g.world.Update(dt) }

// AddPlayer 加入（或替换）玩家，位置裁剪到世界边界内
func (g *GameState) AddPlayer(p Player) {
	p.X, p.Y = g.world.ClampToBounds(p.X, p.Y)
	p.LastUpdateTime = g.now()
	g.players[p.ID] = &p
}

// RemovePlayer 移除玩家，返回是否存在
func (g *GameState) RemovePlayer(id PlayerID) bool {
	if _, ok := g.players[id]; !ok {
		return false
	}
	delete(g.players, id)
	return true
}

// Player 按 ID 查询玩家（副本）
func (g *GameState) Player(id PlayerID) (Player, bool) {
	p, ok := g.players[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Players 所有玩家的副本，按 ID 排序
func (g *GameState) Players() []Player {
	out := make([]Player, 0, len(g.players))
	for _, p := range g.players {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (g *GameState) AddAIPlayer(a AIPlayer) {
	a.LastUpdateTime = g.now()
	g.aiPlayers[a.ID] = &a
}

func (g *GameState) RemoveAIPlayer(id string) bool {
	if _, ok := g.aiPlayers[id]; !ok {
		return false
	}
	delete(g.aiPlayers, id)
	return true
}

func (g *GameState) AIPlayer(id string) (AIPlayer, bool) {
	a, ok := g.aiPlayers[id]
	if !ok {
		return AIPlayer{}, false
	}
	return *a, true
}

func (g *GameState) AIPlayers() []AIPlayer {
	out := make([]AIPlayer, 0, len(g.aiPlayers))
	for _, a := range g.aiPlayers {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (g *GameState) AddProjectile(p Projectile) {
	p.LastUpdateTime = g.now()
	g.projectiles[p.ID] = &p
}

func (g *GameState) RemoveProjectile(id string) bool {
	if _, ok := g.projectiles[id]; !ok {
		return false
	}
	delete(g.projectiles, id)
	return true
}

func (g *GameState) Projectiles() []Projectile {
	out := make([]Projectile, 0, len(g.projectiles))
	for _, p := range g.projectiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdatePosition 更新实体位置与速度（玩家 → AI → 投射物依次查找）
func (g *GameState) UpdatePosition(id string, x, y, vx, vy float64) bool {
	now := g.now()
	if p, ok := g.players[PlayerID(id)]; ok {
		p.X, p.Y, p.VX, p.VY, p.LastUpdateTime = x, y, vx, vy, now
		return true
	}
	if a, ok := g.aiPlayers[id]; ok {
		a.X, a.Y, a.VX, a.VY, a.LastUpdateTime = x, y, vx, vy, now
		return true
	}
	if pr, ok := g.projectiles[id]; ok {
		pr.X, pr.Y, pr.VX, pr.VY, pr.LastUpdateTime = x, y, vx, vy, now
		return true
	}
	return false
}

// UpdateState 部分更新玩家或 AI 的状态位
func (g *GameState) UpdateState(id string, s EntityState) bool {
	if p, ok := g.players[PlayerID(id)]; ok {
		s.applyPlayer(p)
		p.LastUpdateTime = g.now()
		return true
	}
	if a, ok := g.aiPlayers[id]; ok {
		s.applyAI(a)
		a.LastUpdateTime = g.now()
		return true
	}
	return false
}

// SetConnected 标记玩家在线状态
func (g *GameState) SetConnected(id PlayerID, connected bool) bool {
	p, ok := g.players[id]
	if !ok {
		return false
	}
	p.Connected = connected
	p.LastUpdateTime = g.now()
	return true
}

// Snapshot 拷贝当前状态，结果不与存储共享可变内存
func (g *GameState) Snapshot(tick uint64) Snapshot {
	return Snapshot{
		Tick:        tick,
		Players:     g.Players(),
		AIPlayers:   g.AIPlayers(),
		Projectiles: g.Projectiles(),
		World:       g.world,
	}
}
