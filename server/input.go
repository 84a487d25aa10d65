package server

// PlayerInput 客户端输入（意图），由服务端在模拟协程中解释
// 协议中尚无输入消息类型，这里只定义服务端内部的扩展入口
type PlayerInput struct {
	Seq         int64
	ThrustX     float64
	ThrustY     float64
	HoverMode   *bool
	LandingGear *bool
	FacingRight *bool
}

// Simulation 游戏内容扩展点（物理、碰撞、AI、投射物），核心只负责调用
// 所有方法都在模拟协程中执行，可直接修改 state
type Simulation interface {
	// ApplyInput 处理一条玩家输入
	ApplyInput(state *GameState, id PlayerID, in PlayerInput)
	// Step 每个 Tick 调用一次，dt 单位为秒
	Step(state *GameState, dt float64)
}

// NopSimulation 默认实现：只应用输入中的状态位，不做物理推进
type NopSimulation struct{}

func (NopSimulation) ApplyInput(state *GameState, id PlayerID, in PlayerInput) {
	state.UpdateState(string(id), EntityState{
		HoverMode:   in.HoverMode,
		LandingGear: in.LandingGear,
		FacingRight: in.FacingRight,
	})
}

func (NopSimulation) Step(*GameState, float64) {}

// SnapshotSubscriber 每个 Tick 接收快照（广播路径）
type SnapshotSubscriber interface {
	PublishSnapshot(s Snapshot)
}
