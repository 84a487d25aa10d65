package server

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Phase 模拟生命周期
type Phase int32

const (
	PhaseUninitialized Phase = iota // 尚未创建 GameState
	PhaseInitialized                // GameState 已创建，循环未启动
	PhaseRunning                    // 循环与心跳运行中
	PhaseStopped                    // 循环已停止，GameState 保留
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitialized:
		return "initialized"
	case PhaseRunning:
		return "running"
	case PhaseStopped:
		return "stopped"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// command 投递到模拟协程执行的命令；done 非 nil 时执行后关闭
type command struct {
	name string
	id   PlayerID
	run  func()
	done chan struct{}
}

// Controller 模拟控制器：所有 GameState 读写都在 Run 所在的单一协程中进行
// 网络协程只投递命令，不直接改状态
type Controller struct {
	cfg       Config
	world     WorldConfig
	cmds      chan command
	loop      *Loop
	keepalive *Keepalive
	sim       Simulation
	metrics   *Metrics

	state   *GameState
	present map[PlayerID]*ClientConn

	phase   atomic.Int32
	running chan struct{} // Run 退出后关闭
}

// NewController 创建控制器；需调用 Run 才会开始处理命令
func NewController(cfg Config, sim Simulation, loop *Loop, keepalive *Keepalive, metrics *Metrics) *Controller {
	cfg = cfg.normalize()
	if sim == nil {
		sim = NopSimulation{}
	}
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &Controller{
		cfg:       cfg,
		world:     CanonicalWorld(),
		cmds:      make(chan command, cfg.CommandQueueSize),
		loop:      loop,
		keepalive: keepalive,
		sim:       sim,
		metrics:   metrics,
		present:   make(map[PlayerID]*ClientConn),
		running:   make(chan struct{}),
	}
}

// Run 模拟协程主循环：命令 → Tick → 心跳，直到 ctx 结束
func (c *Controller) Run(ctx context.Context) {
	defer close(c.running)
	defer func() {
		c.loop.Stop()
		c.keepalive.Stop()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-c.cmds:
			c.exec(cmd)
		case <-c.loop.C():
			c.tick()
		case <-c.keepalive.C():
			c.keepalive.Probe()
		}
	}
}

// Phase 当前生命周期阶段（任意协程可读）
func (c *Controller) Phase() Phase { return Phase(c.phase.Load()) }

// WorldConfig 规范世界配置
func (c *Controller) WorldConfig() WorldConfig { return c.world }

func (c *Controller) exec(cmd command) {
	defer func() {
		if cmd.done != nil {
			close(cmd.done)
		}
	}()
	defer func() {
		if rec := recover(); rec != nil {
			c.metrics.IncHandlerPanics()
			Log.Errorw("command panicked", "cmd", cmd.name, "player", cmd.id, "panic", rec)
		}
	}()
	cmd.run()
}

func (c *Controller) tick() {
	if c.state == nil {
		c.loop.Stop()
		return
	}
	c.loop.Tick(c.state)
}

// submit 阻塞投递（生命周期命令不能丢）
func (c *Controller) submit(ctx context.Context, cmd command) error {
	select {
	case <-c.running:
		return ErrServerClosed
	default:
	}
	select {
	case c.cmds <- cmd:
		return nil
	case <-c.running:
		return ErrServerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// trySubmit 非阻塞投递，队列满时丢弃（输入类命令）
func (c *Controller) trySubmit(cmd command) error {
	select {
	case <-c.running:
		return ErrServerClosed
	default:
	}
	select {
	case c.cmds <- cmd:
		return nil
	default:
		c.metrics.IncCommandsDropped()
		return ErrQueueFull
	}
}

// call 投递并等待执行完成
func (c *Controller) call(ctx context.Context, cmd command) error {
	cmd.done = make(chan struct{})
	if err := c.submit(ctx, cmd); err != nil {
		return err
	}
	select {
	case <-cmd.done:
		return nil
	case <-c.running:
		// Run 退出前可能已执行
		select {
		case <-cmd.done:
			return nil
		default:
			return ErrServerClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnConnect 登记在线；GameState 延迟到开始游戏时才创建
func (c *Controller) OnConnect(ctx context.Context, id PlayerID, conn *ClientConn) error {
	return c.submit(ctx, command{name: "connect", id: id, run: func() { c.handleConnect(id, conn) }})
}

// OnDisconnect 移除在线登记
func (c *Controller) OnDisconnect(ctx context.Context, id PlayerID) error {
	return c.submit(ctx, command{name: "disconnect", id: id, run: func() { c.handleDisconnect(id) }})
}

// OnStartGame 初始化（如需要）并启动循环，幂等
func (c *Controller) OnStartGame(ctx context.Context, id PlayerID) error {
	return c.submit(ctx, command{name: "start", id: id, run: func() { c.handleStart(id) }})
}

// OnStopGame 停止循环与心跳，幂等
func (c *Controller) OnStopGame(ctx context.Context, id PlayerID) error {
	return c.submit(ctx, command{name: "stop", id: id, run: func() { c.handleStop(id) }})
}

// OnPlayerInput 输入转交模拟扩展；队列满时丢弃，保证 Tick 准时
func (c *Controller) OnPlayerInput(id PlayerID, in PlayerInput) error {
	return c.trySubmit(command{name: "input", id: id, run: func() { c.handleInput(id, in) }})
}

// Start 同步启动：返回时已处于 Running
func (c *Controller) Start(ctx context.Context) error {
	return c.call(ctx, command{name: "start", run: func() { c.handleStart("") }})
}

// Stop 同步停止：返回后不会再有 Tick 或 PING
func (c *Controller) Stop(ctx context.Context) error {
	return c.call(ctx, command{name: "stop", run: func() { c.handleStop("") }})
}

// Inspect 在模拟协程中读取状态；state 可能为 nil（尚未初始化）
func (c *Controller) Inspect(ctx context.Context, fn func(state *GameState, phase Phase)) error {
	return c.call(ctx, command{name: "inspect", run: func() { fn(c.state, c.Phase()) }})
}

func (c *Controller) handleConnect(id PlayerID, conn *ClientConn) {
	c.present[id] = conn
	if c.state != nil {
		c.spawn(id)
	}
	Log.Infow("player connected", "player", id, "present", len(c.present))
}

func (c *Controller) handleDisconnect(id PlayerID) {
	if _, ok := c.present[id]; !ok {
		return
	}
	delete(c.present, id)
	if c.state != nil {
		c.state.RemovePlayer(id)
	}
	Log.Infow("player disconnected", "player", id, "present", len(c.present))

	if !c.cfg.KeepRunningWhenEmpty && len(c.present) == 0 && c.Phase() == PhaseRunning {
		Log.Info("last player left, stopping simulation")
		c.halt()
	}
}

func (c *Controller) handleStart(id PlayerID) {
	if c.state == nil {
		c.initialize()
	}
	if c.Phase() == PhaseRunning {
		Log.Debugw("start ignored, already running", "player", id)
		return
	}
	c.loop.Start()
	c.keepalive.Start()
	c.phase.Store(int32(PhaseRunning))
	Log.Infow("game started", "player", id)
}

func (c *Controller) handleStop(id PlayerID) {
	if c.Phase() != PhaseRunning {
		Log.Debugw("stop ignored, not running", "player", id, "phase", c.Phase().String())
		return
	}
	c.halt()
	Log.Infow("game stopped", "player", id)
}

func (c *Controller) handleInput(id PlayerID, in PlayerInput) {
	if c.state == nil {
		return
	}
	if _, ok := c.state.Player(id); !ok {
		return
	}
	c.sim.ApplyInput(c.state, id, in)
}

// initialize 创建唯一的 GameState，并把已在线的玩家放入世界
func (c *Controller) initialize() {
	c.state = NewGameState(c.world)
	for id := range c.present {
		c.spawn(id)
	}
	c.phase.Store(int32(PhaseInitialized))
	Log.Infof("game state initialized with world: %gx%g gravity=%g", c.world.Width, c.world.Height, c.world.Gravity)
}

func (c *Controller) spawn(id PlayerID) {
	w := c.state.World()
	x, y := w.Center()
	c.state.AddPlayer(Player{ID: id, X: x, Y: y, FacingRight: true, Connected: true})
}

func (c *Controller) halt() {
	c.keepalive.Stop()
	c.loop.Stop()
	c.phase.Store(int32(PhaseStopped))
}
