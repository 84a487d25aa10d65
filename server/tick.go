package server

import "time"

// Scheduler 自重排定时器：每次触发后由持有者调用 Rearm 安排下一次
// 非并发安全，只在模拟协程中使用；Stop 是唯一的取消点，返回后 C() 为 nil
type Scheduler struct {
	interval time.Duration
	timer    *time.Timer
}

// NewScheduler 创建停止状态的调度器
func NewScheduler(interval time.Duration) *Scheduler {
	return &Scheduler{interval: interval}
}

// Start 启动调度，首次触发延迟为 first（负值按 0）
func (s *Scheduler) Start(first time.Duration) bool {
	if s.timer != nil {
		return false
	}
	s.timer = time.NewTimer(max(0, first))
	return true
}

// Stop 停止并丢弃已到期但未读取的触发
func (s *Scheduler) Stop() bool {
	if s.timer == nil {
		return false
	}
	if !s.timer.Stop() {
		select {
		case <-s.timer.C:
		default:
		}
	}
	s.timer = nil
	return true
}

// Running 是否在调度中
func (s *Scheduler) Running() bool { return s.timer != nil }

// C 触发通道；停止时返回 nil（select 中永不就绪）
func (s *Scheduler) C() <-chan time.Time {
	if s.timer == nil {
		return nil
	}
	return s.timer.C
}

// Rearm 在一次触发被消费后安排下一次，延迟 max(0, interval)
func (s *Scheduler) Rearm() {
	if s.timer == nil {
		return
	}
	s.timer.Reset(max(0, s.interval))
}

// Loop 固定频率模拟循环：推进世界时间 → 调用模拟扩展 → 生成快照 → 发布
type Loop struct {
	rate    int
	sched   *Scheduler
	sim     Simulation
	subs    []SnapshotSubscriber
	metrics *Metrics

	last time.Time
	tick uint64
	now  func() time.Time
}

// NewLoop 创建循环，rate 为每秒 Tick 数
func NewLoop(rate int, sim Simulation, metrics *Metrics) *Loop {
	if rate <= 0 {
		rate = DefaultConfig().TickRate
	}
	if sim == nil {
		sim = NopSimulation{}
	}
	if metrics == nil {
		metrics = &Metrics{}
	}
	return &Loop{
		rate:    rate,
		sched:   NewScheduler(time.Second / time.Duration(rate)),
		sim:     sim,
		metrics: metrics,
		now:     time.Now,
	}
}

// Subscribe 注册快照订阅者
func (l *Loop) Subscribe(s SnapshotSubscriber) {
	l.subs = append(l.subs, s)
}

// Start 启动循环，第一次 Tick 立即触发；已运行时为空操作
func (l *Loop) Start() bool {
	if l.sched.Running() {
		return false
	}
	l.last = l.now()
	l.sched.Start(0)
	Log.Infof("game loop started at %d Hz", l.rate)
	return true
}

// Stop 停止循环；返回后不会再有 Tick
func (l *Loop) Stop() bool {
	if !l.sched.Stop() {
		return false
	}
	Log.Info("game loop stopped")
	return true
}

func (l *Loop) Running() bool { return l.sched.Running() }
func (l *Loop) C() <-chan time.Time { return l.sched.C() }
func (l *Loop) Rate() int { return l.rate }
func (l *Loop) Ticks() uint64 { return l.tick }

// Tick 执行一次推进并发布快照，然后重排下一次
func (l *Loop) Tick(state *GameState) Snapshot {
	start := l.now()
	dt := start.Sub(l.last).Seconds()
	if dt < 0 {
		dt = 0
	}
	l.last = start

	state.Advance(dt)
	l.step(state, dt)

	l.tick++
	snap := state.Snapshot(l.tick)
	for _, s := range l.subs {
		l.publish(s, snap)
	}

	l.metrics.AddTick(time.Since(start).Nanoseconds())
	l.sched.Rearm()
	return snap
}

// step 调用模拟扩展，故障被隔离，不中断循环
func (l *Loop) step(state *GameState, dt float64) {
	defer func() {
		if rec := recover(); rec != nil {
			l.metrics.IncHandlerPanics()
			Log.Errorw("simulation step panicked", "tick", l.tick+1, "panic", rec)
		}
	}()
	l.sim.Step(state, dt)
}

func (l *Loop) publish(s SnapshotSubscriber, snap Snapshot) {
	defer func() {
		if rec := recover(); rec != nil {
			l.metrics.IncHandlerPanics()
			Log.Errorw("snapshot subscriber panicked", "tick", snap.Tick, "panic", rec)
		}
	}()
	s.PublishSnapshot(snap)
}
