package server

import "time"

// 规范世界尺寸（服务端权威），进程内固定，运行期不可修改
const (
	WorldWidth   = 1680.0
	WorldHeight  = 1050.0
	WorldGravity = 9.81
)

// WorldConfig 世界配置三元组，新连接的客户端据此初始化
type WorldConfig struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Gravity float64 `json:"gravity"`
}

// CanonicalWorld 返回规范世界配置
func CanonicalWorld() WorldConfig {
	return WorldConfig{Width: WorldWidth, Height: WorldHeight, Gravity: WorldGravity}
}

// Config 服务器运行参数；零值字段在 normalize 中回填默认值
type Config struct {
	TickRate          int           // 模拟频率（Hz）
	KeepaliveInterval time.Duration // PING 广播间隔
	KeepaliveTimeout  time.Duration // 超过该时长未收到 PONG 则断开；0 表示不驱逐
	SendQueueSize     int           // 每连接发送队列容量
	CommandQueueSize  int           // 模拟命令队列容量
	ReadLimit         int64         // 单帧最大字节数
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	InboundRate       float64 // 每连接每秒允许的入站消息数，<0 表示不限
	InboundBurst      int
	// KeepRunningWhenEmpty 最后一个玩家断开后继续模拟；零值即自动停止
	KeepRunningWhenEmpty bool
}

// DefaultConfig 默认配置：20Hz 模拟，1s 心跳
func DefaultConfig() Config {
	return Config{
		TickRate:          20,
		KeepaliveInterval: time.Second,
		SendQueueSize:     64,
		CommandQueueSize:  256,
		ReadLimit:         1 << 17,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Second,
		InboundRate:       60,
		InboundBurst:      120,
	}
}

func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.TickRate <= 0 {
		c.TickRate = d.TickRate
	}
	if c.KeepaliveInterval <= 0 {
		c.KeepaliveInterval = d.KeepaliveInterval
	}
	if c.KeepaliveTimeout < 0 {
		c.KeepaliveTimeout = 0
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = d.SendQueueSize
	}
	if c.CommandQueueSize <= 0 {
		c.CommandQueueSize = d.CommandQueueSize
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = d.ReadLimit
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.InboundRate == 0 {
		c.InboundRate = d.InboundRate
	}
	if c.InboundBurst <= 0 {
		c.InboundBurst = d.InboundBurst
	}
	return c
}

// TickInterval 每 Tick 的间隔（20Hz 即 50ms）
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}
