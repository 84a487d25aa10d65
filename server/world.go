package server

import "math"

// Bounds 世界边界，初始化时由宽高推导，此后不变
type Bounds struct {
	Left   float64 `msgpack:"left" json:"left"`
	Right  float64 `msgpack:"right" json:"right"`
	Top    float64 `msgpack:"top" json:"top"`
	Bottom float64 `msgpack:"bottom" json:"bottom"`
}

// World 世界/关卡状态
type World struct {
	Width   float64 `msgpack:"width" json:"width"`
	Height  float64 `msgpack:"height" json:"height"`
	Bounds  Bounds  `msgpack:"bounds" json:"bounds"`
	Gravity float64 `msgpack:"gravity" json:"gravity"`
	Time    float64 `msgpack:"time" json:"time"` // 秒，单调不减，仅由 Tick 推进
}

// NewWorld 按宽高初始化世界并推导边界
func NewWorld(cfg WorldConfig) World {
	return World{
		Width:   cfg.Width,
		Height:  cfg.Height,
		Bounds:  Bounds{Left: 0, Right: cfg.Width, Top: 0, Bottom: cfg.Height},
		Gravity: cfg.Gravity,
	}
}

// Update 推进世界时间；负值按 0 处理
func (w *World) Update(dt float64) {
	if dt <= 0 || math.IsNaN(dt) {
		return
	}
	w.Time += dt
}

// IsWithinBounds 判断坐标是否在边界内（含边界）
func (w *World) IsWithinBounds(x, y float64) bool {
	return x >= w.Bounds.Left && x <= w.Bounds.Right &&
		y >= w.Bounds.Top && y <= w.Bounds.Bottom
}

// ClampToBounds 将坐标裁剪到边界内
func (w *World) ClampToBounds(x, y float64) (float64, float64) {
	return math.Max(w.Bounds.Left, math.Min(w.Bounds.Right, x)),
		math.Max(w.Bounds.Top, math.Min(w.Bounds.Bottom, y))
}

// Center 世界中心，新玩家的出生点
func (w *World) Center() (float64, float64) {
	return (w.Bounds.Left + w.Bounds.Right) / 2, (w.Bounds.Top + w.Bounds.Bottom) / 2
}
