package server

import (
	"encoding/json"
	"net/http"
)

// HandleAdminConfig 只读输出世界配置与循环参数
// GET /admin/config
// 世界配置在进程内固定，不支持运行期修改
func (s *Server) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	type cfg struct {
		World               WorldConfig `json:"world"`
		TickRate            int         `json:"tickRate"`
		KeepaliveIntervalMs int64       `json:"keepaliveIntervalMs"`
		KeepaliveTimeoutMs  int64       `json:"keepaliveTimeoutMs"`
		AutoStopWhenEmpty   bool        `json:"autoStopWhenEmpty"`
		Phase               string      `json:"phase"`
	}
	cur := cfg{
		World:               s.controller.WorldConfig(),
		TickRate:            s.loop.Rate(),
		KeepaliveIntervalMs: s.cfg.KeepaliveInterval.Milliseconds(),
		KeepaliveTimeoutMs:  s.cfg.KeepaliveTimeout.Milliseconds(),
		AutoStopWhenEmpty:   !s.cfg.KeepRunningWhenEmpty,
		Phase:               s.controller.Phase().String(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(cur)
}

// HandleMetrics 输出运行指标
// GET /metrics
func (s *Server) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"phase":       s.controller.Phase().String(),
		"connections": s.registry.Count(),
		"metrics":     s.metrics.Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
