package server

import (
	"testing"
	"time"
)

func TestNewGameStateDerivesBounds(t *testing.T) {
	gs := NewGameState(CanonicalWorld())
	w := gs.World()
	want := Bounds{Left: 0, Right: 1680, Top: 0, Bottom: 1050}
	if w.Bounds != want || w.Gravity != 9.81 || w.Time != 0 {
		t.Fatalf("world = %+v", w)
	}
}

func TestWorldUpdateIsMonotonic(t *testing.T) {
	w := NewWorld(CanonicalWorld())
	w.Update(0.05)
	w.Update(-1)
	w.Update(0.05)
	if w.Time < 0.0999 || w.Time > 0.1001 {
		t.Fatalf("time = %v, want 0.1", w.Time)
	}
}

func TestWorldBoundsHelpers(t *testing.T) {
	w := NewWorld(WorldConfig{Width: 100, Height: 50})
	cases := []struct {
		x, y   float64
		inside bool
		cx, cy float64
	}{
		{0, 0, true, 0, 0},
		{100, 50, true, 100, 50},
		{-5, 10, false, 0, 10},
		{120, 70, false, 100, 50},
	}
	for _, tc := range cases {
		if got := w.IsWithinBounds(tc.x, tc.y); got != tc.inside {
			t.Errorf("IsWithinBounds(%v,%v) = %v", tc.x, tc.y, got)
		}
		if x, y := w.ClampToBounds(tc.x, tc.y); x != tc.cx || y != tc.cy {
			t.Errorf("ClampToBounds(%v,%v) = %v,%v", tc.x, tc.y, x, y)
		}
	}
}

func TestGameStateEntityLifecycle(t *testing.T) {
	gs := NewGameState(CanonicalWorld())
	fixed := time.Unix(1700000000, 0)
	gs.now = func() time.Time { return fixed }

	gs.AddPlayer(Player{ID: "player-1", X: 5000, Y: -3, Connected: true})
	p, ok := gs.Player("player-1")
	if !ok || p.X != 1680 || p.Y != 0 || !p.LastUpdateTime.Equal(fixed) {
		t.Fatalf("player = %+v", p)
	}

	gs.AddAIPlayer(NewAIPlayer("ai-1", 10, 10))
	gs.AddProjectile(Projectile{ID: "shot-1", OwnerID: "ai-1"})

	if !gs.UpdatePosition("ai-1", 20, 30, 1, -1) {
		t.Fatalf("update ai position failed")
	}
	if !gs.UpdatePosition("shot-1", 1, 2, 3, 4) {
		t.Fatalf("update projectile position failed")
	}
	if gs.UpdatePosition("nobody", 0, 0, 0, 0) {
		t.Fatalf("unknown entity updated")
	}

	hover, health := true, 40.0
	if !gs.UpdateState("ai-1", EntityState{HoverMode: &hover, Health: &health}) {
		t.Fatalf("update ai state failed")
	}
	a, _ := gs.AIPlayer("ai-1")
	if a.X != 20 || a.VY != -1 || !a.HoverMode || a.Health != 40 || a.Type != DefaultAIType {
		t.Fatalf("ai = %+v", a)
	}

	if !gs.RemovePlayer("player-1") || gs.RemovePlayer("player-1") {
		t.Fatalf("remove player not idempotent")
	}
	if !gs.RemoveAIPlayer("ai-1") || !gs.RemoveProjectile("shot-1") {
		t.Fatalf("remove failed")
	}
	snap := gs.Snapshot(1)
	if len(snap.Players)+len(snap.AIPlayers)+len(snap.Projectiles) != 0 {
		t.Fatalf("snapshot not empty: %+v", snap)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	gs := NewGameState(CanonicalWorld())
	gs.AddPlayer(Player{ID: "player-1", X: 10, Y: 10})
	gs.AddAIPlayer(NewAIPlayer("ai-1", 1, 1))

	snap := gs.Snapshot(7)

	gs.UpdatePosition("player-1", 99, 99, 5, 5)
	gs.UpdatePosition("ai-1", 50, 50, 0, 0)
	gs.AddPlayer(Player{ID: "player-2"})
	gs.Advance(1.5)

	if len(snap.Players) != 1 || snap.Players[0].X != 10 {
		t.Fatalf("snapshot players changed: %+v", snap.Players)
	}
	if snap.AIPlayers[0].X != 1 {
		t.Fatalf("snapshot ai changed: %+v", snap.AIPlayers)
	}
	if snap.World.Time != 0 || snap.Tick != 7 {
		t.Fatalf("snapshot world changed: %+v", snap.World)
	}

	// 修改快照本身也不影响存储
	snap.Players[0].X = -1
	if p, _ := gs.Player("player-1"); p.X != 99 {
		t.Fatalf("store aliased by snapshot")
	}
}

func TestSnapshotPayloadRoundTrip(t *testing.T) {
	gs := NewGameState(CanonicalWorld())
	gs.AddPlayer(Player{ID: "player-1", X: 840, Y: 525, FacingRight: true, Connected: true})
	gs.AddAIPlayer(NewAIPlayer("ai-1", 3, 4))
	gs.Advance(0.25)

	payload, err := gs.Snapshot(3).MarshalPayload()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := UnmarshalSnapshot(payload)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Tick != 3 || got.World.Width != 1680 || got.World.Time != 0.25 {
		t.Fatalf("decoded = %+v", got)
	}
	if len(got.Players) != 1 || got.Players[0].ID != "player-1" || !got.Players[0].Connected {
		t.Fatalf("players = %+v", got.Players)
	}
	if len(got.AIPlayers) != 1 || got.AIPlayers[0].Health != DefaultAIHealth {
		t.Fatalf("ai = %+v", got.AIPlayers)
	}
}

func TestSetConnected(t *testing.T) {
	gs := NewGameState(CanonicalWorld())
	gs.AddPlayer(Player{ID: "player-1", Connected: true})

	if !gs.SetConnected("player-1", false) {
		t.Fatalf("set connected failed")
	}
	if p, _ := gs.Player("player-1"); p.Connected {
		t.Fatalf("player still connected")
	}
	if gs.SetConnected("player-9", true) {
		t.Fatalf("unknown player updated")
	}
}
