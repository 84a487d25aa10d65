package server

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Handle 连接记录的稳定整数句柄，0 表示未注册
type Handle uint64

type connRecord struct {
	handle   Handle
	conn     *ClientConn
	identity PlayerID
}

// Binding 连接与身份的一次绑定（扇出时使用的只读视图）
type Binding struct {
	Conn *ClientConn
	ID   PlayerID
}

// Registry 连接注册表：以句柄为键的记录表，身份内联存储
// byIdentity 只是索引，与 records 在同一把锁内同步维护
type Registry struct {
	mu         sync.RWMutex
	records    map[Handle]*connRecord
	byIdentity map[PlayerID]Handle
	nextHandle Handle

	nextIdentity atomic.Uint64
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		records:    make(map[Handle]*connRecord),
		byIdentity: make(map[PlayerID]Handle),
	}
}

// NextIdentity 单调分配新身份（player-1, player-2 ...），断开后不复用
func (r *Registry) NextIdentity() PlayerID {
	return PlayerID(fmt.Sprintf("player-%d", r.nextIdentity.Add(1)))
}

// Register 将身份绑定到连接
// 连接已有绑定时替换为新身份；身份已绑定到其他连接时，旧连接失去绑定
func (r *Registry) Register(c *ClientConn, id PlayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(c.handle)
	if h, ok := r.byIdentity[id]; ok {
		r.removeLocked(h)
	}
	r.nextHandle++
	rec := &connRecord{handle: r.nextHandle, conn: c, identity: id}
	r.records[rec.handle] = rec
	r.byIdentity[id] = rec.handle
	c.handle = rec.handle
}

// Unregister 原子地移除双向映射；未注册的连接返回 false（幂等）
func (r *Registry) Unregister(c *ClientConn) (PlayerID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[c.handle]
	if !ok || rec.conn != c {
		return "", false
	}
	r.removeLocked(rec.handle)
	return rec.identity, true
}

func (r *Registry) removeLocked(h Handle) {
	rec, ok := r.records[h]
	if !ok {
		return
	}
	delete(r.records, h)
	if r.byIdentity[rec.identity] == h {
		delete(r.byIdentity, rec.identity)
	}
	rec.conn.handle = 0
}

// IdentityOf 连接 → 身份
func (r *Registry) IdentityOf(c *ClientConn) (PlayerID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[c.handle]
	if !ok || rec.conn != c {
		return "", false
	}
	return rec.identity, true
}

// ConnectionOf 身份 → 连接
func (r *Registry) ConnectionOf(id PlayerID) (*ClientConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byIdentity[id]
	if !ok {
		return nil, false
	}
	return r.records[h].conn, true
}

// Count 当前注册的连接数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Bindings 返回当前所有绑定的副本，用于广播
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Binding, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, Binding{Conn: rec.conn, ID: rec.identity})
	}
	return out
}

// UnregisterAll 清空注册表（关服时使用），返回被移除的绑定
func (r *Registry) UnregisterAll() []Binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Binding, 0, len(r.records))
	for h, rec := range r.records {
		out = append(out, Binding{Conn: rec.conn, ID: rec.identity})
		rec.conn.handle = 0
		delete(r.records, h)
	}
	r.byIdentity = make(map[PlayerID]Handle)
	return out
}
