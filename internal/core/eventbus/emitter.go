// Package eventbus 提供类型化的事件通知原语
//
// 每个传输实例和通信上下文各自持有自己的 Emitter（显式回调注册表，
// 不是全局单例总线）。订阅者在连接建立前注册；通知按产生顺序
// 在调用方 goroutine 上逐个送达，本层不引入重排。
package eventbus

import "sync"

// ============================================================================
//                              Emitter 实现
// ============================================================================

// Emitter 某一事件类型的回调注册表
//
// Notify 返回取消函数。Emit 在持锁外依次调用回调副本，
// 回调内可以安全地注册/取消订阅。
type Emitter[T any] struct {
	mu     sync.Mutex
	nextID int
	sinks  map[int]func(T)
}

// NewEmitter 创建 Emitter
func NewEmitter[T any]() *Emitter[T] {
	return &Emitter[T]{sinks: make(map[int]func(T))}
}

// Notify 注册回调，返回取消函数
//
// 取消函数可多次调用，幂等。
func (e *Emitter[T]) Notify(fn func(T)) (cancel func()) {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.sinks[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.sinks, id)
		e.mu.Unlock()
	}
}

// Emit 向所有已注册回调送达事件
//
// 复制回调列表后在锁外调用，避免回调中再注册导致死锁。
func (e *Emitter[T]) Emit(ev T) {
	e.mu.Lock()
	fns := make([]func(T), 0, len(e.sinks))
	for _, fn := range e.sinks {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len 返回当前订阅者数量（测试用）
func (e *Emitter[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sinks)
}
