package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterNotifyAndEmit(t *testing.T) {
	e := NewEmitter[int]()

	var got []int
	cancel := e.Notify(func(v int) { got = append(got, v) })

	e.Emit(1)
	e.Emit(2)
	assert.Equal(t, []int{1, 2}, got)

	cancel()
	e.Emit(3)
	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 0, e.Len())
}

func TestEmitterCancelIdempotent(t *testing.T) {
	e := NewEmitter[string]()
	cancel := e.Notify(func(string) {})
	cancel()
	cancel()
	assert.Equal(t, 0, e.Len())
}

func TestEmitterSubscribeDuringEmit(t *testing.T) {
	e := NewEmitter[int]()

	var second []int
	e.Notify(func(v int) {
		if v == 1 {
			// 回调内注册新订阅者不得死锁
			e.Notify(func(w int) { second = append(second, w) })
		}
	})

	e.Emit(1)
	e.Emit(2)
	assert.Equal(t, []int{2}, second)
}
