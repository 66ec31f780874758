package worker

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_RunsEverySubmittedTask(t *testing.T) {
	p := NewPool(4, 16)
	var n atomic.Int64
	for i := 0; i < 100; i++ {
		assert.True(t, p.Submit(func() { n.Add(1) }))
	}
	p.Stop()
	assert.EqualValues(t, 100, n.Load())
}

func TestPool_RejectsAfterStop(t *testing.T) {
	p := NewPool(1, 1)
	p.Stop()
	p.Stop()
	assert.False(t, p.Submit(func() {}))
	assert.False(t, p.TrySubmit(func() {}))
}

func TestPool_TrySubmitWhenFull(t *testing.T) {
	p := NewPool(1, 1)
	block := make(chan struct{})
	started := make(chan struct{})
	assert.True(t, p.Submit(func() { close(started); <-block }))
	<-started
	assert.True(t, p.TrySubmit(func() {}))
	assert.False(t, p.TrySubmit(func() {}))
	assert.Equal(t, 1, p.Pending())
	close(block)
	p.Stop()
}
