package utils

import (
	"errors"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunsAllTasks(t *testing.T) {
	pool := NewWorkerPool[int](4, 2)

	go func() {
		for i := 0; i < 50; i++ {
			n := i
			pool.Submit(func() (int, error) {
				if n%10 == 0 {
					return 0, errors.New("multiple of ten")
				}
				return n * 2, nil
			})
		}
		pool.Close()
	}()

	var values []int
	failures := 0
	for r := range pool.Results() {
		if r.Err != nil {
			failures++
			continue
		}
		values = append(values, r.Value)
	}

	sort.Ints(values)
	assert.Equal(t, 5, failures)
	assert.Len(t, values, 45)
	assert.Equal(t, 2, values[0])
	assert.Equal(t, 98, values[len(values)-1])
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool[struct{}](3, 0)

	var active, peak int32
	go func() {
		for i := 0; i < 30; i++ {
			pool.Submit(func() (struct{}, error) {
				cur := atomic.AddInt32(&active, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
						break
					}
				}
				atomic.AddInt32(&active, -1)
				return struct{}{}, nil
			})
		}
		pool.Close()
		pool.Close()
	}()

	for range pool.Results() {
	}

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Equal(t, 3, pool.Workers())
}

func TestNewWorkerPool_Defaults(t *testing.T) {
	pool := NewWorkerPool[int](0, 0)
	pool.Close()

	for range pool.Results() {
	}

	assert.Equal(t, 1, pool.Workers())
}
