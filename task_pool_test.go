package pbrtracer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskPool_CompletionsRunOnDrain(t *testing.T) {
	pool := NewTaskPool(2)

	var results []any
	var errs []error
	for i := range 4 {
		pool.Spawn(func() (any, error) {
			if i == 3 {
				return nil, errors.New("failed")
			}
			return i * 10, nil
		}, func(res any, err error) {
			results = append(results, res)
			errs = append(errs, err)
		})
	}
	pool.Wait()

	assert.Empty(t, results, "nothing runs before Drain")
	assert.Equal(t, 4, pool.Drain())
	assert.ElementsMatch(t, []any{0, 10, 20, nil}, results)
	assert.Len(t, errs, 4)
	assert.Zero(t, pool.Drain())
}

func TestTaskPool_NilCompletion(t *testing.T) {
	pool := NewTaskPool(1)
	ran := make(chan struct{})
	pool.Spawn(func() (any, error) {
		close(ran)
		return nil, nil
	}, nil)
	pool.Wait()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	assert.Zero(t, pool.Drain())
}

func TestTaskPoolModule_DrainsInIterStep(t *testing.T) {
	app := NewAppBuilder().UseModule(TaskPoolModule{Workers: 1}).Build()
	pool := MustResource[TaskPool](app)

	done := false
	pool.Spawn(func() (any, error) { return nil, nil }, func(any, error) { done = true })
	pool.Wait()
	require.False(t, done)

	app.runPhase(PhaseIterStep)
	assert.True(t, done)

	app.UseModules(TaskPoolModule{Workers: 4})
	assert.Same(t, pool, MustResource[TaskPool](app), "installing twice keeps the pool")
}
