package pbrtracer

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// TaskPool runs work off the main thread. Completions are queued and handed
// back to the main thread during IterStep, so they may touch the App freely.
type TaskPool struct {
	pool     worker.DynamicWorkerPool
	nextID   int
	inflight sync.WaitGroup

	mu        sync.Mutex
	completed []func()
}

func NewTaskPool(workers int) *TaskPool {
	if workers < 1 {
		workers = 1
	}
	// Idle workers exit after a second and are respawned on demand.
	return &TaskPool{pool: worker.NewDynamicWorkerPool(workers, 256, 1*time.Second)}
}

// Spawn submits work to the pool. then, if not nil, receives its result on
// the main thread at the next Drain. Spawn itself must be called from the
// main thread.
func (p *TaskPool) Spawn(work func() (any, error), then func(any, error)) {
	p.inflight.Add(1)
	id := p.nextID
	p.nextID++

	p.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer p.inflight.Done()
			res, err := work()
			if then != nil {
				p.mu.Lock()
				p.completed = append(p.completed, func() { then(res, err) })
				p.mu.Unlock()
			}
			return res, err
		},
	})
}

// Drain runs the queued completions in the order their tasks finished
// and returns how many ran.
func (p *TaskPool) Drain() int {
	p.mu.Lock()
	completed := p.completed
	p.completed = nil
	p.mu.Unlock()

	for _, fn := range completed {
		fn()
	}
	return len(completed)
}

// Wait blocks until every spawned task finished. Their completions still
// need a Drain.
func (p *TaskPool) Wait() {
	p.inflight.Wait()
}

type TaskPoolModule struct {
	Workers int
}

func (m TaskPoolModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[TaskPool](app); ok {
		return
	}
	workers := m.Workers
	if workers == 0 {
		workers = 2
	}
	app.addResources(NewTaskPool(workers))
	app.UseSystem(
		System(func(p *TaskPool) {
			p.Drain()
		}).
			InStage(IterStep).
			RunAlways(),
	)
}
