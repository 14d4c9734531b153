package workers

import (
	"context"
	"log"
	"sync"
	"time"
)

// Task is a handle to a job running on a ticker. Stop cancels the job and
// waits for an in-flight run to return.
type Task struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Job is one run of a task. Each run gets its own timeout derived from the
// task context.
type Job func(ctx context.Context)

// Every starts fn on a ticker of the given interval. The first run happens
// after one interval. The task ends when ctx is cancelled or Stop is called.
func Every(ctx context.Context, name string, interval time.Duration, fn Job) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{name: name, cancel: cancel, done: make(chan struct{})}

	ticker := time.NewTicker(interval)
	go func() {
		defer close(t.done)
		defer ticker.Stop()
		log.Printf("Worker %s: started, every %s", name, interval)
		for {
			select {
			case <-ctx.Done():
				log.Printf("Worker %s: stopped", name)
				return
			case <-ticker.C:
				t.run(ctx, fn, interval)
			}
		}
	}()
	return t
}

func (t *Task) run(ctx context.Context, fn Job, interval time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker %s: recovered from panic: %v", t.name, r)
		}
	}()
	runCtx, cancel := context.WithTimeout(ctx, interval)
	defer cancel()
	fn(runCtx)
}

func (t *Task) Name() string { return t.name }

func (t *Task) Stop() {
	t.once.Do(t.cancel)
	<-t.done
}

// Group stops a set of tasks together on shutdown.
type Group struct {
	mu    sync.Mutex
	tasks []*Task
}

func (g *Group) Every(ctx context.Context, name string, interval time.Duration, fn Job) *Task {
	t := Every(ctx, name, interval, fn)
	g.mu.Lock()
	g.tasks = append(g.tasks, t)
	g.mu.Unlock()
	return t
}

func (g *Group) Stop() {
	g.mu.Lock()
	tasks := g.tasks
	g.tasks = nil
	g.mu.Unlock()
	for _, t := range tasks {
		t.Stop()
	}
}
