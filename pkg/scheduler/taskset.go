package scheduler

import "sync"

// taskset tracks in-flight worker goroutines so Scheduler can join all
// of them on shutdown, mirroring the original scheduler's per-job
// thread.join() drain. The WaitGroup counts only running workers, so
// there is no per-tick reap step and no bound on how many run at once.
type taskset struct {
	wg sync.WaitGroup
}

// Go launches fn as a tracked worker.
func (t *taskset) Go(fn func()) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn()
	}()
}

// Wait blocks until every previously launched worker has returned.
func (t *taskset) Wait() {
	t.wg.Wait()
}
