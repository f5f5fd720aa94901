package racer

import "golang.org/x/sync/errgroup"

// Group tracks a set of tasks submitted to one queue. Tasks may submit more
// tasks to the group while it is being waited on.
type Group struct {
	q  *Queue
	eg errgroup.Group
}

// Group returns an empty group submitting to q.
func (q *Queue) Group() *Group { return &Group{q: q} }

// Async submits task as part of the group.
func (g *Group) Async(task func()) {
	g.Go(func() error {
		task()
		return nil
	})
}

// Go submits task as part of the group. The first error returned by any
// task is returned by Wait.
func (g *Group) Go(task func() error) {
	if g.q.serial {
		done := make(chan error, 1)
		g.q.enqueue(func() { done <- task() })
		g.eg.Go(func() error { return <-done })
		return
	}

	var err error
	run := g.q.admit(func() { err = task() })
	g.eg.Go(func() error {
		run()
		return err
	})
}

// Wait blocks until every task of the group, including ones submitted by
// other tasks of the group, has returned.
func (g *Group) Wait() error { return g.eg.Wait() }

// Wait calls build with a function that dispatches tasks to the Global
// queue, then waits for every dispatched task to return. Tasks may dispatch
// further tasks with the same function.
func Wait(build func(dispatch func(task func()))) {
	g := Global().Group()
	build(g.Async)
	_ = g.Wait()
}

// WaitErr is like Wait for tasks that may fail. It returns the first error
// any task returned, after all of them have finished.
func WaitErr(build func(dispatch func(task func() error))) error {
	g := Global().Group()
	build(g.Go)
	return g.Wait()
}
