// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import (
	"sync"
)

// dispatcher runs the completions of asynchronous exchanges one at a time,
// in arrival order, on a single goroutine.
type dispatcher struct {
	once    sync.Once
	queue   chan func()
	stop    chan struct{}
	stopped sync.Once
	loop    sync.WaitGroup
	pending sync.WaitGroup
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		queue: make(chan func(), 64),
		stop:  make(chan struct{}),
	}
}

func (d *dispatcher) start() {
	d.once.Do(func() {
		d.loop.Add(1)
		go func() {
			defer d.loop.Done()
			for {
				select {
				case <-d.stop:
					return
				case fn := <-d.queue:
					fn()
				}
			}
		}()
	})
}

// hold registers one completion that a later run will deliver. Callers that
// race with wait must hold under the same lock that gates wait.
func (d *dispatcher) hold() {
	d.start()
	d.pending.Add(1)
}

// release drops a hold that will never be run.
func (d *dispatcher) release() {
	d.pending.Done()
}

// spawn holds and runs exchange.
func (d *dispatcher) spawn(exchange func() func()) {
	d.hold()
	d.run(exchange)
}

// run executes exchange on its own goroutine and queues the completion it
// returns. Each run consumes one hold.
func (d *dispatcher) run(exchange func() func()) {
	go func() {
		complete := exchange()
		done := func() {
			defer d.pending.Done()
			complete()
		}
		select {
		case d.queue <- done:
		case <-d.stop:
			d.pending.Done()
		}
	}()
}

// wait blocks until every spawned completion has run.
func (d *dispatcher) wait() {
	d.pending.Wait()
}

func (d *dispatcher) close() {
	d.stopped.Do(func() { close(d.stop) })
	d.loop.Wait()
}
