package res

// work is the per-group FIFO task queue. All requests and out-of-band
// callbacks dispatched under the same serialization group share one work
// entry and are guaranteed to run one at a time, in arrival order, while
// still being spread across the shared worker pool between groups.
type work struct {
	s     *Service
	group string   // serialization key this queue is processing for
	queue []func() // pending callbacks, processed FIFO
}

// enqueue appends cb to the group's work queue, creating and dispatching a
// new work entry to the worker pool if the group isn't already being
// processed.
func (s *Service) enqueue(group string, cb func()) {
	s.mu.Lock()
	w, ok := s.rwork[group]
	if ok {
		w.queue = append(w.queue, cb)
		s.mu.Unlock()
		return
	}
	w = &work{s: s, group: group, queue: []func(){cb}}
	s.rwork[group] = w
	if s.metrics != nil {
		s.metrics.SetQueueDepth(len(s.rwork))
	}
	s.mu.Unlock()
	s.workCh <- w
}

// startWorker runs one worker goroutine that pulls work entries off the
// shared channel and drains each to completion before taking the next one.
func (s *Service) startWorker(ch chan *work) {
	for w := range ch {
		w.processQueue()
	}
	s.wg.Done()
}

// processQueue runs every callback queued for w.group, picking up any
// callback enqueued while a previous one was running, and removes the
// group's work entry once drained so a later enqueue starts a fresh one.
func (w *work) processQueue() {
	s := w.s
	idx := 0

	s.mu.Lock()
	for idx < len(w.queue) {
		cb := w.queue[idx]
		idx++
		s.mu.Unlock()
		cb()
		s.mu.Lock()
	}
	delete(s.rwork, w.group)
	if s.metrics != nil {
		s.metrics.SetQueueDepth(len(s.rwork))
	}
	s.mu.Unlock()
}
