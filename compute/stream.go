package compute

import (
	"sync"
)

// Stream is an ordered sequence of commands executing asynchronously with
// respect to the caller. Commands within one stream run in submission order
// on a dedicated worker goroutine; faults raised by a command are recorded
// and surfaced at the next Synchronize rather than at the submission site.
type Stream struct {
	id    int
	ctx   *Context
	tasks chan func() error
	wg    sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeOnce sync.Once
}

func newStream(id int, ctx *Context) *Stream {
	s := &Stream{
		id:    id,
		ctx:   ctx,
		tasks: make(chan func() error, streamQueueDepth),
	}
	go s.worker()
	return s
}

func (s *Stream) worker() {
	for task := range s.tasks {
		if err := task(); err != nil {
			s.errMu.Lock()
			if s.err == nil {
				s.err = err
			}
			s.errMu.Unlock()
		}
		s.wg.Done()
	}
}

// Submit records a command onto the stream. The command's error, if any, is
// held until the next Synchronize.
func (s *Stream) Submit(task func() error) {
	s.wg.Add(1)
	s.tasks <- task
}

// Synchronize blocks until every previously submitted command has completed
// and returns the first fault recorded since the last Synchronize. The fault
// is cleared once observed.
func (s *Stream) Synchronize() error {
	s.wg.Wait()
	s.errMu.Lock()
	err := s.err
	s.err = nil
	s.errMu.Unlock()
	return err
}

// ID returns the stream identifier, unique within its context.
func (s *Stream) ID() int {
	return s.id
}

func (s *Stream) close() {
	s.closeOnce.Do(func() {
		close(s.tasks)
	})
}
