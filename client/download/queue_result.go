package download

import (
	"context"
)

// Result tracks one download started on a [Queue].
type Result struct {
	done   chan struct{}
	err    error
	cancel context.CancelFunc
	queue  *Queue
}

// Done is closed once the download has finished, successfully or not.
func (r *Result) Done() <-chan struct{} { return r.done }

// Err waits for the download and returns its outcome.
func (r *Result) Err() error {
	<-r.done
	return r.err
}

// Wait waits for every download on the same queue. See [Queue.Wait].
func (r *Result) Wait() error { return r.queue.Wait() }

// Queue returns the queue the download runs on, for adding more work to
// the same batch.
func (r *Result) Queue() *Queue { return r.queue }

// Cancel stops the download. The destination is left as it was.
func (r *Result) Cancel() { r.cancel() }
