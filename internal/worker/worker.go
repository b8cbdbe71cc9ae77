// Package worker keeps preview pipeline execution off the interactive thread.
//
// A single long-lived goroutine services a request channel of capacity one:
// a request arriving while one is already pending is coalesced into it, so a
// burst of parameter changes produces as few as one run, always reflecting
// the latest state. There is at most one pipeline execution in flight.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// PreviewProcessor is the slice of the processor the worker drives.
type PreviewProcessor interface {
	ProcessPreview() (gocv.Mat, bool)
}

const stopTimeout = 3 * time.Second

// Worker executes preview runs in the background and reports through
// callbacks. Callbacks are invoked from the worker goroutine; set them
// before Start.
type Worker struct {
	processor PreviewProcessor
	logger    *logrus.Logger

	requests chan struct{}
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
	stopped  atomic.Bool

	// OnStarted fires before each run, OnFinished delivers the result (the
	// receiver owns the mat), OnError reports a recovered pipeline failure.
	OnStarted  func()
	OnFinished func(gocv.Mat)
	OnError    func(message string)
}

func New(processor PreviewProcessor, logger *logrus.Logger) *Worker {
	return &Worker{
		processor: processor,
		logger:    logger,
		requests:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Start launches the worker goroutine. Starting twice is a no-op.
func (w *Worker) Start(ctx context.Context) {
	if w.started {
		return
	}
	w.started = true

	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)
}

// Request schedules a preview run. Non-blocking: a request that finds one
// already pending is coalesced into it.
func (w *Worker) Request() {
	if w.stopped.Load() {
		return
	}
	select {
	case w.requests <- struct{}{}:
	default:
	}
}

// Stop halts the worker loop and drops any result still undelivered. A run
// already in flight completes; it is not interrupted.
func (w *Worker) Stop() {
	if !w.started || w.stopped.Swap(true) {
		return
	}
	w.cancel()

	select {
	case <-w.done:
	case <-time.After(stopTimeout):
		w.logger.Warn("Processing worker did not stop in time")
	}
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.requests:
		}
		w.process()
	}
}

func (w *Worker) process() {
	defer func() {
		if r := recover(); r != nil {
			w.logger.WithField("panic", r).Error("Preview pipeline panicked")
			if w.OnError != nil {
				w.OnError(fmt.Sprintf("preview processing failed: %v", r))
			}
		}
	}()

	if w.OnStarted != nil {
		w.OnStarted()
	}

	result, ok := w.processor.ProcessPreview()
	if !ok {
		return
	}
	if w.stopped.Load() || w.OnFinished == nil {
		result.Close()
		return
	}
	w.OnFinished(result)
}
