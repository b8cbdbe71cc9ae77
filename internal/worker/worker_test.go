package worker

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// fakeProcessor counts runs and can block on a gate, fail, or panic.
type fakeProcessor struct {
	mu    sync.Mutex
	runs  int
	gate  chan struct{}
	fail  bool
	panic bool
}

func (f *fakeProcessor) ProcessPreview() (gocv.Mat, bool) {
	f.mu.Lock()
	f.runs++
	gate := f.gate
	fail := f.fail
	shouldPanic := f.panic
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if shouldPanic {
		panic("simulated pipeline failure")
	}
	if fail {
		return gocv.Mat{}, false
	}
	return gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3), true
}

func (f *fakeProcessor) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestDeliversResult(t *testing.T) {
	proc := &fakeProcessor{}
	w := New(proc, quietLogger())

	started := make(chan struct{}, 1)
	finished := make(chan struct{}, 1)
	w.OnStarted = func() { started <- struct{}{} }
	w.OnFinished = func(result gocv.Mat) {
		if result.Empty() {
			t.Error("delivered mat is empty")
		}
		result.Close()
		finished <- struct{}{}
	}

	w.Start(context.Background())
	defer w.Stop()

	w.Request()
	waitFor(t, started, "OnStarted")
	waitFor(t, finished, "OnFinished")
}

func TestCoalescesBurst(t *testing.T) {
	proc := &fakeProcessor{gate: make(chan struct{})}
	w := New(proc, quietLogger())

	finished := make(chan struct{}, 8)
	w.OnFinished = func(result gocv.Mat) {
		result.Close()
		finished <- struct{}{}
	}

	w.Start(context.Background())
	defer w.Stop()

	w.Request()
	// wait until the first run is blocked inside the processor
	for proc.runCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	// these all collapse into a single pending request
	for i := 0; i < 5; i++ {
		w.Request()
	}

	proc.gate <- struct{}{}
	waitFor(t, finished, "first result")
	proc.gate <- struct{}{}
	waitFor(t, finished, "coalesced result")

	// allow any stragglers to surface
	time.Sleep(50 * time.Millisecond)
	if got := proc.runCount(); got != 2 {
		t.Errorf("run count = %d, want 2 (burst coalesced into one)", got)
	}
}

func TestNoCallbackOnFailedRun(t *testing.T) {
	proc := &fakeProcessor{fail: true}
	w := New(proc, quietLogger())

	started := make(chan struct{}, 1)
	w.OnStarted = func() { started <- struct{}{} }
	w.OnFinished = func(result gocv.Mat) {
		result.Close()
		t.Error("OnFinished must not fire for a failed run")
	}

	w.Start(context.Background())
	defer w.Stop()

	w.Request()
	waitFor(t, started, "OnStarted")
	time.Sleep(50 * time.Millisecond)
}

func TestRecoversFromPanic(t *testing.T) {
	proc := &fakeProcessor{panic: true}
	w := New(proc, quietLogger())

	errored := make(chan struct{}, 1)
	finished := make(chan struct{}, 1)
	w.OnError = func(message string) {
		if message == "" {
			t.Error("error message should not be empty")
		}
		errored <- struct{}{}
	}
	w.OnFinished = func(result gocv.Mat) {
		result.Close()
		finished <- struct{}{}
	}

	w.Start(context.Background())
	defer w.Stop()

	w.Request()
	waitFor(t, errored, "OnError")

	// the loop must survive the panic and serve the next request
	proc.mu.Lock()
	proc.panic = false
	proc.mu.Unlock()
	w.Request()
	waitFor(t, finished, "recovery run")
}

func TestStopIgnoresLaterRequests(t *testing.T) {
	proc := &fakeProcessor{}
	w := New(proc, quietLogger())
	w.OnFinished = func(result gocv.Mat) { result.Close() }

	w.Start(context.Background())
	w.Stop()
	w.Stop() // idempotent

	before := proc.runCount()
	w.Request()
	time.Sleep(50 * time.Millisecond)
	if proc.runCount() != before {
		t.Error("requests after stop must be dropped")
	}
}

func TestStartTwiceIsNoOp(t *testing.T) {
	proc := &fakeProcessor{}
	w := New(proc, quietLogger())

	finished := make(chan struct{}, 4)
	w.OnFinished = func(result gocv.Mat) {
		result.Close()
		finished <- struct{}{}
	}

	ctx := context.Background()
	w.Start(ctx)
	w.Start(ctx)
	defer w.Stop()

	w.Request()
	waitFor(t, finished, "result")

	time.Sleep(50 * time.Millisecond)
	if got := proc.runCount(); got != 1 {
		t.Errorf("run count = %d, want 1 (single worker goroutine)", got)
	}
}
