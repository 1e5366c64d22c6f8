package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

// startLoop runs l on its own goroutine and waits until it processes
// tasks. Returns a channel yielding the exit code.
func startLoop(t *testing.T, l *Loop) <-chan int {
	t.Helper()
	exit := make(chan int, 1)
	go func() { exit <- l.Run() }()

	ready := make(chan struct{})
	l.Post(func() { close(ready) })
	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not start")
	}
	return exit
}

func waitExit(t *testing.T, exit <-chan int) int {
	t.Helper()
	select {
	case code := <-exit:
		return code
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit")
		return -1
	}
}

func TestLoop_RunQuit(t *testing.T) {
	l := NewLoop(nil)
	exit := startLoop(t, l)

	l.Quit(3)
	if code := waitExit(t, exit); code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
	if l.Running() {
		t.Fatal("loop still marked running after exit")
	}

	// Quit is idempotent.
	l.Quit(9)
}

func TestLoop_PostRunsOnLoopGoroutine(t *testing.T) {
	l := NewLoop(nil)
	exit := startLoop(t, l)
	defer func() { l.Quit(0); waitExit(t, exit) }()

	onLoop := make(chan bool, 1)
	l.Post(func() { onLoop <- l.OnLoop() })

	select {
	case got := <-onLoop:
		if !got {
			t.Fatal("posted task did not run on loop goroutine")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("posted task never ran")
	}
}

func TestLoop_InvokeBlocksUntilDone(t *testing.T) {
	l := NewLoop(nil)
	exit := startLoop(t, l)
	defer func() { l.Quit(0); waitExit(t, exit) }()

	var ran atomic.Bool
	l.Invoke(func() {
		time.Sleep(20 * time.Millisecond)
		ran.Store(true)
	})
	if !ran.Load() {
		t.Fatal("Invoke returned before the task completed")
	}
}

func TestLoop_InvokeInlineOnLoop(t *testing.T) {
	l := NewLoop(nil)
	exit := startLoop(t, l)
	defer func() { l.Quit(0); waitExit(t, exit) }()

	nested := make(chan bool, 1)
	l.Invoke(func() {
		// Nested Invoke from the loop goroutine must not deadlock.
		l.Invoke(func() { nested <- l.OnLoop() })
	})

	select {
	case got := <-nested:
		if !got {
			t.Fatal("nested Invoke ran off the loop goroutine")
		}
	default:
		t.Fatal("nested Invoke never ran")
	}
}

func TestLoop_InvokeBeforeRunExecutesInline(t *testing.T) {
	l := NewLoop(nil)

	ran := false
	l.Invoke(func() { ran = true })
	if !ran {
		t.Fatal("pre-run Invoke did not execute inline")
	}
}

func TestLoop_TaskPanicDoesNotKillLoop(t *testing.T) {
	l := NewLoop(nil)
	exit := startLoop(t, l)
	defer func() { l.Quit(0); waitExit(t, exit) }()

	l.Post(func() { panic("task bug") })

	// Loop keeps serving after the panic.
	var ok atomic.Bool
	l.Invoke(func() { ok.Store(true) })
	if !ok.Load() {
		t.Fatal("loop dead after task panic")
	}
}

func TestLoop_TickEndRunsAfterEachTask(t *testing.T) {
	l := NewLoop(nil)

	var tasks, ticks atomic.Int32
	l.OnTickEnd(func() { ticks.Add(1) })

	exit := startLoop(t, l)
	defer func() { l.Quit(0); waitExit(t, exit) }()
	before := ticks.Load()

	done := make(chan struct{})
	l.Post(func() { tasks.Add(1) })
	l.Post(func() { tasks.Add(1) })
	l.Post(func() { close(done) })
	<-done

	if got := ticks.Load() - before; got < 3 {
		t.Fatalf("tick-end ran %d times for 3 tasks", got)
	}
}

func TestLoop_SecondRunRejected(t *testing.T) {
	l := NewLoop(nil)
	exit := startLoop(t, l)
	defer func() { l.Quit(0); waitExit(t, exit) }()

	if code := l.Run(); code != -1 {
		t.Fatalf("second Run returned %d, want -1", code)
	}
}
