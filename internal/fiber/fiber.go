// Package fiber implements the cooperative context-switch primitive
// recompiled code depends on when a guest thread switches fibers
// mid-function. The source's ucontext_t/swapcontext backend has no portable
// Go equivalent, so this is rendered as a goroutine per fiber, with an
// unbuffered channel standing in for swapcontext's synchronous hand-off:
// SwitchTo blocks the caller until something later switches back to it, and
// at most one fiber's goroutine is ever unblocked at a time, which is the
// same "one running fiber at a time" invariant the source's thread-local
// tls_current_ enforces. Only the goroutine that calls ConvertCurrentThread
// is locked to its OS thread; the goroutines of created fibers are not
// pinned and may run on other OS threads.
package fiber

import "runtime"

// Fiber is a suspended unit of execution with an associated goroutine
// standing in for the native stack. Destroying a fiber that is running is
// undefined, mirroring the source's contract.
type Fiber struct {
	resume        chan struct{}
	entry         func()
	isThreadFiber bool
	started       bool
	destroyed     bool
}

// current stands in for the thread-local "currently running fiber" pointer;
// it is one package-level variable shared by every goroutine. It is safe
// without synchronization because exactly one fiber's goroutine is ever
// runnable at a time: every other fiber's goroutine sits blocked on a
// channel receive, so accesses to current never race in practice, matching
// the "single OS thread owns the fiber set" assumption this primitive makes.
var current *Fiber

// ConvertCurrentThread promotes the calling goroutine into a fiber and locks
// it to its OS thread for the lifetime of the fiber set, since real fiber
// semantics require the running fiber to stay put on one OS thread. Must be
// called once before any SwitchTo.
func ConvertCurrentThread() *Fiber {
	runtime.LockOSThread()
	f := &Fiber{
		resume:        make(chan struct{}),
		isThreadFiber: true,
		started:       true,
	}
	current = f
	return f
}

// Create allocates a new fiber that will run entry() when first switched to.
// stackSize is accepted for parity with the native signature but unused —
// goroutine stacks grow on demand and are not caller-sized.
func Create(stackSize int, entry func()) *Fiber {
	_ = stackSize
	return &Fiber{
		resume: make(chan struct{}),
		entry:  entry,
	}
}

// Current returns the fiber currently executing on this thread, or nil if
// no fiber has been established yet.
func Current() *Fiber { return current }

// SwitchTo suspends the calling fiber and resumes target, returning only
// when some other fiber later calls SwitchTo back to the caller.
func SwitchTo(target *Fiber) {
	from := current
	current = target

	if !target.started {
		target.started = true
		go func() {
			target.entry()
			// entry fell through instead of switching back explicitly;
			// nothing to hand control to, so this fiber's goroutine ends.
		}()
	} else {
		target.resume <- struct{}{}
	}

	<-from.resume
}

// Destroy releases the fiber. Calling it on the running fiber is an error
// per the primitive's contract and is not itself detected here, matching
// the source's assert-only enforcement in debug builds.
func (f *Fiber) Destroy() {
	f.destroyed = true
	if current == f {
		current = nil
	}
}
