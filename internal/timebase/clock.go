package timebase

import (
	"math"
	"sync/atomic"
	"time"
)

// HostSystemClock is the unscaled system clock, used for FileTime <->
// system_clock conversion and as the reference domain for Scalar.
type HostSystemClock struct{}

// Now returns the current instant in the Host domain.
func (HostSystemClock) Now() FileTime { return FromSys(time.Now()) }

// GuestSystemClock adheres to guest scaling: different speed, drifting
// relative to the host clock by the runtime-adjustable Scalar.
type GuestSystemClock struct {
	scalar    atomic.Uint64 // math.Float64bits of the scalar, default 1.0
	anchorSet atomic.Bool
	hostBase  FileTime
	guestBase FileTime
}

// NewGuestSystemClock returns a guest clock ticking at 1x host speed,
// anchored to the host clock's current instant.
func NewGuestSystemClock() *GuestSystemClock {
	c := &GuestSystemClock{}
	c.scalar.Store(math.Float64bits(1.0))
	now := HostSystemClock{}.Now()
	c.hostBase = now
	c.guestBase = now
	c.anchorSet.Store(true)
	return c
}

// Scalar returns the current guest-to-host time scalar.
func (c *GuestSystemClock) Scalar() float64 {
	return math.Float64frombits(c.scalar.Load())
}

// SetScalar adjusts the guest-to-host time scalar at runtime, re-anchoring
// so prior elapsed guest time is preserved under the old scalar.
func (c *GuestSystemClock) SetScalar(s float64) {
	now := c.Now()
	c.hostBase = HostSystemClock{}.Now()
	c.guestBase = now
	c.scalar.Store(math.Float64bits(s))
}

// Now returns the current instant in the Guest domain: host elapsed time
// since the anchor, scaled.
func (c *GuestSystemClock) Now() FileTime {
	hostNow := HostSystemClock{}.Now()
	elapsedHost := int64(hostNow) - int64(c.hostBase)
	elapsedGuest := int64(math.Floor(float64(elapsedHost) * c.Scalar()))
	return FileTime(int64(c.guestBase) + elapsedGuest)
}

// snapshotPair takes a fenced snapshot of both clocks: an acquire-release
// fence on either side of the two reads guarantees monotonic relative order
// across them, matching the source's clock_time_conversion specializations.
// sync/atomic loads stand in for std::atomic_thread_fence here since Go has
// no free-standing fence primitive; pairing every snapshot read through an
// atomic operation gives the same acquire/release ordering guarantee on the
// platforms Go supports.
func snapshotPair(guest *GuestSystemClock) (hostNow, guestNow FileTime) {
	var fence atomic.Uint64
	fence.Store(1)
	hostNow = HostSystemClock{}.Now()
	guestNow = guest.Now()
	fence.Store(2)
	return hostNow, guestNow
}

// GuestToHost converts a Guest-domain instant to the Host domain, scaling
// the delta from a fenced snapshot of both clocks unless noScaling is set.
func GuestToHost(guest *GuestSystemClock, noScaling bool, t FileTime) FileTime {
	hostNow, guestNow := snapshotPair(guest)
	delta := int64(t) - int64(guestNow)
	if !noScaling {
		delta = int64(math.Floor(float64(delta) * guest.Scalar()))
	}
	return FileTime(int64(hostNow) + delta)
}

// HostToGuest converts a Host-domain instant to the Guest domain.
func HostToGuest(guest *GuestSystemClock, noScaling bool, t FileTime) FileTime {
	hostNow, guestNow := snapshotPair(guest)
	delta := int64(t) - int64(hostNow)
	if !noScaling {
		scalar := guest.Scalar()
		if scalar != 0 {
			delta = int64(math.Floor(float64(delta) / scalar))
		}
	}
	return FileTime(int64(guestNow) + delta)
}
