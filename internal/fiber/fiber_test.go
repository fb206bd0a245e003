package fiber

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBasicContextSwitch mirrors the source's counting-fiber scenario: two
// round-trips through SwitchTo increment a shared counter to 2, with each
// resume continuing exactly where the fiber last yielded.
func TestBasicContextSwitch(t *testing.T) {
	count := 0
	var main *Fiber
	f := Create(256*1024, func() {
		count++ // first resume
		SwitchTo(main)
		count++ // second resume
		SwitchTo(main)
	})
	main = ConvertCurrentThread()

	require.Equal(t, 0, count)
	SwitchTo(f)
	require.Equal(t, 1, count)
	SwitchTo(f)
	require.Equal(t, 2, count)

	f.Destroy()
	main.Destroy()
}

func TestCurrentTracksActiveFiber(t *testing.T) {
	main := ConvertCurrentThread()
	require.Equal(t, main, Current())

	var seenInside *Fiber
	f := Create(4096, func() {
		seenInside = Current()
		SwitchTo(main)
	})
	SwitchTo(f)
	require.Equal(t, f, seenInside)
	require.Equal(t, main, Current())

	f.Destroy()
	main.Destroy()
}
