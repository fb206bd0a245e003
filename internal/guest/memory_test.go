package guest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemLoadStoreRoundTrip(t *testing.T) {
	base := make([]byte, 64)
	MemStore8(base, 0, 0xAB)
	MemStore16(base, 4, 0xBEEF)
	MemStore32(base, 8, 0xDEADBEEF)
	MemStore64(base, 16, 0x0102030405060708)

	assert.Equal(t, uint8(0xAB), MemLoad8(base, 0))
	assert.Equal(t, uint16(0xBEEF), MemLoad16(base, 4))
	assert.Equal(t, uint32(0xDEADBEEF), MemLoad32(base, 8))
	assert.Equal(t, uint64(0x0102030405060708), MemLoad64(base, 16))

	// Big-endian: MSB first at the lowest address.
	assert.Equal(t, byte(0xDE), base[8])
}

func TestMemFloatRoundTrip(t *testing.T) {
	base := make([]byte, 32)
	MemStoreF32(base, 0, 1.5)
	MemStoreF64(base, 8, -2.25)
	assert.Equal(t, float32(1.5), MemLoadF32(base, 0))
	assert.Equal(t, -2.25, MemLoadF64(base, 8))
}

func TestByteSwap(t *testing.T) {
	assert.Equal(t, uint16(0xBBAA), ByteSwap16(0xAABB))
	assert.Equal(t, uint32(0x44332211), ByteSwap32(0x11223344))
	assert.Equal(t, uint64(0x0807060504030201), ByteSwap64(0x0102030405060708))
}

func TestMemZeroCacheLine(t *testing.T) {
	base := make([]byte, 64)
	for i := range base {
		base[i] = 0xFF
	}
	MemZeroCacheLine(base, 40) // inside the second 32-byte line [32,64)
	for i := 0; i < 32; i++ {
		assert.Equal(t, byte(0xFF), base[i], "line before the target must be untouched")
	}
	for i := 32; i < 64; i++ {
		assert.Equal(t, byte(0), base[i])
	}
}

func TestMemZeroCacheLineClampsAtBufferEnd(t *testing.T) {
	base := make([]byte, 40)
	assert.NotPanics(t, func() { MemZeroCacheLine(base, 39) })
}

func TestMemCompareAndSwap32(t *testing.T) {
	base := make([]byte, 8)
	MemStore32(base, 0, 100)

	assert.False(t, MemCompareAndSwap32(base, 0, 200, 300), "mismatch must not store")
	assert.Equal(t, uint32(100), MemLoad32(base, 0))

	assert.True(t, MemCompareAndSwap32(base, 0, 100, 300))
	assert.Equal(t, uint32(300), MemLoad32(base, 0))
}

func TestPackUnpackCRRoundTrip(t *testing.T) {
	var fields [8]CRField
	fields[0] = CRField{LT: true, SO: true}
	fields[7] = CRField{EQ: true}

	packed := PackCR(&fields)
	assert.Equal(t, uint32(0x9<<28|0x2), packed)

	var out [8]CRField
	UnpackCR(&out, packed, 0xFF)
	assert.Equal(t, fields, out)
}

func TestUnpackCRRespectsMask(t *testing.T) {
	var fields [8]CRField
	packed := PackCR(&fields)
	out := [8]CRField{0: {LT: true}}
	UnpackCR(&out, packed, 0x7F) // mask excludes field 0 (MSB)
	assert.True(t, out[0].LT, "masked-out field must be left untouched")
}

func TestPackUnpackXERRoundTrip(t *testing.T) {
	x := XER{CA: true, OV: false, SO: true}
	packed := PackXER(x)
	var out XER
	UnpackXER(&out, packed)
	assert.Equal(t, x, out)
}

func TestPackUnpackFPSCRRoundTrip(t *testing.T) {
	f := FPSCR{RoundingMode: 2, FX: true, OX: true}
	packed := PackFPSCR(&f)
	var out FPSCR
	UnpackFPSCR(&out, packed)
	assert.Equal(t, f, out)
}
