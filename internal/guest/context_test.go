package guest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterWidthViews(t *testing.T) {
	var r Register
	r.SetU64(0xFFFFFFFFFFFFFFFE)
	assert.Equal(t, uint8(0xFE), r.U8())
	assert.Equal(t, uint16(0xFFFE), r.U16())
	assert.Equal(t, uint32(0xFFFFFFFE), r.U32())
	assert.Equal(t, int8(-2), r.S8())
	assert.Equal(t, int32(-2), r.S32())
	assert.Equal(t, int64(-2), r.S64())
}

func TestRegisterSetS32SignExtends(t *testing.T) {
	var r Register
	r.SetS32(-1)
	assert.Equal(t, uint64(0xFFFFFFFFFFFFFFFF), r.U64())
	assert.Equal(t, int64(-1), r.S64())
}

func TestRegisterFloatRoundTrip(t *testing.T) {
	var r Register
	r.SetF64(3.5)
	assert.Equal(t, 3.5, r.F64())
}

func TestVector128LaneRoundTrip(t *testing.T) {
	var v Vector128
	v.SetF32(1, 2.5)
	assert.Equal(t, float32(2.5), v.F32(1))
	assert.Equal(t, uint32(0), v.Lanes[0])
}

func TestCRFieldCompare(t *testing.T) {
	var f CRField
	f.Compare(1, 2, false)
	assert.True(t, f.LT)
	assert.False(t, f.GT)
	assert.False(t, f.EQ)

	f.CompareUnsigned(5, 5, true)
	assert.True(t, f.EQ)
	assert.True(t, f.SO)
}

func TestCRFieldSetFromFloatOrdered(t *testing.T) {
	var f CRField
	f.SetFromFloat(1.0, 2.0)
	assert.True(t, f.LT)
	assert.False(t, f.SO)
}

func TestCRFieldSetFromFloatUnordered(t *testing.T) {
	var f CRField
	f.SetFromFloat(math.NaN(), 1.0)
	assert.False(t, f.LT)
	assert.False(t, f.GT)
	assert.False(t, f.EQ)
	assert.True(t, f.SO)
}

func TestCRFieldBitAndSetBit(t *testing.T) {
	var f CRField
	f.SetBit(0, true)
	f.SetBit(3, true)
	assert.True(t, f.Bit(0))
	assert.True(t, f.Bit(3))
	assert.False(t, f.Bit(1))
}

func TestXERSetOVIsSticky(t *testing.T) {
	var x XER
	x.SetOV(true)
	assert.True(t, x.OV)
	assert.True(t, x.SO)

	x.SetOV(false)
	assert.False(t, x.OV)
	assert.True(t, x.SO, "SO must stay set once raised")
}

func TestContextCR0(t *testing.T) {
	var ctx Context
	ctx.CR0().EQ = true
	assert.True(t, ctx.CR[0].EQ)
}
