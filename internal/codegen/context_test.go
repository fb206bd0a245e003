package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rexrecomp/internal/model"
	"rexrecomp/internal/ppc"
)

func newTestContext(cfg model.Config) *Context {
	fn := Function{Node: &model.FunctionNode{Base: 0x1000, End: 0x1100}, Cfg: cfg}
	return NewContext(fn, nil, &LocalPromotionSet{})
}

func TestPrintlnAndReset(t *testing.T) {
	ctx := newTestContext(model.Config{})
	ctx.Println("\tfoo(%d)", 1)
	ctx.Println("\tbar()")
	assert.Equal(t, "\tfoo(1)\n\tbar()\n", ctx.String())

	ctx.Reset()
	assert.Equal(t, "", ctx.String())
}

func TestRDefaultsToContextField(t *testing.T) {
	ctx := newTestContext(model.Config{})
	assert.Equal(t, "ctx.R[5]", ctx.R(5))
	assert.False(t, ctx.Promotion.GPR[5])
}

func TestRArgumentRegistersNeverPromoted(t *testing.T) {
	cfg := model.Config{NonArgumentRegistersAsLocalVariables: true}
	ctx := newTestContext(cfg)
	assert.Equal(t, "ctx.R[3]", ctx.R(3), "argument registers are never auto-promoted")
}

func TestRNonArgumentPromotion(t *testing.T) {
	cfg := model.Config{NonArgumentRegistersAsLocalVariables: true}
	ctx := newTestContext(cfg)
	assert.Equal(t, "r0", ctx.R(0))
	assert.True(t, ctx.Promotion.GPR[0])
}

func TestRNonVolatilePromotion(t *testing.T) {
	cfg := model.Config{NonVolatileRegistersAsLocalVariables: true}
	ctx := newTestContext(cfg)
	assert.Equal(t, "r20", ctx.R(20))
	assert.True(t, ctx.Promotion.GPR[20])
}

func TestCRPromotionToggle(t *testing.T) {
	ctx := newTestContext(model.Config{})
	assert.Equal(t, "ctx.CR[0]", ctx.CR(0))

	ctx = newTestContext(model.Config{CrRegistersAsLocalVariables: true})
	assert.Equal(t, "cr0", ctx.CR(0))
	assert.True(t, ctx.Promotion.CR[0])
}

func TestScratchSlotsAlwaysLocal(t *testing.T) {
	ctx := newTestContext(model.Config{})
	assert.Equal(t, "temp", ctx.Temp())
	assert.Equal(t, "vtemp", ctx.VTemp())
	assert.Equal(t, "ea", ctx.EA())
	assert.True(t, ctx.Promotion.Temp)
	assert.True(t, ctx.Promotion.VTemp)
	assert.True(t, ctx.Promotion.EA)
}

func TestMMIOBasePropagation(t *testing.T) {
	ctx := newTestContext(model.Config{})
	ctx.TagMMIOBase(11)
	assert.True(t, ctx.IsMMIOBase(11))

	ctx.PropagateMMIOBase(12, 11)
	assert.True(t, ctx.IsMMIOBase(12))

	ctx.ClearMMIOBase(11)
	assert.False(t, ctx.IsMMIOBase(11))
	assert.True(t, ctx.IsMMIOBase(12), "clearing the source must not affect a prior copy")
}

func TestMMIOCheckDFormViaTag(t *testing.T) {
	ctx := newTestContext(model.Config{})
	ctx.TagMMIOBase(9)
	assert.True(t, ctx.MMIOCheckDForm(9))
	assert.False(t, ctx.MMIOCheckDForm(10))
}

func TestMMIOCheckDFormViaFollowingEieio(t *testing.T) {
	ctx := newTestContext(model.Config{})
	ctx.Stream = []ppc.DecodedInstruction{
		{Address: 0x1000, Mnemonic: ppc.STW},
		{Address: 0x1004, Mnemonic: ppc.EIEIO},
	}
	ctx.Index = 0
	assert.True(t, ctx.MMIOCheckDForm(4))
}

func TestIsMMIOUpperBits(t *testing.T) {
	assert.True(t, IsMMIOUpperBits(0x7FC8))
	assert.True(t, IsMMIOUpperBits(0x7FCF))
	assert.True(t, IsMMIOUpperBits(0x7FEA))
	assert.False(t, IsMMIOUpperBits(0x8000))
	assert.False(t, IsMMIOUpperBits(0x7FD0))
}
