package builders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rexrecomp/internal/codegen"
	"rexrecomp/internal/model"
	"rexrecomp/internal/ppc"
)

// stubGraph is a minimal model.FunctionGraph for exercising builders that
// classify branch targets without needing a real function-discovery pass.
type stubGraph struct {
	kind      model.TargetKind
	functions map[uint32]*model.FunctionNode
}

func (g stubGraph) Functions() []*model.FunctionNode { return nil }
func (g stubGraph) ClassifyTarget(target, from uint32, isCall bool) model.TargetKind {
	return g.kind
}
func (g stubGraph) LookupFunction(base uint32) (*model.FunctionNode, bool) {
	fn, ok := g.functions[base]
	return fn, ok
}
func (g stubGraph) Valid() bool { return true }

func newTestContext(insn ppc.DecodedInstruction, cfg model.Config, graph model.FunctionGraph) *codegen.Context {
	fn := codegen.Function{Node: &model.FunctionNode{Base: 0x1000, End: 0x2000}, Cfg: cfg}
	ctx := codegen.NewContext(fn, graph, &codegen.LocalPromotionSet{})
	ctx.Insn = insn
	ctx.Base = insn.Address
	ctx.Stream = []ppc.DecodedInstruction{insn}
	ctx.Index = 0
	return ctx
}

func TestBuildAddEmitsSum(t *testing.T) {
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.ADD, Operands: [5]uint32{3, 4, 5}}
	ctx := newTestContext(insn, model.Config{}, stubGraph{})
	ok := buildAdd(ctx)
	require.True(t, ok)
	assert.Contains(t, ctx.String(), "ctx.R[3].SetU64(uint64(ctx.R[4].S64() + ctx.R[5].S64()))")
}

func TestBuildAddRecordFormEmitsCR0(t *testing.T) {
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.ADD, Operands: [5]uint32{3, 4, 5}, RecordForm: true}
	ctx := newTestContext(insn, model.Config{}, stubGraph{})
	buildAdd(ctx)
	assert.Contains(t, ctx.String(), "ctx.CR[0].Compare(")
}

func TestBuildAddiZeroRegisterIsLiteral(t *testing.T) {
	negOne := int32(-1)
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.ADDI, Operands: [5]uint32{3, 0, uint32(negOne)}}
	ctx := newTestContext(insn, model.Config{}, stubGraph{})
	buildAddi(ctx)
	assert.Contains(t, ctx.String(), "SetS64(int64(-1))")
}

func TestBuildLoadDFormSignExtends(t *testing.T) {
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.LHA, Operands: [5]uint32{3, 4, 8}}
	ctx := newTestContext(insn, model.Config{}, stubGraph{})
	buildLoadDForm(16, true)(ctx)
	assert.Contains(t, ctx.String(), "int16")
	assert.Contains(t, ctx.String(), "MemLoad16")
}

func TestBuildStoreDFormPicksMMIOVariant(t *testing.T) {
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.STW, Operands: [5]uint32{3, 4, 0}}
	ctx := newTestContext(insn, model.Config{}, stubGraph{})
	ctx.TagMMIOBase(4)
	buildStoreDForm(32)(ctx)
	assert.Contains(t, ctx.String(), "MemMMIOStore32")
}

func TestBuildStoreDFormPicksNormalVariant(t *testing.T) {
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.STW, Operands: [5]uint32{3, 4, 0}}
	ctx := newTestContext(insn, model.Config{}, stubGraph{})
	buildStoreDForm(32)(ctx)
	assert.Contains(t, ctx.String(), "MemStore32")
	assert.NotContains(t, ctx.String(), "MMIO")
}

func TestBuildBInternalLabelEmitsGoto(t *testing.T) {
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.B, Operands: [5]uint32{0x1040}}
	ctx := newTestContext(insn, model.Config{}, stubGraph{kind: model.TargetInternalLabel})
	buildB(ctx)
	assert.Equal(t, "\tgoto loc_1040\n", ctx.String())
}

func TestBuildBResolvedFunctionEmitsCallAndReturn(t *testing.T) {
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.B, Operands: [5]uint32{0x5000}}
	ctx := newTestContext(insn, model.Config{}, stubGraph{kind: model.TargetFunction})
	buildB(ctx)
	out := ctx.String()
	assert.Contains(t, out, "sub_5000(ctx, base)")
	assert.Contains(t, out, "return")
	assert.NotContains(t, out, "ctx.LR", "an unlinked branch must never set LR")
}

func TestBuildBlSetsLRAndCallsTarget(t *testing.T) {
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.BL, Operands: [5]uint32{0x5000}}
	ctx := newTestContext(insn, model.Config{}, stubGraph{kind: model.TargetFunction})
	buildBl(ctx)
	out := ctx.String()
	assert.Contains(t, out, "ctx.LR = 0x1004")
	assert.Contains(t, out, "sub_5000(ctx, base)")
	assert.Equal(t, codegen.CSRUnknown, ctx.CSR)
}

func TestBuildBlSkipLRHonored(t *testing.T) {
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.BL, Operands: [5]uint32{0x5000}}
	ctx := newTestContext(insn, model.Config{SkipLR: true}, stubGraph{kind: model.TargetFunction})
	buildBl(ctx)
	assert.NotContains(t, ctx.String(), "ctx.LR")
}

func TestBuildBlrReturns(t *testing.T) {
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.BLR}
	ctx := newTestContext(insn, model.Config{}, stubGraph{})
	buildBlr(ctx)
	assert.Equal(t, "\treturn\n", ctx.String())
}

func TestBuildBctrWithJumpTableEmitsSwitch(t *testing.T) {
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.BCTR}
	ctx := newTestContext(insn, model.Config{}, stubGraph{})
	ctx.Fn.Node.JumpTables = []model.JumpTable{
		{BranchAddress: 0x1000, IndexRegister: 5, Targets: []uint32{0x1010, 0x1020}},
	}
	buildBctr(ctx)
	out := ctx.String()
	assert.Contains(t, out, "switch ctx.R[5].U32()")
	assert.Contains(t, out, "goto loc_1010")
	assert.Contains(t, out, "goto loc_1020")
}

func TestBuildBctrWithoutJumpTableFallsBackToIndirectCall(t *testing.T) {
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.BCTR}
	ctx := newTestContext(insn, model.Config{}, stubGraph{})
	buildBctr(ctx)
	assert.Contains(t, ctx.String(), "callIndirect(ctx, base,")
}

func TestDispatchMissEmitsRuntimeTrap(t *testing.T) {
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.MnemonicUnknown, Name: "??"}
	ctx := newTestContext(insn, model.Config{}, stubGraph{})
	Dispatch(ctx)
	out := ctx.String()
	assert.Contains(t, out, "unimplemented")
	assert.Contains(t, out, "panic(")
}

func TestDispatchHitDelegatesToBuilder(t *testing.T) {
	insn := ppc.DecodedInstruction{Address: 0x1000, Mnemonic: ppc.NOP}
	ctx := newTestContext(insn, model.Config{}, stubGraph{})
	Dispatch(ctx)
	assert.Contains(t, ctx.String(), "nop")
}

func TestComputeMaskSimpleRange(t *testing.T) {
	assert.Equal(t, uint32(0xFFFFFFFF), computeMask(0, 31))
	assert.Equal(t, uint32(0x0000FFFF), computeMask(16, 31))
	assert.Equal(t, uint32(0xFF000000), computeMask(0, 7))
}

func TestComputeMaskWrapCase(t *testing.T) {
	// mstart > mstop wraps around: the mask covers everything except the
	// bits stop+1 through start-1 inclusive.
	assert.Equal(t, ^uint32(0x00FFFF00), computeMask(24, 7))
}
