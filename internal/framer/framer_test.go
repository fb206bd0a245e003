package framer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rexrecomp/internal/model"
	"rexrecomp/internal/ppc"
)

type fakeImage struct {
	words map[uint32]uint32
}

func (i fakeImage) ImageBase() uint32     { return 0x82000000 }
func (i fakeImage) ImageSize() uint32     { return 0x1000000 }
func (i fakeImage) Sections() []model.Section {
	return []model.Section{{Base: 0x82000000, Size: 0x1000000, Executable: true}}
}
func (i fakeImage) ReadWord(addr uint32) (uint32, bool) {
	w, ok := i.words[addr]
	return w, ok
}

type fakeGraph struct {
	kind      model.TargetKind
	functions map[uint32]*model.FunctionNode
	valid     bool
}

func (g fakeGraph) Functions() []*model.FunctionNode { return nil }
func (g fakeGraph) ClassifyTarget(target, from uint32, isCall bool) model.TargetKind {
	return g.kind
}
func (g fakeGraph) LookupFunction(base uint32) (*model.FunctionNode, bool) {
	fn, ok := g.functions[base]
	return fn, ok
}
func (g fakeGraph) Valid() bool { return g.valid }

// fakeDecode maps a fixed set of addresses to mnemonics so tests can build a
// tiny, deterministic instruction stream without a real decoder.
func fakeDecode(program map[uint32]ppc.DecodedInstruction) Decoder {
	return func(addr, word uint32) (ppc.DecodedInstruction, error) {
		insn, ok := program[addr]
		if !ok {
			return ppc.DecodedInstruction{}, fmt.Errorf("no fixture instruction at %#x", addr)
		}
		return insn, nil
	}
}

func TestRecompileEmptyFunctionStub(t *testing.T) {
	fn := &model.FunctionNode{Name: "sub_empty", Base: 0x1000, End: 0x1000}
	fr := New(fakeImage{}, fakeGraph{}, model.Config{}, fakeDecode(nil))
	src, err := fr.Recompile(fn)
	require.NoError(t, err)
	assert.Equal(t, "func sub_empty(ctx *guest.Context, base []byte) {}\n", src.Body)
}

func TestRecompileSimpleFunctionEmitsHeaderAndFooter(t *testing.T) {
	base := uint32(0x1000)
	program := map[uint32]ppc.DecodedInstruction{
		base:      {Address: base, Mnemonic: ppc.ADDI, Name: "addi", Operands: [5]uint32{3, 0, 1}},
		base + 4:  {Address: base + 4, Mnemonic: ppc.BLR, Name: "blr"},
	}
	fn := &model.FunctionNode{
		Name: "sub_1000", Base: base, End: base + 8,
		Blocks: []model.Block{{Base: base, End: base + 8}},
	}
	fr := New(fakeImage{words: map[uint32]uint32{base: 1, base + 4: 1}}, fakeGraph{}, model.Config{}, fakeDecode(program))

	src, err := fr.Recompile(fn)
	require.NoError(t, err)
	assert.Contains(t, src.Body, "func sub_1000(ctx *guest.Context, base []byte) {")
	assert.Contains(t, src.Body, "return")
	assert.Contains(t, src.Body, "}\n")
}

func TestRecompileEmitsLabelForBranchTarget(t *testing.T) {
	base := uint32(0x2000)
	program := map[uint32]ppc.DecodedInstruction{
		base:     {Address: base, Mnemonic: ppc.B, Name: "b", Operands: [5]uint32{base + 8}},
		base + 4: {Address: base + 4, Mnemonic: ppc.ADDI, Name: "addi", Operands: [5]uint32{3, 0, 0}},
		base + 8: {Address: base + 8, Mnemonic: ppc.BLR, Name: "blr"},
	}
	fn := &model.FunctionNode{
		Name: "sub_2000", Base: base, End: base + 12,
		Blocks: []model.Block{{Base: base, End: base + 12}},
	}
	graph := fakeGraph{kind: model.TargetInternalLabel}
	fr := New(fakeImage{words: map[uint32]uint32{base: 1, base + 4: 1, base + 8: 1}}, graph, model.Config{}, fakeDecode(program))

	src, err := fr.Recompile(fn)
	require.NoError(t, err)
	assert.Contains(t, src.Body, fmt.Sprintf("loc_%X:", base+8))
	assert.Contains(t, src.Body, fmt.Sprintf("goto loc_%X", base+8))
}

func TestRecompileWrapsSehWithDeferRecover(t *testing.T) {
	base := uint32(0x3000)
	handlerAddr := uint32(0x9000)
	program := map[uint32]ppc.DecodedInstruction{
		base: {Address: base, Mnemonic: ppc.BLR, Name: "blr"},
	}
	fn := &model.FunctionNode{
		Name: "sub_3000", Base: base, End: base + 4,
		Blocks: []model.Block{{Base: base, End: base + 4}},
		Seh: &model.SehInfo{
			Scopes: []model.SehScope{{HandlerAddress: handlerAddr}},
		},
	}
	graph := fakeGraph{functions: map[uint32]*model.FunctionNode{
		handlerAddr: {Base: handlerAddr},
	}}
	cfg := model.Config{EmitExceptionHandlers: true}
	fr := New(fakeImage{words: map[uint32]uint32{base: 1}}, graph, cfg, fakeDecode(program))

	src, err := fr.Recompile(fn)
	require.NoError(t, err)
	assert.Contains(t, src.Body, "func sub_3000(ctx *guest.Context, base []byte) {")
	assert.Contains(t, src.Body, "recover()")
	assert.Contains(t, src.Body, "sub_3000Impl(ctx, base)")
	assert.Contains(t, src.Body, fmt.Sprintf("sub_%X(ctx, base)", handlerAddr))
	assert.Contains(t, src.Body, "panic(r)")
}

func TestBuildCFGMapsBlocksByIndex(t *testing.T) {
	fn := &model.FunctionNode{
		Name: "sub_4000",
		Blocks: []model.Block{
			{Base: 0x4000, End: 0x4010},
			{Base: 0x4010, End: 0x4020},
		},
	}
	cfg := BuildCFG(fn)
	require.Len(t, cfg.Blocks, 2)
	assert.Equal(t, 0, cfg.Blocks[0].ID)
	assert.Equal(t, int(0x4000), cfg.Blocks[0].Start)
	assert.Equal(t, int(0x4020), cfg.Blocks[1].End)
}

func TestRecordFormUpdatesField(t *testing.T) {
	assert.True(t, recordFormUpdatesField("\tctx.CR[0].Compare(1, 0, false)\n", "CR[0]"))
	assert.False(t, recordFormUpdatesField("\tctx.R[3].SetU64(1)\n", "CR[0]"))
}
