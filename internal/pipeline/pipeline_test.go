package pipeline

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rexrecomp/internal/model"
)

type fakeImage struct{ words map[uint32]uint32 }

func (i fakeImage) ImageBase() uint32 { return 0x82000000 }
func (i fakeImage) ImageSize() uint32 { return 0x100000 }
func (i fakeImage) Sections() []model.Section {
	return []model.Section{{Base: 0x82000000, Size: 0x100000, Executable: true}}
}
func (i fakeImage) ReadWord(addr uint32) (uint32, bool) {
	w, ok := i.words[addr]
	return w, ok
}

type fakeGraph struct {
	functions []*model.FunctionNode
	valid     bool
}

func (g fakeGraph) Functions() []*model.FunctionNode { return g.functions }
func (g fakeGraph) ClassifyTarget(target, from uint32, isCall bool) model.TargetKind {
	return model.TargetUnknown
}
func (g fakeGraph) LookupFunction(base uint32) (*model.FunctionNode, bool) { return nil, false }
func (g fakeGraph) Valid() bool                                           { return g.valid }

func TestRecompileBlockedByInvalidGraphUnlessForced(t *testing.T) {
	graph := fakeGraph{valid: false}
	err := Recompile(model.Config{ProjectName: "game", OutputDir: t.TempDir()}, fakeImage{}, graph, false)
	require.Error(t, err)
}

func TestRecompileForceOverridesValidationGate(t *testing.T) {
	base := uint32(0x1000)
	fn := &model.FunctionNode{
		Name: "sub_1000", Base: base, End: base + 4,
		Blocks: []model.Block{{Base: base, End: base + 4}},
	}
	graph := fakeGraph{functions: []*model.FunctionNode{fn}, valid: false}
	img := fakeImage{words: map[uint32]uint32{base: 0x4E800020}} // blr
	err := Recompile(model.Config{ProjectName: "game", OutputDir: t.TempDir()}, img, graph, true)
	assert.NoError(t, err)
}

func TestRecompileWritesOutputFiles(t *testing.T) {
	base := uint32(0x1000)
	fn := &model.FunctionNode{
		Name: "sub_1000", Base: base, End: base + 4,
		Blocks: []model.Block{{Base: base, End: base + 4}},
	}
	graph := fakeGraph{functions: []*model.FunctionNode{fn}, valid: true}
	img := fakeImage{words: map[uint32]uint32{base: 0x4E800020}}
	dir := t.TempDir()

	err := Recompile(model.Config{ProjectName: "game", OutputDir: dir}, img, graph, false)
	require.NoError(t, err)

	entries, err := readDir(dir)
	require.NoError(t, err)
	assert.Contains(t, entries, "game_config.go")
	assert.Contains(t, entries, "game_function_table.go")
	assert.Contains(t, entries, "game_sources.txt")
}

func readDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
