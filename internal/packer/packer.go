// Package packer buckets recompiled functions into output translation
// units, emits the accompanying configuration/declarations/mapping/
// source-list files, and writes them through a content-hashing buffer that
// skips a write when the on-disk file already matches. Grounded on
// original_source/recompiler.cpp's FlushPendingWrites and the packer
// described in SPEC_FULL's translation-unit-packer module.
package packer

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"rexrecomp/internal/framer"
	"rexrecomp/internal/model"
)

// knownEmittedPackages lists the stdlib packages a builder's emitted target
// text may reference (as a qualified call inside the generated function
// body, e.g. "math.Abs(...)"), keyed by the qualifier the emitted text
// uses. The packer scans each unit's body text for these qualifiers and
// adds exactly the imports the unit actually needs — builders never import
// these into their own source, since the calls only ever appear inside the
// string literals they emit, not in this module's own code.
var knownEmittedPackages = map[string]string{
	"math.": "math",
	"fmt.":  "fmt",
}

const functionsPerFileDefault = 500

// reservedBufferSize is the OutputBuffer's initial capacity reservation,
// carried from the original's page-reservation-per-translation-unit
// strategy: append-heavy writers that never reallocate mid-file.
const reservedBufferSize = 32 << 20

// PendingWrite is one output file awaiting a flush decision.
type PendingWrite struct {
	Path    string
	Content []byte
}

// OutputBuffer is an append-only byte buffer pre-reserved to
// reservedBufferSize, sealed into a PendingWrite when the caller asks for
// it; it does not seal itself when it fills.
type OutputBuffer struct {
	buf bytes.Buffer
}

// NewOutputBuffer returns an OutputBuffer with its capacity pre-reserved.
func NewOutputBuffer() *OutputBuffer {
	ob := &OutputBuffer{}
	ob.buf.Grow(reservedBufferSize)
	return ob
}

func (ob *OutputBuffer) WriteString(s string) { ob.buf.WriteString(s) }
func (ob *OutputBuffer) Len() int              { return ob.buf.Len() }

// Seal freezes the buffer's contents as a PendingWrite for path and resets
// the buffer for reuse.
func (ob *OutputBuffer) Seal(path string) PendingWrite {
	pw := PendingWrite{Path: path, Content: append([]byte(nil), ob.buf.Bytes()...)}
	ob.buf.Reset()
	return pw
}

// FileReader abstracts reading the previous on-disk content of a path, for
// the content-hash comparison. A nil FileReader (or one that always returns
// ok=false) makes every write unconditional.
type FileReader func(path string) (content []byte, ok bool)

// FileWriter abstracts committing a PendingWrite to disk.
type FileWriter func(path string, content []byte) error

// FlushPendingWrites writes each pending file, skipping any whose content
// hash matches what's already on disk — the xxhash-based equivalent of the
// original's XXH3_128bits/XXH128_isEqual skip-write check.
func FlushPendingWrites(pending []PendingWrite, read FileReader, write FileWriter) (written, skipped int, err error) {
	for _, pw := range pending {
		if read != nil {
			if existing, ok := read(pw.Path); ok && xxhash.Sum64(existing) == xxhash.Sum64(pw.Content) {
				skipped++
				continue
			}
		}
		if err := write(pw.Path, pw.Content); err != nil {
			return written, skipped, fmt.Errorf("packer: write %s: %w", pw.Path, err)
		}
		written++
	}
	return written, skipped, nil
}

// Packer buckets a batch of recompiled functions into numbered translation
// units and produces the accompanying support files.
type Packer struct {
	ProjectName        string
	FunctionsPerFile   int
	Image              model.BinaryImage
	Config             model.Config
}

// New returns a Packer with the config's FunctionsPerTranslationUnit, or
// the default of 500 when unset.
func New(projectName string, image model.BinaryImage, cfg model.Config) *Packer {
	perFile := cfg.FunctionsPerTranslationUnit
	if perFile <= 0 {
		perFile = functionsPerFileDefault
	}
	return &Packer{ProjectName: projectName, FunctionsPerFile: perFile, Image: image, Config: cfg}
}

// Pack buckets sources into numbered translation units and returns every
// PendingWrite: the buckets themselves, the configuration header, the
// declarations header, the function-mapping table, the runtime-support
// file, and the source-list file.
func (p *Packer) Pack(sources []*framer.FunctionSource) []PendingWrite {
	sort.SliceStable(sources, func(i, j int) bool { return sources[i].Node.Base < sources[j].Node.Base })

	var pending []PendingWrite
	var sourceList []string

	unitBody := NewOutputBuffer()
	unitIndex := 0
	countInUnit := 0
	flushUnit := func() {
		if countInUnit == 0 {
			return
		}
		body := unitBody.buf.String()
		unitBody.buf.Reset()
		final := NewOutputBuffer()
		final.WriteString(p.unitPrologue(body))
		final.WriteString(body)
		path := fmt.Sprintf("%s_recomp.%d.go", p.ProjectName, unitIndex)
		pending = append(pending, final.Seal(path))
		sourceList = append(sourceList, path)
		unitIndex++
		countInUnit = 0
	}

	for _, src := range sources {
		unitBody.WriteString(src.Body)
		unitBody.WriteString("\n")
		countInUnit++
		if countInUnit >= p.FunctionsPerFile {
			flushUnit()
		}
	}
	flushUnit()

	pending = append(pending, p.configHeader())
	pending = append(pending, p.declarationsHeader(sources))
	pending = append(pending, p.functionMappingTable(sources))
	pending = append(pending, p.runtimeSupport())
	pending = append(pending, p.sourceListFile(sourceList))
	return pending
}

// unitPrologue is the package clause and import block a translation unit
// opens with: always the guest register-context package, plus whichever
// stdlib packages the unit's body text turns out to reference.
func (p *Packer) unitPrologue(body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n\nimport (\n\t\"rexrecomp/internal/guest\"\n", p.goPackageName())
	for _, pkg := range detectImports(body) {
		fmt.Fprintf(&b, "\t%q\n", pkg)
	}
	b.WriteString(")\n\n")
	return b.String()
}

func (p *Packer) goPackageName() string {
	return strings.ToLower(p.ProjectName) + "recomp"
}

// detectImports scans an already-emitted unit body for qualifiers from
// knownEmittedPackages and returns the extra stdlib packages that unit's
// generated code needs imported.
func detectImports(body string) []string {
	var extra []string
	for qualifier, pkg := range knownEmittedPackages {
		if strings.Contains(body, qualifier) {
			extra = append(extra, pkg)
		}
	}
	sort.Strings(extra)
	return extra
}

// configHeader exposes the image base, image size, code base, code size,
// and one exported boolean constant per code-generation option, true when
// the option is enabled.
func (p *Packer) configHeader() PendingWrite {
	var b bytes.Buffer
	fmt.Fprintf(&b, "package %s\n\n", p.goPackageName())
	fmt.Fprintf(&b, "const (\n")
	fmt.Fprintf(&b, "\tImageBase = 0x%X\n", p.Image.ImageBase())
	fmt.Fprintf(&b, "\tImageSize = 0x%X\n", p.Image.ImageSize())
	for _, s := range p.Image.Sections() {
		if s.Executable {
			fmt.Fprintf(&b, "\tCodeBase = 0x%X\n", s.Base)
			fmt.Fprintf(&b, "\tCodeSize = 0x%X\n", s.Size)
			break
		}
	}
	fmt.Fprintf(&b, ")\n\nconst (\n")
	for _, name := range sortedOptionNames(p.enabledOptions()) {
		fmt.Fprintf(&b, "\t%s = %t\n", name, p.enabledOptions()[name])
	}
	fmt.Fprintf(&b, ")\n")
	return PendingWrite{Path: p.ProjectName + "_config.go", Content: b.Bytes()}
}

func sortedOptionNames(opts map[string]bool) []string {
	names := make([]string, 0, len(opts))
	for name := range opts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Packer) enabledOptions() map[string]bool {
	c := p.Config
	return map[string]bool{
		"NonArgumentRegistersAsLocals": c.NonArgumentRegistersAsLocalVariables,
		"NonVolatileRegistersAsLocals": c.NonVolatileRegistersAsLocalVariables,
		"CrRegistersAsLocals":          c.CrRegistersAsLocalVariables,
		"CtrAsLocal":                   c.CtrAsLocalVariable,
		"XerAsLocal":                   c.XerAsLocalVariable,
		"ReservedAsLocal":              c.ReservedRegisterAsLocalVariable,
		"SkipLR":                       c.SkipLR,
		"SkipMSR":                      c.SkipMSR,
		"EmitExceptionHandlers":        c.EmitExceptionHandlers,
		"NoClockScaling":               c.NoClockScaling,
	}
}

// declarationsHeader emits a func-type variable per mid-asm-hook host
// function that the embedding host must assign before the first call into
// recompiled code — Go has no forward-declaration/extern syntax, so a
// nil-valued package var stands in for the linker-resolved symbol the
// original's declarations header names.
func (p *Packer) declarationsHeader(sources []*framer.FunctionSource) PendingWrite {
	var b bytes.Buffer
	fmt.Fprintf(&b, "package %s\n\nimport \"rexrecomp/internal/guest\"\n\n", p.goPackageName())
	fmt.Fprintf(&b, "// Host functions referenced by mid-asm hooks. The embedder assigns each\n")
	fmt.Fprintf(&b, "// before invoking any recompiled function that reaches its splice point.\n")
	fmt.Fprintf(&b, "var (\n")
	for _, hook := range p.Config.MidAsmHooks {
		fmt.Fprintf(&b, "\t%s func(ctx *guest.Context, base []byte)\n", hook.HostFunction)
	}
	fmt.Fprintf(&b, ")\n")
	return PendingWrite{Path: p.ProjectName + "_decl.go", Content: b.Bytes()}
}

// functionMappingTable emits a {guest_address, native} slice sorted by
// address, locals first then imports, terminated by a zero-address
// sentinel entry — the table the runtime dispatcher uses to populate its
// guest-to-native lookup.
func (p *Packer) functionMappingTable(sources []*framer.FunctionSource) PendingWrite {
	locals := make([]*framer.FunctionSource, 0, len(sources))
	imports := make([]*framer.FunctionSource, 0)
	for _, src := range sources {
		if src.Node.Authority == model.AuthorityImport {
			imports = append(imports, src)
		} else {
			locals = append(locals, src)
		}
	}
	sortByAddress := func(list []*framer.FunctionSource) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Node.Base < list[j].Node.Base })
	}
	sortByAddress(locals)
	sortByAddress(imports)

	var b bytes.Buffer
	fmt.Fprintf(&b, "package %s\n\nimport \"rexrecomp/internal/guest\"\n\n", p.goPackageName())
	fmt.Fprintf(&b, "type FunctionMapping struct {\n\tGuestAddress uint32\n\tNative       func(ctx *guest.Context, base []byte)\n}\n\n")
	fmt.Fprintf(&b, "var FunctionTable = []FunctionMapping{\n")
	for _, src := range append(locals, imports...) {
		fmt.Fprintf(&b, "\t{GuestAddress: 0x%X, Native: %s},\n", src.Node.Base, functionSymbol(src.Node))
	}
	fmt.Fprintf(&b, "\t{GuestAddress: 0, Native: nil},\n}\n")
	return PendingWrite{Path: p.ProjectName + "_function_table.go", Content: b.Bytes()}
}

// runtimeSupport emits callIndirect and debugTrap, the two by-address call
// helpers every translation unit's builders reference but which can't live
// in internal/guest: callIndirect resolves against FunctionTable, and
// FunctionTable is package-local to this batch's output, not shared state
// guest can see.
func (p *Packer) runtimeSupport() PendingWrite {
	var b bytes.Buffer
	fmt.Fprintf(&b, "package %s\n\nimport (\n\t\"fmt\"\n\n\t\"rexrecomp/internal/guest\"\n)\n\n", p.goPackageName())
	b.WriteString("// callIndirect looks up target in FunctionTable and calls through to the\n")
	b.WriteString("// matching native function, for branches whose target the recompiler could\n")
	b.WriteString("// not resolve statically (bctr/bctrl with no attached jump table).\n")
	b.WriteString("func callIndirect(ctx *guest.Context, base []byte, target uint32) {\n")
	b.WriteString("\tfor _, m := range FunctionTable {\n")
	b.WriteString("\t\tif m.GuestAddress == target {\n")
	b.WriteString("\t\t\tm.Native(ctx, base)\n")
	b.WriteString("\t\t\treturn\n")
	b.WriteString("\t\t}\n")
	b.WriteString("\t}\n")
	b.WriteString("\tpanic(fmt.Sprintf(\"callIndirect: no native function at 0x%X\", target))\n")
	b.WriteString("}\n\n")
	b.WriteString("// debugTrap is the deliberate breakpoint for instruction sequences that are\n")
	b.WriteString("// never legitimately reachable in well-formed guest code, such as blrl.\n")
	b.WriteString("func debugTrap() {\n")
	b.WriteString("\tpanic(\"debugTrap: unreachable guest instruction sequence\")\n")
	b.WriteString("}\n")
	return PendingWrite{Path: p.ProjectName + "_runtime.go", Content: b.Bytes()}
}

func (p *Packer) sourceListFile(sourceList []string) PendingWrite {
	var b bytes.Buffer
	for _, name := range sourceList {
		fmt.Fprintf(&b, "%s\n", name)
	}
	return PendingWrite{Path: p.ProjectName + "_sources.txt", Content: b.Bytes()}
}

func functionSymbol(fn *model.FunctionNode) string {
	if fn.Name != "" {
		return fn.Name
	}
	return fmt.Sprintf("sub_%X", fn.Base)
}
