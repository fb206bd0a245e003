// Package framer orchestrates the recompilation of one guest function into
// one native Go function body: label discovery, per-instruction dispatch,
// record-form post-emit validation, structured-exception wrapping, and
// local-variable declaration emission. Grounded on original_source's
// BuilderContext-driving recompiler.cpp and control_flow.cpp, generalized
// to this module's Go-native output.
package framer

import (
	"fmt"
	"strings"

	"github.com/zboralski/lattice"

	"rexrecomp/internal/codegen"
	"rexrecomp/internal/codegen/builders"
	"rexrecomp/internal/model"
	"rexrecomp/internal/ppc"
	"rexrecomp/internal/rexlog"
)

// Decoder resolves a guest instruction word into its decoded form; supplied
// by internal/ppc.Decode in production, mocked in tests.
type Decoder func(addr, word uint32) (ppc.DecodedInstruction, error)

// Framer holds the collaborators needed to recompile a batch of functions
// against one binary image and one function graph.
type Framer struct {
	Image   model.BinaryImage
	Graph   model.FunctionGraph
	Config  model.Config
	Decode  Decoder
	Log     *rexlog.Logger
}

// New returns a Framer with rexlog.Default() as its logger.
func New(image model.BinaryImage, graph model.FunctionGraph, cfg model.Config, decode Decoder) *Framer {
	return &Framer{Image: image, Graph: graph, Config: cfg, Decode: decode, Log: rexlog.Default()}
}

// FunctionSource is the emitted body of one recompiled function, plus the
// promotion set the packer's declaration emitter needs to declare locals.
type FunctionSource struct {
	Node      *model.FunctionNode
	Body      string
	Promotion *codegen.LocalPromotionSet
}

// decodeFunction reads and decodes every instruction word covered by the
// function's blocks, in address order.
func (fr *Framer) decodeFunction(fn *model.FunctionNode) ([]ppc.DecodedInstruction, error) {
	var stream []ppc.DecodedInstruction
	for _, blk := range fn.Blocks {
		for addr := blk.Base; addr < blk.End; addr += 4 {
			word, ok := fr.Image.ReadWord(addr)
			if !ok {
				return nil, fmt.Errorf("framer: read word at %#x: outside executable section", addr)
			}
			insn, err := fr.Decode(addr, word)
			if err != nil {
				fr.Log.Warn("undecodable word at %#x: %v", addr, err)
				insn = ppc.DecodedInstruction{Address: addr, Raw: word, Mnemonic: ppc.MnemonicUnknown, Name: "?"}
			}
			stream = append(stream, insn)
		}
	}
	return stream, nil
}

// BuildCFG assembles the function's blocks into a lattice.FuncCFG. Used by
// internal/diagnostics for its optional DOT dump of a function's recompiled
// control flow; the framer itself walks the instruction stream directly.
func BuildCFG(fn *model.FunctionNode) *lattice.FuncCFG {
	cfg := &lattice.FuncCFG{Name: fn.Name}
	for i, blk := range fn.Blocks {
		cfg.Blocks = append(cfg.Blocks, &lattice.BasicBlock{
			ID:    i,
			Start: int(blk.Base),
			End:   int(blk.End),
		})
	}
	return cfg
}

// discoverLabels runs Pass 1: every branch target that stays inside the
// function, every switch-table target, and every within-function mid-asm
// hook jump target becomes a label.
func (fr *Framer) discoverLabels(fn *model.FunctionNode, stream []ppc.DecodedInstruction) map[uint32]bool {
	labels := make(map[uint32]bool)
	isBranch := func(m ppc.Mnemonic) bool {
		switch m {
		case ppc.B, ppc.BL, ppc.BC, ppc.BCL:
			return true
		}
		return false
	}
	for _, insn := range stream {
		if !isBranch(insn.Mnemonic) {
			continue
		}
		target := insn.Operands[0]
		if insn.Mnemonic == ppc.BC || insn.Mnemonic == ppc.BCL {
			target = insn.Operands[2]
		}
		if fr.Graph.ClassifyTarget(target, insn.Address, false) == model.TargetInternalLabel {
			labels[target] = true
		} else if target >= fn.Base && target < fn.End {
			labels[target] = true
		}
	}
	for _, jt := range fn.JumpTables {
		for _, target := range jt.Targets {
			if target >= fn.Base && target < fn.End {
				labels[target] = true
			}
		}
	}
	for _, hook := range fr.Config.MidAsmHooks {
		if hook.ControlFlow == model.HookFlowJump || hook.ControlFlow == model.HookFlowJumpIfTrue {
			if hook.JumpTarget >= fn.Base && hook.JumpTarget < fn.End {
				labels[hook.JumpTarget] = true
			}
		}
	}
	return labels
}

// recordFormUpdatesField reports whether the just-emitted fragment
// references the field the instruction's record form should have updated —
// a purely textual, local safety check per Pass 2's validation step.
func recordFormUpdatesField(fragment string, field string) bool {
	return strings.Contains(fragment, field)
}

// functionName resolves the emitted symbol name: the FunctionNode's own
// name when set, else a synthesized sub_<hex>.
func functionName(fn *model.FunctionNode) string {
	if fn.Name != "" {
		return fn.Name
	}
	return fmt.Sprintf("sub_%X", fn.Base)
}

// declareLocals emits one var statement per bit set in promotion, in
// register-index order, so every local a builder referenced is declared
// before the body that references it.
func declareLocals(promotion *codegen.LocalPromotionSet) string {
	var b strings.Builder
	for i, set := range promotion.GPR {
		if set {
			fmt.Fprintf(&b, "\tvar r%d guest.Register\n", i)
		}
	}
	for i, set := range promotion.FPR {
		if set {
			fmt.Fprintf(&b, "\tvar f%d guest.Register\n", i)
		}
	}
	for i, set := range promotion.VR {
		if set {
			fmt.Fprintf(&b, "\tvar v%d guest.Vector128\n", i)
		}
	}
	for i, set := range promotion.CR {
		if set {
			fmt.Fprintf(&b, "\tvar cr%d guest.CRField\n", i)
		}
	}
	if promotion.CTR {
		b.WriteString("\tvar ctr guest.Register\n")
	}
	if promotion.XER {
		b.WriteString("\tvar xer guest.XER\n")
	}
	if promotion.Reserved {
		b.WriteString("\tvar reserved uint32\n")
	}
	if promotion.Reserved64 {
		b.WriteString("\tvar reserved64 uint64\n")
	}
	if promotion.Temp {
		b.WriteString("\tvar temp uint64\n")
	}
	if promotion.VTemp {
		b.WriteString("\tvar vtemp guest.Vector128\n")
	}
	if promotion.EA {
		b.WriteString("\tvar ea uint32\n")
	}
	return b.String()
}

// Recompile runs both passes for one function and returns its emitted body.
func (fr *Framer) Recompile(fn *model.FunctionNode) (*FunctionSource, error) {
	stream, err := fr.decodeFunction(fn)
	if err != nil {
		return nil, err
	}

	if len(fn.Blocks) == 0 {
		return fr.emptyFunctionStub(fn), nil
	}

	labels := fr.discoverLabels(fn, stream)

	promotion := &codegen.LocalPromotionSet{}
	fnCtx := codegen.Function{Node: fn, Cfg: fr.Config}

	// Pass 2 emits into a scratch buffer first: the set of promoted locals
	// isn't known until every instruction has run, but their declarations
	// must precede the body that uses them.
	var scratch strings.Builder

	// One context spans the whole body so the CSR state and MMIO base tags
	// carry from one instruction to the next; Reset drops only the text.
	ctx := codegen.NewContext(fnCtx, fr.Graph, promotion)
	ctx.Stream = stream
	for i := range stream {
		insn := stream[i]
		if labels[insn.Address] {
			scratch.WriteString(fmt.Sprintf("loc_%X:\n", insn.Address))
		}

		ctx.Reset()
		ctx.Insn = insn
		ctx.Base = insn.Address
		ctx.Index = i
		if labels[insn.Address] {
			ctx.CSR = codegen.CSRUnknown
		}

		builders.Dispatch(ctx)
		fragment := ctx.String()

		if insn.IsRecordForm() && !recordFormUpdatesField(fragment, "CR[0]") && !recordFormUpdatesField(fragment, "cr0") {
			fr.Log.Warn("record-form instruction %s at %#x produced no CR0 reference", insn.Name, insn.Address)
		}

		scratch.WriteString(fragment)
	}

	name := functionName(fn)
	var body strings.Builder
	body.WriteString(fmt.Sprintf("func %s(ctx *guest.Context, base []byte) {\n", name))
	body.WriteString(declareLocals(promotion))
	body.WriteString(scratch.String())
	body.WriteString("}\n")

	src := body.String()
	if fn.Seh != nil && fr.Config.EmitExceptionHandlers {
		src = fr.wrapSeh(fn, src)
	}

	return &FunctionSource{Node: fn, Body: src, Promotion: promotion}, nil
}

// wrapSeh encloses the already-emitted body in a deferred recover block
// that calls each finally handler in reverse scope order, optionally invokes
// the restore helper, then re-panics — the Go rendering of the original's
// try/catch-all-and-reraise. The recover block does not re-establish the
// frame-pointer register before calling the handlers.
func (fr *Framer) wrapSeh(fn *model.FunctionNode, src string) string {
	name := functionName(fn)
	var finallyCalls strings.Builder
	scopes := fn.Seh.Scopes
	for i := len(scopes) - 1; i >= 0; i-- {
		s := scopes[i]
		if handler, ok := fr.Graph.LookupFunction(s.HandlerAddress); ok {
			finallyCalls.WriteString(fmt.Sprintf("\t\t\tsub_%X(ctx, base)\n", handler.Base))
		}
	}
	restore := ""
	if fn.Seh.HasRestoreHelper {
		restore = fmt.Sprintf("\t\t\tsub_%X(ctx, base)\n", fn.Seh.RestoreHelperAddress)
	}
	return fmt.Sprintf(`func %s(ctx *guest.Context, base []byte) {
	defer func() {
		if r := recover(); r != nil {
%s%s			panic(r)
		}
	}()
	%sImpl(ctx, base)
}

%s`, name, finallyCalls.String(), restore, name, strings.Replace(src, "func "+name+"(", "func "+name+"Impl(", 1))
}

// emptyFunctionStub emits an empty body for a pure exception-data address
// that has no instructions of its own, so the output link graph stays
// stable rather than silently dropping the symbol. The packer writes this
// body into its translation unit like every other function; no separate
// alias/impl pair is emitted.
func (fr *Framer) emptyFunctionStub(fn *model.FunctionNode) *FunctionSource {
	name := functionName(fn)
	body := fmt.Sprintf("func %s(ctx *guest.Context, base []byte) {}\n", name)
	return &FunctionSource{Node: fn, Body: body, Promotion: &codegen.LocalPromotionSet{}}
}
