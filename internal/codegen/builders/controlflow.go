package builders

import (
	"fmt"

	"rexrecomp/internal/codegen"
	"rexrecomp/internal/model"
	"rexrecomp/internal/rexlog"
)

// emitUnconditionalBranch classifies target through the function graph: an
// internal label becomes a local goto, a resolved function or import
// becomes a tail call, and an unresolved target falls back to a range check
// against the current function's bounds. Shared by buildB and the
// unconditional BO encoding of buildBc.
func emitUnconditionalBranch(ctx *codegen.Context, target uint32) bool {
	kind := ctx.Graph.ClassifyTarget(target, ctx.Base, false)
	switch kind {
	case model.TargetInternalLabel:
		ctx.Println("\tgoto loc_%X", target)
	case model.TargetFunction, model.TargetImport:
		classifyAndEmitCall(ctx, target, false, false)
	default:
		if target >= ctx.Fn.Base() && target < ctx.Fn.End() {
			ctx.Println("\tgoto loc_%X", target)
		} else {
			rexlog.Default().Warn("unresolved b target %#x from %#x", target, ctx.Base)
			classifyAndEmitCall(ctx, target, false, false)
		}
	}
	return true
}

func buildB(ctx *codegen.Context) bool {
	return emitUnconditionalBranch(ctx, ctx.Insn.Operands[0])
}

// emitUnconditionalCall emits branch-and-link: LR is set to the return
// address (unless SkipLR), then the target is classified as a PIC-idiom
// local jump, a call, or an unresolved fatal trap. A call to the configured
// longjmp trampoline is special-cased before classification, since the
// guest's stack-unwinding routine has no host equivalent worth reproducing.
// Shared by buildBl and the unconditional BO encoding of buildBcl.
func emitUnconditionalCall(ctx *codegen.Context, target uint32) bool {
	if !ctx.Fn.Cfg.SkipLR {
		ctx.Println("\tctx.LR = 0x%X", ctx.Base+4)
	}
	if ctx.Fn.Cfg.HasSetjmp && target == ctx.Fn.Cfg.LongjmpAddress {
		return buildBlToLongjmp(ctx)
	}
	kind := ctx.Graph.ClassifyTarget(target, ctx.Base, true)
	switch kind {
	case model.TargetInternalLabel:
		ctx.Println("\tgoto loc_%X", target)
	case model.TargetFunction, model.TargetImport:
		ctx.Println("\tsub_%X(ctx, base)", target)
		ctx.CSR = codegen.CSRUnknown
	default:
		rexlog.Default().Error("unresolved bl target %#x from %#x", target, ctx.Base)
		ctx.Println("\t// unresolved bl target 0x%X", target)
		ctx.Println("\tpanic(fmt.Sprintf(\"unresolved call from 0x%%X to 0x%%X\", 0x%X, 0x%X))", ctx.Base, target)
	}
	return true
}

func buildBl(ctx *codegen.Context) bool {
	return emitUnconditionalCall(ctx, ctx.Insn.Operands[0])
}

func buildBlr(ctx *codegen.Context) bool {
	ctx.Println("\treturn")
	return true
}

// buildBlrl is the intentional debug trap: blrl (branch-to-LR-and-link) is
// never legitimately reachable in well-formed guest code, so it is emitted
// as a deliberate breakpoint rather than a call.
func buildBlrl(ctx *codegen.Context) bool {
	ctx.Println("\tdebugTrap()")
	return true
}

// buildBctr emits an indirect branch through CTR: a user-configured or
// auto-detected jump table becomes a Go switch over the index register,
// otherwise it falls back to an indirect call helper.
func buildBctr(ctx *codegen.Context) bool {
	jt := lookupJumpTable(ctx)
	if jt == nil {
		ctx.Println("\tcallIndirect(ctx, base, %s.U32())", ctx.CTR())
		ctx.Println("\treturn")
		return true
	}
	ctx.Println("\tswitch %s.U32() {", ctx.R(uint32(jt.IndexRegister)))
	for i, label := range jt.Targets {
		ctx.Println("\tcase %d:", i)
		if label < ctx.Fn.Base() || label >= ctx.Fn.End() {
			rexlog.Default().Error("jump target %#x outside function bounds at bctr %#x", label, ctx.Base)
			ctx.Println("\t\t// jump target 0x%X outside function bounds", label)
			ctx.Println("\t\treturn")
		} else {
			ctx.Println("\t\tgoto loc_%X", label)
		}
	}
	ctx.Println("\tdefault:")
	ctx.Println("\t\tpanic(\"switch case out of range\")")
	ctx.Println("\t}")
	return true
}

func buildBctrl(ctx *codegen.Context) bool {
	if !ctx.Fn.Cfg.SkipLR {
		ctx.Println("\tctx.LR = 0x%X", ctx.Base+4)
	}
	ctx.Println("\tcallIndirect(ctx, base, %s.U32())", ctx.CTR())
	ctx.CSR = codegen.CSRUnknown
	return true
}

// lookupJumpTable checks the user-supplied switch table config first, then
// the auto-detected tables attached to the current function node.
func lookupJumpTable(ctx *codegen.Context) *model.JumpTable {
	for _, cfg := range ctx.Fn.Cfg.SwitchTables {
		if cfg.BranchAddress == ctx.Base {
			return &model.JumpTable{BranchAddress: cfg.BranchAddress, IndexRegister: cfg.IndexRegister, Targets: cfg.Targets}
		}
	}
	for i := range ctx.Fn.Node.JumpTables {
		jt := &ctx.Fn.Node.JumpTables[i]
		if jt.BranchAddress == ctx.Base {
			return jt
		}
	}
	return nil
}

// boBranchCondition decodes the BO field's CTR-decrement side effect (bit 2)
// and returns the Go boolean expression testing whatever combination of CTR
// and the BI condition-register bit (bit 4) the encoding selects. The
// "always" BO pattern (both bits set, ignoring CTR and CR entirely) is
// reported via unconditional so callers can delegate to the plain
// branch/return/indirect-jump builder instead of emitting a vacuous "if
// true".
func boBranchCondition(ctx *codegen.Context, bo, bi uint32) (cond string, unconditional bool) {
	var terms []string
	if bo&0x04 == 0 {
		ctx.Println("\t%s.SetU64(%s.U64() - 1)", ctx.CTR(), ctx.CTR())
		if bo&0x02 == 0 {
			terms = append(terms, fmt.Sprintf("%s.U32() != 0", ctx.CTR()))
		} else {
			terms = append(terms, fmt.Sprintf("%s.U32() == 0", ctx.CTR()))
		}
	}
	if bo&0x10 == 0 {
		expr := fmt.Sprintf("%s.%s", ctx.CR(bi/4), crBitName(bi))
		if bo&0x08 == 0 {
			expr = "!" + expr
		}
		terms = append(terms, expr)
	}
	if len(terms) == 0 {
		return "", true
	}
	cond = terms[0]
	for _, t := range terms[1:] {
		cond += " && " + t
	}
	return cond, false
}

// buildBc/buildBcl are the general conditional-branch and
// conditional-branch-and-link forms; every decrement-and-branch and
// simple-conditional pseudo-op (bdnz, beq, bne, ...) is one BO/BI encoding
// of these two instructions, so a single BO/BI decode covers the whole
// family instead of a builder per pseudo-op.
func buildBc(ctx *codegen.Context) bool {
	bo, bi, target := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	cond, unconditional := boBranchCondition(ctx, bo, bi)
	if unconditional {
		return emitUnconditionalBranch(ctx, target)
	}
	emitBranchWithBoundsCheck(ctx, target, cond, "bc")
	return true
}

func buildBcl(ctx *codegen.Context) bool {
	bo, bi, target := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	cond, unconditional := boBranchCondition(ctx, bo, bi)
	if unconditional {
		return emitUnconditionalCall(ctx, target)
	}
	ctx.Println("\tif %s {", cond)
	emitUnconditionalCall(ctx, target)
	ctx.Println("\t}")
	return true
}

// buildBclr/buildBclrl are the conditional forms of blr/blrl (bdnzlr, beqlr,
// bnelr, ... are all BO/BI encodings of bclr).
func buildBclr(ctx *codegen.Context) bool {
	bo, bi := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	cond, unconditional := boBranchCondition(ctx, bo, bi)
	if unconditional {
		return buildBlr(ctx)
	}
	ctx.Println("\tif %s {\n\t\treturn\n\t}", cond)
	return true
}

func buildBclrl(ctx *codegen.Context) bool {
	bo, bi := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	cond, unconditional := boBranchCondition(ctx, bo, bi)
	if unconditional {
		return buildBlrl(ctx)
	}
	ctx.Println("\tif %s {\n\t\tdebugTrap()\n\t}", cond)
	return true
}

// buildBcctr/buildBcctrl are the conditional forms of bctr/bctrl (bnectr and
// its siblings are BO/BI encodings of bcctr).
func buildBcctr(ctx *codegen.Context) bool {
	bo, bi := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	cond, unconditional := boBranchCondition(ctx, bo, bi)
	if unconditional {
		return buildBctr(ctx)
	}
	ctx.Println("\tif %s {", cond)
	ctx.Println("\t\tcallIndirect(ctx, base, %s.U32())", ctx.CTR())
	ctx.Println("\t\treturn")
	ctx.Println("\t}")
	return true
}

func buildBcctrl(ctx *codegen.Context) bool {
	bo, bi := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	cond, unconditional := boBranchCondition(ctx, bo, bi)
	if unconditional {
		return buildBctrl(ctx)
	}
	ctx.Println("\tif %s {", cond)
	if !ctx.Fn.Cfg.SkipLR {
		ctx.Println("\t\tctx.LR = 0x%X", ctx.Base+4)
	}
	ctx.Println("\t\tcallIndirect(ctx, base, %s.U32())", ctx.CTR())
	ctx.Println("\t\treturn")
	ctx.Println("\t}")
	ctx.CSR = codegen.CSRUnknown
	return true
}

// setjmp/longjmp special case: a bl to the configured longjmp address is
// rewritten as a direct panic carrying the jump buffer, since the guest's
// stack-unwinding trampoline has no host equivalent worth reproducing.
func buildBlToLongjmp(ctx *codegen.Context) bool {
	ctx.Println("\tpanic(longjmpUnwind{buf: %s.U32(), val: int32(%s.U32())})", ctx.R(3), ctx.R(4))
	return true
}
