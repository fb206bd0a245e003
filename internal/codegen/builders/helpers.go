// Package builders holds one file per instruction category, each a set of
// pure functions (*codegen.Context) -> bool that emit target-source
// fragments for one mnemonic, plus the dispatch table mapping mnemonic id to
// builder. Grounded directly on the source's builders/*.cpp and helpers.h.
package builders

import (
	"fmt"

	"rexrecomp/internal/codegen"
	"rexrecomp/internal/model"
	"rexrecomp/internal/rexlog"
)

// Builder emits target-source text for one decoded instruction into ctx.
// Returns false when the instruction could not be built (dispatch then
// falls back to the runtime-trap miss case).
type Builder func(ctx *codegen.Context) bool

// computeMask computes a 32-bit mask for PPC rotate/mask instructions,
// identical to the architecture's MASK(mstart, mstop) definition including
// the wrap case mstart > mstop.
func computeMask(mstart, mstop uint32) uint32 {
	mstart &= 0x1F
	mstop &= 0x1F
	var value uint32
	if mstop >= 31 {
		value = ^uint32(0) >> mstart
	} else {
		value = (^uint32(0) >> mstart) ^ (^uint32(0) >> (mstop + 1))
	}
	if mstart <= mstop {
		return value
	}
	return ^value
}

// computeMask64 is the 64-bit counterpart of computeMask, for the rldicl/
// rldicr/rldimi family's MB/ME fields (0-63).
func computeMask64(mstart, mstop uint32) uint64 {
	mstart &= 0x3F
	mstop &= 0x3F
	var value uint64
	if mstop >= 63 {
		value = ^uint64(0) >> mstart
	} else {
		value = (^uint64(0) >> mstart) ^ (^uint64(0) >> (mstop + 1))
	}
	if mstart <= mstop {
		return value
	}
	return ^value
}

// crBitName maps a BI-field bit index (0-3) to the CRField accessor name.
func crBitName(bi uint32) string {
	switch bi & 3 {
	case 0:
		return "LT"
	case 1:
		return "GT"
	case 2:
		return "EQ"
	default:
		return "SO"
	}
}

// emitRecordFormCompare emits the CR0 update record-form instructions
// append: LT/GT/EQ from comparing the signed 32-bit result against zero,
// SO copied from XER.
func emitRecordFormCompare(ctx *codegen.Context, resultReg uint32) {
	if !ctx.Insn.IsRecordForm() {
		return
	}
	ctx.Println("\t%s.Compare(int64(%s.S32()), 0, %s.SO)",
		ctx.CR(0), ctx.R(resultReg), ctx.XER())
}

// emitCRBitOperation emits crD = crA <op> crB for a CR-bit logical
// instruction, with optional per-operand inversion.
func emitCRBitOperation(ctx *codegen.Context, op string, invertA, invertB, invertResult bool) {
	crD := ctx.Insn.Operands[0]
	crA := ctx.Insn.Operands[1]
	crB := ctx.Insn.Operands[2]

	aExpr := fmt.Sprintf("%s.%s", ctx.CR(crA/4), crBitName(crA%4))
	bExpr := fmt.Sprintf("%s.%s", ctx.CR(crB/4), crBitName(crB%4))
	if invertA {
		aExpr = "!(" + aExpr + ")"
	}
	if invertB {
		bExpr = "!(" + bExpr + ")"
	}
	expr := fmt.Sprintf("%s %s %s", aExpr, op, bExpr)
	if invertResult {
		expr = "!(" + expr + ")"
	}
	ctx.Println("\t%s.%s = %s", ctx.CR(crD/4), crBitName(crD%4), expr)
}

// isMMIOUpperBits reports whether an upper-16-bit immediate matches a known
// Xbox 360 hardware register range.
func isMMIOUpperBits(imm uint32) bool { return codegen.IsMMIOUpperBits(imm) }

// storeMacro picks between the normal and MMIO store helper names based on
// the base register's MMIO tag or a following eieio barrier.
func storeMacro(ctx *codegen.Context, baseReg uint32, normal, mmio string) string {
	if ctx.MMIOCheckDForm(baseReg) {
		return mmio
	}
	return normal
}

// emitBranchWithBoundsCheck emits a conditional local jump when target lies
// inside the current function, otherwise a bounds-checked return.
func emitBranchWithBoundsCheck(ctx *codegen.Context, target uint32, condition, instrName string) {
	if target < ctx.Fn.Base() || target >= ctx.Fn.End() {
		rexlog.Default().Warn("%s at %#x branches outside function to %#x", instrName, ctx.Base, target)
		ctx.Println("\tif %s {\n\t\treturn\n\t}", condition)
		return
	}
	ctx.Println("\tif %s {\n\t\tgoto loc_%X\n\t}", condition, target)
}

// classifyAndEmitCall emits the call/jump/trap for a resolved branch target
// per the classification the function graph returns for it.
func classifyAndEmitCall(ctx *codegen.Context, target uint32, isCall, link bool) {
	kind := ctx.Graph.ClassifyTarget(target, ctx.Base, isCall)
	switch kind {
	case model.TargetInternalLabel:
		ctx.Println("\tgoto loc_%X", target)
	case model.TargetFunction, model.TargetImport:
		if link {
			ctx.Println("\tctx.LR = 0x%X", ctx.Base+4)
		}
		ctx.Println("\tsub_%X(ctx, base)", target)
		ctx.Println("\treturn")
	default:
		ctx.Println("\t// unresolved branch target 0x%X", target)
		ctx.Println("\tcallIndirect(ctx, base, 0x%X)", target)
		ctx.Println("\treturn")
	}
}

// signExtendCast returns the Go cast expression sign-extending a load of
// width bits to the target's native int64 register width.
func signExtendCast(width int) string {
	switch width {
	case 8:
		return "int8"
	case 16:
		return "int16"
	default:
		return "int32"
	}
}
