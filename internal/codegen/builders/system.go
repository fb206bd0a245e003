package builders

import "rexrecomp/internal/codegen"

// buildSync/buildLwsync/buildEieio/buildIsync are memory-barrier hints with
// no observable single-threaded effect; they are emitted as no-op comments
// so a reader can still see where the guest expected ordering guarantees.
func buildSync(ctx *codegen.Context) bool   { ctx.Println("\t// sync"); return true }
func buildLwsync(ctx *codegen.Context) bool { ctx.Println("\t// lwsync"); return true }
func buildEieio(ctx *codegen.Context) bool  { ctx.Println("\t// eieio"); return true }
func buildIsync(ctx *codegen.Context) bool  { ctx.Println("\t// isync"); return true }

// buildDcbt/buildDcbtst/buildDcbz are cache-management hints; dcbz is the
// one with observable effect (it zeroes a cache-line-sized memory region).
func buildDcbt(ctx *codegen.Context) bool   { ctx.Println("\t// dcbt"); return true }
func buildDcbtst(ctx *codegen.Context) bool { ctx.Println("\t// dcbtst"); return true }

func buildDcbz(ctx *codegen.Context) bool {
	a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ea := xFormEA(ctx, a, b)
	ctx.Println("\tguest.MemZeroCacheLine(base, %s)", ea)
	return true
}

// buildTrapWord emits the five-bit TO-field conditions OR'd together against
// the requested comparison, matching the architecture's trap-word encoding.
func buildTrapWord(ctx *codegen.Context, to uint32, aExpr, bExpr string, signed bool) bool {
	var conds []string
	if to&0x10 != 0 {
		conds = append(conds, spf("%s < %s", aExpr, bExpr))
	}
	if to&0x08 != 0 {
		conds = append(conds, spf("%s > %s", aExpr, bExpr))
	}
	if to&0x04 != 0 {
		conds = append(conds, spf("%s == %s", aExpr, bExpr))
	}
	if to&0x02 != 0 {
		conds = append(conds, spf("uint64(%s) < uint64(%s)", aExpr, bExpr))
	}
	if to&0x01 != 0 {
		conds = append(conds, spf("uint64(%s) > uint64(%s)", aExpr, bExpr))
	}
	if len(conds) == 0 {
		return true
	}
	cond := conds[0]
	for _, c := range conds[1:] {
		cond += " || " + c
	}
	ctx.Println("\tif %s {\n\t\tpanic(\"trap\")\n\t}", cond)
	return true
}

func buildTw(ctx *codegen.Context) bool {
	to, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	return buildTrapWord(ctx, to, spf("%s.S32()", ctx.R(a)), spf("%s.S32()", ctx.R(b)), true)
}

func buildTwi(ctx *codegen.Context) bool {
	to, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	simm := int32(ctx.Insn.Operands[2])
	return buildTrapWord(ctx, to, spf("%s.S32()", ctx.R(a)), spf("int32(%d)", simm), true)
}

func buildTd(ctx *codegen.Context) bool {
	to, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	return buildTrapWord(ctx, to, spf("%s.S64()", ctx.R(a)), spf("%s.S64()", ctx.R(b)), true)
}

func buildTdi(ctx *codegen.Context) bool {
	to, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	simm := int32(ctx.Insn.Operands[2])
	return buildTrapWord(ctx, to, spf("%s.S64()", ctx.R(a)), spf("int64(%d)", simm), true)
}

// buildMfcr copies all eight CR fields into a single packed word, matching
// the architecture's field order (CR0 in the top nibble).
func buildMfcr(ctx *codegen.Context) bool {
	d := ctx.Insn.Operands[0]
	ctx.Println("\t%s.SetU64(uint64(guest.PackCR(&ctx.CR)))", ctx.R(d))
	return true
}

// buildMtcrf writes selected CR fields from the source register's packed
// bits, honoring the field-mask immediate.
func buildMtcrf(ctx *codegen.Context) bool {
	mask, s := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ctx.Println("\tguest.UnpackCR(&ctx.CR, uint32(%s.U64()), 0x%X)", ctx.R(s), mask)
	return true
}

func buildMfmsr(ctx *codegen.Context) bool {
	d := ctx.Insn.Operands[0]
	ctx.Println("\t%s.SetU64(0)", ctx.R(d))
	return true
}

// buildMtmsr/buildMtmsrd are no-ops: the guest's machine-state register has
// no host-visible effect once EmitExceptionHandlers/SkipMSR resolve interrupt
// handling out of the recompiled body.
func buildMtmsr(ctx *codegen.Context) bool  { ctx.Println("\t// mtmsr"); return true }
func buildMtmsrd(ctx *codegen.Context) bool { ctx.Println("\t// mtmsrd"); return true }

// buildMtspr/buildMfspr dispatch on the decoded SPR number (the real
// architectural register number: 1=XER, 8=LR, 9=CTR — ppc64asm decodes
// SpReg arguments to this value directly, not a library-local index) to the
// LR/CTR/XER moves; there are no separate mtlr/mflr/mtctr/mfctr/mtxer/mfxer
// builders. Any other SPR has no host-visible register backing it in this
// build.
const (
	sprXER = 1
	sprLR  = 8
	sprCTR = 9
)

func buildMtspr(ctx *codegen.Context) bool {
	spr, s := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	switch spr {
	case sprXER:
		ctx.Println("\tguest.UnpackXER(&%s, %s.U32())", ctx.XER(), ctx.R(s))
	case sprLR:
		ctx.Println("\tctx.LR = %s.U64()", ctx.R(s))
	case sprCTR:
		ctx.Println("\t%s.SetU64(%s.U64())", ctx.CTR(), ctx.R(s))
	default:
		ctx.Println("\t// mtspr %d (unbacked)", spr)
	}
	return true
}

func buildMfspr(ctx *codegen.Context) bool {
	d, spr := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	switch spr {
	case sprXER:
		ctx.Println("\t%s.SetU64(uint64(guest.PackXER(%s)))", ctx.R(d), ctx.XER())
	case sprLR:
		ctx.Println("\t%s.SetU64(ctx.LR)", ctx.R(d))
	case sprCTR:
		ctx.Println("\t%s.SetU64(%s.U64())", ctx.R(d), ctx.CTR())
	default:
		ctx.Println("\t%s.SetU64(0) // mfspr %d (unbacked)", ctx.R(d), spr)
	}
	return true
}

// CR-bit logical instructions, each a thin wrapper over emitCRBitOperation.
func buildCrand(ctx *codegen.Context) bool  { emitCRBitOperation(ctx, "&&", false, false, false); return true }
func buildCrandc(ctx *codegen.Context) bool { emitCRBitOperation(ctx, "&&", false, true, false); return true }
func buildCror(ctx *codegen.Context) bool   { emitCRBitOperation(ctx, "||", false, false, false); return true }
func buildCrorc(ctx *codegen.Context) bool  { emitCRBitOperation(ctx, "||", false, true, false); return true }
func buildCrxor(ctx *codegen.Context) bool  { emitCRBitOperation(ctx, "!=", false, false, false); return true }
func buildCrnand(ctx *codegen.Context) bool { emitCRBitOperation(ctx, "&&", false, false, true); return true }
func buildCrnor(ctx *codegen.Context) bool  { emitCRBitOperation(ctx, "||", false, false, true); return true }
func buildCreqv(ctx *codegen.Context) bool  { emitCRBitOperation(ctx, "==", false, false, false); return true }
