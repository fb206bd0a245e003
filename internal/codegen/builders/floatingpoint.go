package builders

import "rexrecomp/internal/codegen"

// ensureFPUMode emits the host FPU control-word switch only when the
// current CSR state isn't already known to be FPU, so back-to-back
// floating-point instructions don't re-issue the same mode switch.
func ensureFPUMode(ctx *codegen.Context) {
	if ctx.CSR == codegen.CSRFPU {
		return
	}
	ctx.Println("\tguest.SetFPUMode(&ctx.FPSCR)")
	ctx.CSR = codegen.CSRFPU
}

func buildFadd(ctx *codegen.Context) bool {
	ensureFPUMode(ctx)
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetF64(%s.F64() + %s.F64())", ctx.F(d), ctx.F(a), ctx.F(b))
	return true
}

func buildFsub(ctx *codegen.Context) bool {
	ensureFPUMode(ctx)
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetF64(%s.F64() - %s.F64())", ctx.F(d), ctx.F(a), ctx.F(b))
	return true
}

func buildFmul(ctx *codegen.Context) bool {
	ensureFPUMode(ctx)
	d, a, c := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetF64(%s.F64() * %s.F64())", ctx.F(d), ctx.F(a), ctx.F(c))
	return true
}

func buildFdiv(ctx *codegen.Context) bool {
	ensureFPUMode(ctx)
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetF64(%s.F64() / %s.F64())", ctx.F(d), ctx.F(a), ctx.F(b))
	return true
}

// buildFmadd covers the fused multiply-add family: frD = (frA*frC) +/- frB,
// with the "n" variants additionally negating the whole result.
func fusedMulAdd(subtract, negResult bool) Builder {
	return func(ctx *codegen.Context) bool {
		ensureFPUMode(ctx)
		d, a, c, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2], ctx.Insn.Operands[3]
		op := "+"
		if subtract {
			op = "-"
		}
		expr := spf("%s.F64() * %s.F64() %s %s.F64()", ctx.F(a), ctx.F(c), op, ctx.F(b))
		if negResult {
			expr = "-(" + expr + ")"
		}
		ctx.Println("\t%s.SetF64(%s)", ctx.F(d), expr)
		return true
	}
}

var (
	buildFmadd  = fusedMulAdd(false, false)
	buildFmsub  = fusedMulAdd(true, false)
	buildFnmadd = fusedMulAdd(false, true)
	buildFnmsub = fusedMulAdd(true, true)
)

func buildFneg(ctx *codegen.Context) bool {
	d, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ctx.Println("\t%s.SetF64(-%s.F64())", ctx.F(d), ctx.F(b))
	return true
}

func buildFabs(ctx *codegen.Context) bool {
	d, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ctx.Println("\t%s.SetF64(math.Abs(%s.F64()))", ctx.F(d), ctx.F(b))
	return true
}

func buildFnabs(ctx *codegen.Context) bool {
	d, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ctx.Println("\t%s.SetF64(-math.Abs(%s.F64()))", ctx.F(d), ctx.F(b))
	return true
}

// buildFsel selects b if a >= 0.0, else c, without a branch.
func buildFsel(ctx *codegen.Context) bool {
	d, a, c, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2], ctx.Insn.Operands[3]
	ctx.Println("\tif %s.F64() >= 0.0 {\n\t\t%s.SetF64(%s.F64())\n\t} else {\n\t\t%s.SetF64(%s.F64())\n\t}",
		ctx.F(a), ctx.F(d), ctx.F(b), ctx.F(d), ctx.F(c))
	return true
}

// buildFcmpu/buildFcmpo differ only in whether an unordered result raises
// the invalid-operation exception; this build does not emulate FP
// exceptions, so both compile to the same comparison.
func buildFcmpu(ctx *codegen.Context) bool { return emitFCompare(ctx) }
func buildFcmpo(ctx *codegen.Context) bool { return emitFCompare(ctx) }

func emitFCompare(ctx *codegen.Context) bool {
	field := ctx.Insn.Operands[0]
	a, b := ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetFromFloat(%s.F64(), %s.F64())", ctx.CR(field), ctx.F(a), ctx.F(b))
	return true
}

func buildFctiwz(ctx *codegen.Context) bool {
	d, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ctx.Println("\t%s.SetU64(uint64(uint32(int32(math.Trunc(%s.F64())))))", ctx.F(d), ctx.F(b))
	return true
}

func buildFcfid(ctx *codegen.Context) bool {
	d, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ctx.Println("\t%s.SetF64(float64(%s.S64()))", ctx.F(d), ctx.F(b))
	return true
}

func buildFrsp(ctx *codegen.Context) bool {
	d, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ctx.Println("\t%s.SetF64(float64(float32(%s.F64())))", ctx.F(d), ctx.F(b))
	return true
}

func buildLfs(ctx *codegen.Context) bool {
	ensureFPUMode(ctx)
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	disp := int32(ctx.Insn.Operands[2])
	ea := dFormEA(ctx, a, disp)
	ctx.Println("\t%s.SetF64(float64(guest.MemLoadF32(base, %s)))", ctx.F(d), ea)
	return true
}

func buildLfd(ctx *codegen.Context) bool {
	ensureFPUMode(ctx)
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	disp := int32(ctx.Insn.Operands[2])
	ea := dFormEA(ctx, a, disp)
	ctx.Println("\t%s.SetF64(guest.MemLoadF64(base, %s))", ctx.F(d), ea)
	return true
}

func buildLfsx(ctx *codegen.Context) bool {
	ensureFPUMode(ctx)
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ea := xFormEA(ctx, a, b)
	ctx.Println("\t%s.SetF64(float64(guest.MemLoadF32(base, %s)))", ctx.F(d), ea)
	return true
}

func buildLfdx(ctx *codegen.Context) bool {
	ensureFPUMode(ctx)
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ea := xFormEA(ctx, a, b)
	ctx.Println("\t%s.SetF64(guest.MemLoadF64(base, %s))", ctx.F(d), ea)
	return true
}

func buildLfsu(ctx *codegen.Context) bool {
	ensureFPUMode(ctx)
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	disp := int32(ctx.Insn.Operands[2])
	ctx.Println("\t%s = %s.U32() + uint32(%d)", ctx.EA(), ctx.R(a), disp)
	ctx.Println("\t%s.SetF64(float64(guest.MemLoadF32(base, %s)))", ctx.F(d), ctx.EA())
	ctx.Println("\t%s.SetU32(%s)", ctx.R(a), ctx.EA())
	return true
}

func buildLfdu(ctx *codegen.Context) bool {
	ensureFPUMode(ctx)
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	disp := int32(ctx.Insn.Operands[2])
	ctx.Println("\t%s = %s.U32() + uint32(%d)", ctx.EA(), ctx.R(a), disp)
	ctx.Println("\t%s.SetF64(guest.MemLoadF64(base, %s))", ctx.F(d), ctx.EA())
	ctx.Println("\t%s.SetU32(%s)", ctx.R(a), ctx.EA())
	return true
}

func buildStfs(ctx *codegen.Context) bool {
	ensureFPUMode(ctx)
	s, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	disp := int32(ctx.Insn.Operands[2])
	ea := dFormEA(ctx, a, disp)
	ctx.Println("\tguest.MemStoreF32(base, %s, float32(%s.F64()))", ea, ctx.F(s))
	return true
}

func buildStfd(ctx *codegen.Context) bool {
	ensureFPUMode(ctx)
	s, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	disp := int32(ctx.Insn.Operands[2])
	ea := dFormEA(ctx, a, disp)
	ctx.Println("\tguest.MemStoreF64(base, %s, %s.F64())", ea, ctx.F(s))
	return true
}

func buildStfsx(ctx *codegen.Context) bool {
	ensureFPUMode(ctx)
	s, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ea := xFormEA(ctx, a, b)
	ctx.Println("\tguest.MemStoreF32(base, %s, float32(%s.F64()))", ea, ctx.F(s))
	return true
}

func buildStfdx(ctx *codegen.Context) bool {
	ensureFPUMode(ctx)
	s, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ea := xFormEA(ctx, a, b)
	ctx.Println("\tguest.MemStoreF64(base, %s, %s.F64())", ea, ctx.F(s))
	return true
}

// buildStfiwx stores the raw integer bit pattern of the FPR's low word,
// not a converted value — used by guest code that reinterprets FPRs as
// scratch integer storage.
func buildStfiwx(ctx *codegen.Context) bool {
	s, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ea := xFormEA(ctx, a, b)
	ctx.Println("\tguest.MemStore32(base, %s, %s.U32())", ea, ctx.F(s))
	return true
}

func buildMffs(ctx *codegen.Context) bool {
	d := ctx.Insn.Operands[0]
	ctx.Println("\t%s.SetU64(uint64(guest.PackFPSCR(&ctx.FPSCR)))", ctx.F(d))
	return true
}

func buildMtfsf(ctx *codegen.Context) bool {
	b := ctx.Insn.Operands[1]
	ctx.Println("\tguest.UnpackFPSCR(&ctx.FPSCR, uint32(%s.U64()))", ctx.F(b))
	return true
}
