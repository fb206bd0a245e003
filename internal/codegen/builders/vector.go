package builders

import "rexrecomp/internal/codegen"

// ensureVMXMode mirrors ensureFPUMode for the vector unit.
func ensureVMXMode(ctx *codegen.Context) {
	if ctx.CSR == codegen.CSRVMX {
		return
	}
	ctx.Println("\tguest.SetVMXMode()")
	ctx.CSR = codegen.CSRVMX
}

// lanewiseVector emits a per-lane binary op across all four 32-bit float
// lanes of a vector register triple.
func lanewiseVector(op string) Builder {
	return func(ctx *codegen.Context) bool {
		ensureVMXMode(ctx)
		d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
		for lane := 0; lane < 4; lane++ {
			ctx.Println("\t%s.SetF32(%d, %s.F32(%d) %s %s.F32(%d))",
				ctx.V(d), lane, ctx.V(a), lane, op, ctx.V(b), lane)
		}
		return true
	}
}

var (
	buildVaddfp = lanewiseVector("+")
	buildVsubfp = lanewiseVector("-")
)

func buildVmulfp(ctx *codegen.Context) bool {
	ensureVMXMode(ctx)
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	for lane := 0; lane < 4; lane++ {
		ctx.Println("\t%s.SetF32(%d, %s.F32(%d) * %s.F32(%d))", ctx.V(d), lane, ctx.V(a), lane, ctx.V(b), lane)
	}
	return true
}

// buildVmaddfp/buildVnmsubfp are the vector fused multiply-add/subtract
// forms; vnmsubfp additionally negates the whole lane result.
func fusedVector(negate bool) Builder {
	return func(ctx *codegen.Context) bool {
		ensureVMXMode(ctx)
		d, a, c, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2], ctx.Insn.Operands[3]
		for lane := 0; lane < 4; lane++ {
			expr := spf("%s.F32(%d) * %s.F32(%d) + %s.F32(%d)", ctx.V(a), lane, ctx.V(c), lane, ctx.V(b), lane)
			if negate {
				expr = spf("-(%s.F32(%d) * %s.F32(%d)) + %s.F32(%d)", ctx.V(a), lane, ctx.V(c), lane, ctx.V(b), lane)
			}
			ctx.Println("\t%s.SetF32(%d, %s)", ctx.V(d), lane, expr)
		}
		return true
	}
}

var (
	buildVmaddfp  = fusedVector(false)
	buildVnmsubfp = fusedVector(true)
)

// buildVand/buildVandc/buildVor/buildVxor/buildVnor operate on the vector's
// 128 bits as four 32-bit lanes of bitwise integer ops.
func bitwiseVector(op string, invertB bool, invertResult bool) Builder {
	return func(ctx *codegen.Context) bool {
		ensureVMXMode(ctx)
		d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
		for lane := 0; lane < 4; lane++ {
			bExpr := spf("%s.Lanes[%d]", ctx.V(b), lane)
			if invertB {
				bExpr = "^" + bExpr
			}
			expr := spf("%s.Lanes[%d] %s %s", ctx.V(a), lane, op, bExpr)
			if invertResult {
				expr = "^(" + expr + ")"
			}
			ctx.Println("\t%s.Lanes[%d] = %s", ctx.V(d), lane, expr)
		}
		return true
	}
}

var (
	buildVand  = bitwiseVector("&", false, false)
	buildVandc = bitwiseVector("&", true, false)
	buildVor   = bitwiseVector("|", false, false)
	buildVxor  = bitwiseVector("^", false, false)
	buildVnor  = bitwiseVector("|", false, true)
)

// buildLvx/buildStvx are 16-byte-aligned vector loads/stores; the
// effective address is masked to the preceding 16-byte boundary regardless
// of the base+index sum, per the architecture's aligned-access rule.
func buildLvx(ctx *codegen.Context) bool {
	ensureVMXMode(ctx)
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ea := xFormEA(ctx, a, b)
	ctx.Println("\t%s = (%s) &^ 15", ctx.EA(), ea)
	for lane := 0; lane < 4; lane++ {
		ctx.Println("\t%s.Lanes[%d] = guest.ByteSwap32(guest.MemLoad32(base, %s+%d))", ctx.V(d), lane, ctx.EA(), lane*4)
	}
	return true
}

func buildStvx(ctx *codegen.Context) bool {
	ensureVMXMode(ctx)
	s, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ea := xFormEA(ctx, a, b)
	ctx.Println("\t%s = (%s) &^ 15", ctx.EA(), ea)
	for lane := 0; lane < 4; lane++ {
		ctx.Println("\tguest.MemStore32(base, %s+%d, guest.ByteSwap32(%s.Lanes[%d]))", ctx.EA(), lane*4, ctx.V(s), lane)
	}
	return true
}

// buildLvx128/buildStvx128 are the VMX128 aliases; they route through the
// same alignment and byte-swap rules as their scalar VMX counterparts.
var (
	buildLvx128  = buildLvx
	buildStvx128 = buildStvx
)

// vector128Lanewise aliases the VMX128 floating-point forms to their scalar
// VMX counterparts: both operate on the same 4x32-bit lane layout, with
// VMX128 only widening the encoding's register-index field.
var (
	buildVaddfp128 = buildVaddfp
	buildVsubfp128 = buildVsubfp
	buildVmulfp128 = buildVmulfp
)

// buildVspltw broadcasts one 32-bit lane of vB across all four lanes of vD.
// The UIMM element index addresses Lanes directly: lvx/stvx already populate
// Lanes[i] in architectural element order.
func buildVspltw(ctx *codegen.Context) bool {
	ensureVMXMode(ctx)
	d, b, uimm := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	for lane := 0; lane < 4; lane++ {
		ctx.Println("\t%s.Lanes[%d] = %s.Lanes[%d]", ctx.V(d), lane, ctx.V(b), uimm&3)
	}
	return true
}

// buildVspltisw splats a 5-bit signed immediate, sign-extended to 32 bits,
// across all four lanes.
func buildVspltisw(ctx *codegen.Context) bool {
	ensureVMXMode(ctx)
	d := ctx.Insn.Operands[0]
	simm := int32(ctx.Insn.Operands[1])
	for lane := 0; lane < 4; lane++ {
		ctx.Println("\t%s.Lanes[%d] = uint32(int32(%d))", ctx.V(d), lane, simm)
	}
	return true
}

// buildVperm gathers each of vD's 16 bytes from the 32-byte concatenation of
// vA and vB, selected by the low 5 bits of the corresponding byte of vC, via
// Vector128.ByteAt/SetByteAt (the same architectural-byte-order accessors
// lvlx/lvrx use).
func buildVperm(ctx *codegen.Context) bool {
	ensureVMXMode(ctx)
	d, a, b, c := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2], ctx.Insn.Operands[3]
	for i := 0; i < 16; i++ {
		ctx.Println("\tif sel := int(%s.ByteAt(%d)) & 0x1F; sel < 16 {\n\t\t%s.SetByteAt(%d, %s.ByteAt(sel))\n\t} else {\n\t\t%s.SetByteAt(%d, %s.ByteAt(sel-16))\n\t}",
			ctx.V(c), i, ctx.V(d), i, ctx.V(a), ctx.V(d), i, ctx.V(b))
	}
	return true
}

// buildLvlx/buildLvrx load an unaligned 16-byte vector split across the
// preceding and following 16-byte-aligned blocks: lvlx takes the bytes from
// EA forward, left-justified in vD; lvrx takes the bytes before EA,
// right-justified. Bytes the instruction doesn't define are zeroed rather
// than left as the architecture's "undefined".
func buildLvlx(ctx *codegen.Context) bool {
	ensureVMXMode(ctx)
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ea := xFormEA(ctx, a, b)
	ctx.Println("\t%s = %s", ctx.EA(), ea)
	ctx.Println("\tfor i := 0; i < 16; i++ {\n\t\tif uint32(i) < 16-(%s&15) {\n\t\t\t%s.SetByteAt(i, guest.MemLoad8(base, %s+uint32(i)))\n\t\t} else {\n\t\t\t%s.SetByteAt(i, 0)\n\t\t}\n\t}",
		ctx.EA(), ctx.V(d), ctx.EA(), ctx.V(d))
	return true
}

func buildLvrx(ctx *codegen.Context) bool {
	ensureVMXMode(ctx)
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ea := xFormEA(ctx, a, b)
	ctx.Println("\t%s = %s", ctx.EA(), ea)
	ctx.Println("\tfor i := 0; i < 16; i++ {\n\t\tif uint32(i) >= 16-(%s&15) {\n\t\t\t%s.SetByteAt(i, guest.MemLoad8(base, %s-16+uint32(i)))\n\t\t} else {\n\t\t\t%s.SetByteAt(i, 0)\n\t\t}\n\t}",
		ctx.EA(), ctx.V(d), ctx.EA(), ctx.V(d))
	return true
}
