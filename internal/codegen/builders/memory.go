package builders

import (
	"fmt"

	"rexrecomp/internal/codegen"
)

// dFormEA emits the D-form effective-address expression: rA + d (rA==0
// contributes nothing, matching the architecture's r0-as-literal-zero rule).
func dFormEA(ctx *codegen.Context, baseReg uint32, disp int32) string {
	if baseReg == 0 {
		return itoaHex(disp)
	}
	return spf("%s.U32() + uint32(%d)", ctx.R(baseReg), disp)
}

func xFormEA(ctx *codegen.Context, baseReg, idxReg uint32) string {
	if baseReg == 0 {
		return spf("%s.U32()", ctx.R(idxReg))
	}
	return spf("%s.U32() + %s.U32()", ctx.R(baseReg), ctx.R(idxReg))
}

func itoaHex(v int32) string { return spf("uint32(%d)", v) }

func spf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

// buildLoadDForm emits a D-form load: rD = MEM[rA + d], optionally
// sign-extending through width bits first.
func buildLoadDForm(width int, signExtend bool) Builder {
	return func(ctx *codegen.Context) bool {
		d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
		disp := int32(ctx.Insn.Operands[2])
		ea := dFormEA(ctx, a, disp)
		emitLoad(ctx, d, ea, width, signExtend)
		return true
	}
}

func buildLoadXForm(width int, signExtend bool) Builder {
	return func(ctx *codegen.Context) bool {
		d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
		ea := xFormEA(ctx, a, b)
		emitLoad(ctx, d, ea, width, signExtend)
		return true
	}
}

// buildLoadUpdate emits load-with-update: EA = rA + d; rD = MEM[EA]; rA = EA.
func buildLoadUpdate(width int, signExtend bool) Builder {
	return func(ctx *codegen.Context) bool {
		d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
		disp := int32(ctx.Insn.Operands[2])
		ctx.Println("\t%s = %s.U32() + uint32(%d)", ctx.EA(), ctx.R(a), disp)
		emitLoad(ctx, d, ctx.EA(), width, signExtend)
		ctx.Println("\t%s.SetU32(%s)", ctx.R(a), ctx.EA())
		return true
	}
}

func emitLoad(ctx *codegen.Context, dst uint32, ea string, width int, signExtend bool) {
	loadFn := spf("guest.MemLoad%d", width)
	if signExtend {
		ctx.Println("\t%s.SetS64(int64(%s(%s(base, %s))))", ctx.R(dst), signExtendCast(width), loadFn, ea)
	} else {
		ctx.Println("\t%s.SetU64(uint64(%s(base, %s)))", ctx.R(dst), loadFn, ea)
	}
}

// buildStoreDForm emits a D-form store, selecting the MMIO or normal store
// helper per the base register's MMIO tag or a following eieio barrier.
func buildStoreDForm(width int) Builder {
	return func(ctx *codegen.Context) bool {
		s, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
		disp := int32(ctx.Insn.Operands[2])
		ea := dFormEA(ctx, a, disp)
		macro := storeMacro(ctx, a, spf("guest.MemStore%d", width), spf("guest.MemMMIOStore%d", width))
		ctx.Println("\t%s(base, %s, %s.U%d())", macro, ea, ctx.R(s), width)
		return true
	}
}

func buildStoreXForm(width int) Builder {
	return func(ctx *codegen.Context) bool {
		s, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
		ea := xFormEA(ctx, a, b)
		macro := storeMacro(ctx, a, spf("guest.MemStore%d", width), spf("guest.MemMMIOStore%d", width))
		ctx.Println("\t%s(base, %s, %s.U%d())", macro, ea, ctx.R(s), width)
		return true
	}
}

func buildStoreUpdate(width int) Builder {
	return func(ctx *codegen.Context) bool {
		s, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
		disp := int32(ctx.Insn.Operands[2])
		ctx.Println("\t%s = %s.U32() + uint32(%d)", ctx.EA(), ctx.R(a), disp)
		macro := storeMacro(ctx, a, spf("guest.MemStore%d", width), spf("guest.MemMMIOStore%d", width))
		ctx.Println("\t%s(base, %s, %s.U%d())", macro, ctx.EA(), ctx.R(s), width)
		ctx.Println("\t%s.SetU32(%s)", ctx.R(a), ctx.EA())
		return true
	}
}

// buildLoadByteReversed applies the byte-swap intrinsic at the memory edge.
func buildLoadByteReversed(width int) Builder {
	return func(ctx *codegen.Context) bool {
		d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
		ea := xFormEA(ctx, a, b)
		ctx.Println("\t%s.SetU64(uint64(guest.ByteSwap%d(guest.MemLoad%d(base, %s))))", ctx.R(d), width, width, ea)
		return true
	}
}

func buildStoreByteReversed(width int) Builder {
	return func(ctx *codegen.Context) bool {
		s, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
		ea := xFormEA(ctx, a, b)
		ctx.Println("\tguest.MemStore%d(base, %s, guest.ByteSwap%d(%s.U%d()))", width, ea, width, ctx.R(s), width)
		return true
	}
}

// buildLwarx stores the reservation word verbatim (no byte-swap) and marks
// the reservation slot valid, for the matching store-conditional comparand.
func buildLwarx(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ea := xFormEA(ctx, a, b)
	ctx.Println("\t%s = guest.MemLoad32(base, %s)", ctx.Reserved(), ea)
	ctx.Println("\t%s.SetU64(uint64(%s))", ctx.R(d), ctx.Reserved())
	ctx.Println("\tctx.ReservedValid = true")
	return true
}

// buildStwcx emits a compare-and-swap against the byte-swapped candidate
// value, using the stored reservation word as the comparand.
func buildStwcx(ctx *codegen.Context) bool {
	s, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ea := xFormEA(ctx, a, b)
	ctx.Println("\t%s.EQ = ctx.ReservedValid && guest.MemCompareAndSwap32(base, %s, %s, %s.U32())",
		ctx.CR(0), ea, ctx.Reserved(), ctx.R(s))
	ctx.Println("\tctx.ReservedValid = false")
	return true
}

// buildLdarx/buildStdcx are the doubleword load-reserve/store-conditional
// pair, mirroring buildLwarx/buildStwcx against the Reserved64 slot.
func buildLdarx(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ea := xFormEA(ctx, a, b)
	ctx.Println("\t%s = guest.MemLoad64(base, %s)", ctx.Reserved64(), ea)
	ctx.Println("\t%s.SetU64(%s)", ctx.R(d), ctx.Reserved64())
	ctx.Println("\tctx.Reserved64Valid = true")
	return true
}

func buildStdcx(ctx *codegen.Context) bool {
	s, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ea := xFormEA(ctx, a, b)
	ctx.Println("\t%s.EQ = ctx.Reserved64Valid && guest.MemCompareAndSwap64(base, %s, %s, %s.U64())",
		ctx.CR(0), ea, ctx.Reserved64(), ctx.R(s))
	ctx.Println("\tctx.Reserved64Valid = false")
	return true
}
