package builders

import "rexrecomp/internal/codegen"

func buildAnd(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64(%s.U64() & %s.U64())", ctx.R(d), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)
	return true
}

func buildAndc(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64(%s.U64() &^ %s.U64())", ctx.R(d), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)
	return true
}

// buildAndi and buildAndis always set CR0, regardless of the record-form
// marker — the one exception the emission rules call out explicitly.
func buildAndi(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	uimm := ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64(%s.U64() & uint64(%d))", ctx.R(d), ctx.R(a), uimm)
	ctx.Println("\t%s.Compare(int64(int32(%s.U64())), 0, %s.SO)", ctx.CR(0), ctx.R(d), ctx.XER())
	return true
}

func buildAndis(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	uimm := ctx.Insn.Operands[2] << 16
	ctx.Println("\t%s.SetU64(%s.U64() & uint64(%d))", ctx.R(d), ctx.R(a), uimm)
	ctx.Println("\t%s.Compare(int64(int32(%s.U64())), 0, %s.SO)", ctx.CR(0), ctx.R(d), ctx.XER())
	return true
}

func buildNand(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64(^(%s.U64() & %s.U64()))", ctx.R(d), ctx.R(a), ctx.R(b))
	return true
}

func buildNor(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64(^(%s.U64() | %s.U64()))", ctx.R(d), ctx.R(a), ctx.R(b))
	return true
}

func buildNot(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ctx.Println("\t%s.SetU64(^%s.U64())", ctx.R(d), ctx.R(a))
	emitRecordFormCompare(ctx, d)
	return true
}

// buildOr covers both plain or and its mr rD,rS,rS assembler idiom; either
// source register carrying the MMIO tag propagates it to the destination.
func buildOr(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64(%s.U64() | %s.U64())", ctx.R(d), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)

	if ctx.IsMMIOBase(a) || ctx.IsMMIOBase(b) {
		ctx.TagMMIOBase(d)
	} else {
		ctx.ClearMMIOBase(d)
	}
	return true
}

func buildOrc(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64(%s.U64() | ^%s.U64())", ctx.R(d), ctx.R(a), ctx.R(b))
	return true
}

// buildOri only sets low bits, so it propagates the MMIO base tag from its
// single source register (never sets it fresh).
func buildOri(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	uimm := ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64(%s.U64() | uint64(%d))", ctx.R(d), ctx.R(a), uimm)

	if ctx.IsMMIOBase(a) {
		ctx.TagMMIOBase(d)
	} else {
		ctx.ClearMMIOBase(d)
	}
	return true
}

// buildOris deliberately does not clear the MMIO tag when imm falls outside
// the known ranges: oris may preserve an MMIO base carried from the source
// register, so only a positive match sets the tag.
func buildOris(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	imm := ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64(%s.U64() | uint64(%d))", ctx.R(d), ctx.R(a), imm<<16)

	if isMMIOUpperBits(imm) {
		ctx.TagMMIOBase(d)
	}
	return true
}

func buildXor(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64(%s.U64() ^ %s.U64())", ctx.R(d), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)
	return true
}

func buildXori(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	uimm := ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64(%s.U64() ^ uint64(%d))", ctx.R(d), ctx.R(a), uimm)
	return true
}

func buildXoris(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	uimm := ctx.Insn.Operands[2] << 16
	ctx.Println("\t%s.SetU64(%s.U64() ^ uint64(%d))", ctx.R(d), ctx.R(a), uimm)
	return true
}

// buildEqv computes rA = ~(rS ^ rB), the architecture's XNOR/"equivalent".
func buildEqv(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64(^(%s.U64() ^ %s.U64()))", ctx.R(d), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)
	return true
}

func buildCntlzd(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ctx.Println("\tif %s.U64() == 0 { %s.SetU64(64) } else { %s.SetU64(uint64(bits.LeadingZeros64(%s.U64()))) }",
		ctx.R(a), ctx.R(d), ctx.R(d), ctx.R(a))
	return true
}

func buildCntlzw(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ctx.Println("\tif %s.U32() == 0 { %s.SetU64(32) } else { %s.SetU64(uint64(bits.LeadingZeros32(%s.U32()))) }",
		ctx.R(a), ctx.R(d), ctx.R(d), ctx.R(a))
	return true
}

func buildExtsb(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ctx.Println("\t%s.SetS64(int64(%s.S8()))", ctx.R(d), ctx.R(a))
	emitRecordFormCompare(ctx, d)
	return true
}

func buildExtsh(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ctx.Println("\t%s.SetS64(int64(%s.S16()))", ctx.R(d), ctx.R(a))
	emitRecordFormCompare(ctx, d)
	return true
}

func buildExtsw(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ctx.Println("\t%s.SetS64(int64(%s.S32()))", ctx.R(d), ctx.R(a))
	emitRecordFormCompare(ctx, d)
	return true
}

// rlwinmMask computes the rotate/mask constant using the same MASK(mb,me)
// definition the shift/rotate emission rules require, including the wrap
// case mb > me. Kept here (rather than inlined) since the three 32-bit
// rotate builders share it.
func rlwinmMask(mb, me uint32) uint32 { return computeMask(mb, me) }

func buildRlwinm(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	sh, mb, me := ctx.Insn.Operands[2], ctx.Insn.Operands[3], ctx.Insn.Operands[4]
	mask := rlwinmMask(mb, me)
	ctx.Println("\t%s.SetU64(uint64(bits.RotateLeft32(%s.U32(), %d) & 0x%X))",
		ctx.R(d), ctx.R(a), int(sh), mask)
	emitRecordFormCompare(ctx, d)
	return true
}

func buildRlwnm(ctx *codegen.Context) bool {
	d, a, s := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	mb, me := ctx.Insn.Operands[3], ctx.Insn.Operands[4]
	mask := rlwinmMask(mb, me)
	ctx.Println("\t%s.SetU64(uint64(bits.RotateLeft32(%s.U32(), int(%s.U32()&0x1F)) & 0x%X))",
		ctx.R(d), ctx.R(a), ctx.R(s), mask)
	emitRecordFormCompare(ctx, d)
	return true
}

func buildRlwimi(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	sh, mb, me := ctx.Insn.Operands[2], ctx.Insn.Operands[3], ctx.Insn.Operands[4]
	mask := rlwinmMask(mb, me)
	ctx.Println("\t%s.SetU64((%s.U64() &^ 0x%X) | uint64(bits.RotateLeft32(%s.U32(), %d) & 0x%X))",
		ctx.R(d), ctx.R(d), mask, ctx.R(a), int(sh), mask)
	emitRecordFormCompare(ctx, d)
	return true
}

func buildSlw(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\tif %s.U32()&0x20 != 0 { %s.SetU64(0) } else { %s.SetU64(uint64(%s.U32() << (%s.U32()&0x1F))) }",
		ctx.R(b), ctx.R(d), ctx.R(d), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)
	return true
}

func buildSrw(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\tif %s.U32()&0x20 != 0 { %s.SetU64(0) } else { %s.SetU64(uint64(%s.U32() >> (%s.U32()&0x1F))) }",
		ctx.R(b), ctx.R(d), ctx.R(d), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)
	return true
}

// buildSrawi shifts arithmetically and additionally sets XER.CA to the
// sign-in-and-any-bit-shifted-out condition the algebraic shift requires.
func buildSrawi(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	sh := int(ctx.Insn.Operands[2])
	ctx.Println("\t%s.SetS64(int64(%s.S32() >> %d))", ctx.R(d), ctx.R(a), sh)
	ctx.Println("\t%s.CA = %s.S32() < 0 && (%s.U32()&((1<<%d)-1)) != 0",
		ctx.XER(), ctx.R(a), ctx.R(a), sh)
	emitRecordFormCompare(ctx, d)
	return true
}

func buildSraw(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetS64(int64(%s.S32() >> (%s.U32()&0x1F)))", ctx.R(d), ctx.R(a), ctx.R(b))
	ctx.Println("\t%s.CA = %s.S32() < 0 && (%s.U32()&((1<<(%s.U32()&0x1F))-1)) != 0",
		ctx.XER(), ctx.R(a), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)
	return true
}

// buildRldicl/buildRldicr/buildRldimi are the doubleword rotate/mask forms,
// mirroring buildRlwinm/buildRlwimi at 64-bit width with bits.RotateLeft64
// and computeMask64.
func buildRldicl(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	sh, mb := ctx.Insn.Operands[2], ctx.Insn.Operands[3]
	mask := computeMask64(mb, 63)
	ctx.Println("\t%s.SetU64(bits.RotateLeft64(%s.U64(), %d) & 0x%X)",
		ctx.R(d), ctx.R(a), int(sh), mask)
	emitRecordFormCompare(ctx, d)
	return true
}

func buildRldicr(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	sh, me := ctx.Insn.Operands[2], ctx.Insn.Operands[3]
	mask := computeMask64(0, me)
	ctx.Println("\t%s.SetU64(bits.RotateLeft64(%s.U64(), %d) & 0x%X)",
		ctx.R(d), ctx.R(a), int(sh), mask)
	emitRecordFormCompare(ctx, d)
	return true
}

func buildRldimi(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	sh, mb := ctx.Insn.Operands[2], ctx.Insn.Operands[3]
	mask := computeMask64(mb, 63-sh)
	ctx.Println("\t%s.SetU64((%s.U64() &^ 0x%X) | (bits.RotateLeft64(%s.U64(), %d) & 0x%X))",
		ctx.R(d), ctx.R(d), mask, ctx.R(a), int(sh), mask)
	emitRecordFormCompare(ctx, d)
	return true
}

func buildSld(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\tif %s.U32()&0x40 != 0 { %s.SetU64(0) } else { %s.SetU64(%s.U64() << (%s.U64()&0x3F)) }",
		ctx.R(b), ctx.R(d), ctx.R(d), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)
	return true
}

func buildSrd(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\tif %s.U32()&0x40 != 0 { %s.SetU64(0) } else { %s.SetU64(%s.U64() >> (%s.U64()&0x3F)) }",
		ctx.R(b), ctx.R(d), ctx.R(d), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)
	return true
}

func buildSrad(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetS64(%s.S64() >> (%s.U64()&0x3F))", ctx.R(d), ctx.R(a), ctx.R(b))
	ctx.Println("\t%s.CA = %s.S64() < 0 && (%s.U64()&((1<<(%s.U64()&0x3F))-1)) != 0",
		ctx.XER(), ctx.R(a), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)
	return true
}

func buildSradi(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	sh := int(ctx.Insn.Operands[2])
	ctx.Println("\t%s.SetS64(%s.S64() >> %d)", ctx.R(d), ctx.R(a), sh)
	ctx.Println("\t%s.CA = %s.S64() < 0 && (%s.U64()&((1<<%d)-1)) != 0",
		ctx.XER(), ctx.R(a), ctx.R(a), sh)
	emitRecordFormCompare(ctx, d)
	return true
}
