package builders

import "rexrecomp/internal/codegen"

// buildAdd emits rD = rA + rB, appending the record-form comparison when the
// instruction carries the record-form marker.
func buildAdd(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64(uint64(%s.S64() + %s.S64()))", ctx.R(d), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)
	return true
}

func buildAddi(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	simm := int32(ctx.Insn.Operands[2])
	if a == 0 {
		ctx.Println("\t%s.SetS64(int64(%d))", ctx.R(d), simm)
	} else {
		ctx.Println("\t%s.SetS64(%s.S64() + int64(%d))", ctx.R(d), ctx.R(a), simm)
	}
	return true
}

func buildAddic(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	simm := int32(ctx.Insn.Operands[2])
	ctx.Println("\t%s.SetU64(uint64(%s.S64() + int64(%d)))", ctx.R(d), ctx.R(a), simm)
	ctx.Println("\t%s.CA = %s.U64() < uint64(int64(%d))", ctx.XER(), ctx.R(d), -simm)
	return true
}

func buildAddis(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	simm := int32(ctx.Insn.Operands[2]) << 16
	if a == 0 {
		ctx.Println("\t%s.SetS64(int64(%d))", ctx.R(d), simm)
	} else {
		ctx.Println("\t%s.SetS64(%s.S64() + int64(%d))", ctx.R(d), ctx.R(a), simm)
	}
	if isMMIOUpperBits(uint32(int32(simm)) >> 16) {
		ctx.TagMMIOBase(d)
	} else {
		ctx.ClearMMIOBase(d)
	}
	return true
}

func buildSubf(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64(uint64(%s.S64() - %s.S64()))", ctx.R(d), ctx.R(b), ctx.R(a))
	emitRecordFormCompare(ctx, d)
	return true
}

func buildSubfic(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	simm := int32(ctx.Insn.Operands[2])
	ctx.Println("\t%s.SetU64(uint64(int64(%d) - %s.S64()))", ctx.R(d), simm, ctx.R(a))
	ctx.Println("\t%s.CA = %s.U64() <= uint64(int64(%d))", ctx.XER(), ctx.R(a), simm)
	return true
}

func buildNeg(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	ctx.Println("\t%s.SetS64(-%s.S64())", ctx.R(d), ctx.R(a))
	emitRecordFormCompare(ctx, d)
	return true
}

func buildMulli(ctx *codegen.Context) bool {
	d, a := ctx.Insn.Operands[0], ctx.Insn.Operands[1]
	simm := int32(ctx.Insn.Operands[2])
	ctx.Println("\t%s.SetS64(int64(int32(%s.S64())) * int64(%d))", ctx.R(d), ctx.R(a), simm)
	return true
}

func buildMullw(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetS64(int64(int32(%s.S64())) * int64(int32(%s.S64())))", ctx.R(d), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)
	return true
}

func buildMulhw(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetS64(int64((int64(int32(%s.S64())) * int64(int32(%s.S64()))) >> 32))",
		ctx.R(d), ctx.R(a), ctx.R(b))
	return true
}

func buildMulhwu(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.SetU64((uint64(uint32(%s.U64())) * uint64(uint32(%s.U64()))) >> 32)",
		ctx.R(d), ctx.R(a), ctx.R(b))
	return true
}

func buildDivw(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\tif %s.S32() == 0 { %s.SetS64(0) } else { %s.SetS64(int64(int32(%s.S64()) / int32(%s.S64()))) }",
		ctx.R(b), ctx.R(d), ctx.R(d), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)
	return true
}

func buildDivwu(ctx *codegen.Context) bool {
	d, a, b := ctx.Insn.Operands[0], ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\tif %s.U32() == 0 { %s.SetU64(0) } else { %s.SetU64(uint64(uint32(%s.U64()) / uint32(%s.U64()))) }",
		ctx.R(b), ctx.R(d), ctx.R(d), ctx.R(a), ctx.R(b))
	emitRecordFormCompare(ctx, d)
	return true
}
