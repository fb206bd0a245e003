package builders

import "rexrecomp/internal/codegen"

// buildCmp emits field.Compare<T>(a, b, xer) against the requested width and
// signedness, copying XER.SO into the field's SO bit.
func buildCmp(ctx *codegen.Context) bool {
	field := ctx.Insn.Operands[0]
	a, b := ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.Compare(%s.S64(), %s.S64(), %s.SO)", ctx.CR(field), ctx.R(a), ctx.R(b), ctx.XER())
	return true
}

func buildCmpi(ctx *codegen.Context) bool {
	field := ctx.Insn.Operands[0]
	a := ctx.Insn.Operands[1]
	simm := int32(ctx.Insn.Operands[2])
	ctx.Println("\t%s.Compare(%s.S64(), int64(%d), %s.SO)", ctx.CR(field), ctx.R(a), simm, ctx.XER())
	return true
}

func buildCmpl(ctx *codegen.Context) bool {
	field := ctx.Insn.Operands[0]
	a, b := ctx.Insn.Operands[1], ctx.Insn.Operands[2]
	ctx.Println("\t%s.CompareUnsigned(%s.U64(), %s.U64(), %s.SO)", ctx.CR(field), ctx.R(a), ctx.R(b), ctx.XER())
	return true
}

func buildCmpli(ctx *codegen.Context) bool {
	field := ctx.Insn.Operands[0]
	a := ctx.Insn.Operands[1]
	uimm := ctx.Insn.Operands[2]
	ctx.Println("\t%s.CompareUnsigned(%s.U64(), uint64(%d), %s.SO)", ctx.CR(field), ctx.R(a), uimm, ctx.XER())
	return true
}
