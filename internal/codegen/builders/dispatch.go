package builders

import (
	"rexrecomp/internal/codegen"
	"rexrecomp/internal/ppc"
	"rexrecomp/internal/rexlog"
)

// table maps a decoded mnemonic to the builder that emits its target-source
// fragment. Built once at package init; mnemonics with no entry take the
// documented miss-case path in Dispatch, not a build failure.
var table = map[ppc.Mnemonic]Builder{
	ppc.ADD:    buildAdd,
	ppc.ADDI:   buildAddi,
	ppc.ADDIC:  buildAddic,
	ppc.ADDIS:  buildAddis,
	ppc.SUBF:   buildSubf,
	ppc.SUBFIC: buildSubfic,
	ppc.NEG:    buildNeg,
	ppc.MULLI:  buildMulli,
	ppc.MULLW:  buildMullw,
	ppc.MULHW:  buildMulhw,
	ppc.MULHWU: buildMulhwu,
	ppc.DIVW:   buildDivw,
	ppc.DIVWU:  buildDivwu,

	ppc.AND:    buildAnd,
	ppc.ANDC:   buildAndc,
	ppc.ANDI:   buildAndi,
	ppc.ANDIS:  buildAndis,
	ppc.OR:     buildOr,
	ppc.ORC:    buildOrc,
	ppc.ORI:    buildOri,
	ppc.ORIS:   buildOris,
	ppc.XOR:    buildXor,
	ppc.XORI:   buildXori,
	ppc.XORIS:  buildXoris,
	ppc.NAND:   buildNand,
	ppc.NOR:    buildNor,
	ppc.NOT:    buildNot,
	ppc.EQV:    buildEqv,
	ppc.CNTLZW: buildCntlzw,
	ppc.CNTLZD: buildCntlzd,
	ppc.EXTSB:  buildExtsb,
	ppc.EXTSH:  buildExtsh,
	ppc.EXTSW:  buildExtsw,

	ppc.RLWINM: buildRlwinm,
	ppc.RLWNM:  buildRlwnm,
	ppc.RLWIMI: buildRlwimi,
	ppc.RLDICL: buildRldicl,
	ppc.RLDICR: buildRldicr,
	ppc.RLDIMI: buildRldimi,
	ppc.SLW:    buildSlw,
	ppc.SRW:    buildSrw,
	ppc.SRAW:   buildSraw,
	ppc.SRAWI:  buildSrawi,
	ppc.SLD:    buildSld,
	ppc.SRD:    buildSrd,
	ppc.SRAD:   buildSrad,
	ppc.SRADI:  buildSradi,

	ppc.CMP:   buildCmp,
	ppc.CMPI:  buildCmpi,
	ppc.CMPL:  buildCmpl,
	ppc.CMPLI: buildCmpli,

	ppc.LBZ:  buildLoadDForm(8, false),
	ppc.LBZU: buildLoadUpdate(8, false),
	ppc.LBZX: buildLoadXForm(8, false),
	ppc.LHZ:  buildLoadDForm(16, false),
	ppc.LHZU: buildLoadUpdate(16, false),
	ppc.LHZX: buildLoadXForm(16, false),
	ppc.LHA:  buildLoadDForm(16, true),
	ppc.LHAU: buildLoadUpdate(16, true),
	ppc.LHAX: buildLoadXForm(16, true),
	ppc.LWZ:  buildLoadDForm(32, false),
	ppc.LWZU: buildLoadUpdate(32, false),
	ppc.LWZX: buildLoadXForm(32, false),
	ppc.LWA:  buildLoadDForm(32, true),
	ppc.LWAX: buildLoadXForm(32, true),
	ppc.LD:   buildLoadDForm(64, false),
	ppc.LDU:  buildLoadUpdate(64, false),
	ppc.LDX:  buildLoadXForm(64, false),

	ppc.LHBRX: buildLoadByteReversed(16),
	ppc.LWBRX: buildLoadByteReversed(32),
	ppc.LWARX: buildLwarx,
	ppc.LDARX: buildLdarx,

	ppc.STB:    buildStoreDForm(8),
	ppc.STBU:   buildStoreUpdate(8),
	ppc.STBX:   buildStoreXForm(8),
	ppc.STH:    buildStoreDForm(16),
	ppc.STHU:   buildStoreUpdate(16),
	ppc.STHX:   buildStoreXForm(16),
	ppc.STW:    buildStoreDForm(32),
	ppc.STWU:   buildStoreUpdate(32),
	ppc.STWX:   buildStoreXForm(32),
	ppc.STD:    buildStoreDForm(64),
	ppc.STDU:   buildStoreUpdate(64),
	ppc.STDX:   buildStoreXForm(64),
	ppc.STHBRX: buildStoreByteReversed(16),
	ppc.STWBRX: buildStoreByteReversed(32),
	ppc.STWCX:  buildStwcx,
	ppc.STDCX:  buildStdcx,

	ppc.FADD:   buildFadd,
	ppc.FSUB:   buildFsub,
	ppc.FMUL:   buildFmul,
	ppc.FDIV:   buildFdiv,
	ppc.FMADD:  buildFmadd,
	ppc.FMSUB:  buildFmsub,
	ppc.FNMADD: buildFnmadd,
	ppc.FNMSUB: buildFnmsub,
	ppc.FNEG:   buildFneg,
	ppc.FABS:   buildFabs,
	ppc.FCMPU:  buildFcmpu,
	ppc.FCMPO:  buildFcmpo,
	ppc.FCTIWZ: buildFctiwz,
	ppc.FCFID:  buildFcfid,
	ppc.FRSP:   buildFrsp,
	ppc.FNABS:  buildFnabs,
	ppc.FSEL:   buildFsel,
	ppc.STFIWX: buildStfiwx,
	ppc.LFS:    buildLfs,
	ppc.LFSU:   buildLfsu,
	ppc.LFSX:   buildLfsx,
	ppc.LFD:    buildLfd,
	ppc.LFDU:   buildLfdu,
	ppc.LFDX:   buildLfdx,
	ppc.STFS:   buildStfs,
	ppc.STFSX:  buildStfsx,
	ppc.STFD:   buildStfd,
	ppc.STFDX:  buildStfdx,
	ppc.MFFS:   buildMffs,
	ppc.MTFSF:  buildMtfsf,

	ppc.VADDFP:   buildVaddfp,
	ppc.VSUBFP:   buildVsubfp,
	ppc.VMULFP:   buildVmulfp,
	ppc.VMADDFP:  buildVmaddfp,
	ppc.VNMSUBFP: buildVnmsubfp,
	ppc.VAND:     buildVand,
	ppc.VANDC:    buildVandc,
	ppc.VOR:      buildVor,
	ppc.VXOR:     buildVxor,
	ppc.VNOR:     buildVnor,
	ppc.VPERM:    buildVperm,
	ppc.VSPLTW:   buildVspltw,
	ppc.VSPLTISW: buildVspltisw,
	ppc.LVX:      buildLvx,
	ppc.STVX:     buildStvx,
	ppc.LVLX:     buildLvlx,
	ppc.LVRX:     buildLvrx,
	// VMX128 forms alias their scalar counterparts: same lane layout, wider
	// register-index encoding only.
	ppc.LVX128:      buildLvx128,
	ppc.STVX128:     buildStvx128,
	ppc.VADDFP128:   buildVaddfp128,
	ppc.VSUBFP128:   buildVsubfp128,
	ppc.VMULFP128:   buildVmulfp128,

	ppc.B:      buildB,
	ppc.BL:     buildBl,
	ppc.BC:     buildBc,
	ppc.BCL:    buildBcl,
	ppc.BCLR:   buildBclr,
	ppc.BCLRL:  buildBclrl,
	ppc.BCCTR:  buildBcctr,
	ppc.BCCTRL: buildBcctrl,
	ppc.BLR:    buildBlr,
	ppc.BLRL:   buildBlrl,
	ppc.BCTR:   buildBctr,
	ppc.BCTRL:  buildBctrl,

	ppc.TW:  buildTw,
	ppc.TWI: buildTwi,
	ppc.TD:  buildTd,
	ppc.TDI: buildTdi,

	ppc.MFCR:  buildMfcr,
	ppc.MTCRF: buildMtcrf,
	ppc.MFMSR: buildMfmsr,
	ppc.MTMSR: buildMtmsr,
	ppc.MTMSRD: buildMtmsrd,
	ppc.MTSPR: buildMtspr,
	ppc.MFSPR: buildMfspr,

	ppc.SYNC:   buildSync,
	ppc.ISYNC:  buildIsync,
	ppc.EIEIO:  buildEieio,
	ppc.LWSYNC: buildLwsync,
	ppc.DCBT:   buildDcbt,
	ppc.DCBTST: buildDcbtst,
	ppc.DCBZ:   buildDcbz,

	ppc.CRAND:  buildCrand,
	ppc.CRANDC: buildCrandc,
	ppc.CROR:   buildCror,
	ppc.CRORC:  buildCrorc,
	ppc.CRXOR:  buildCrxor,
	ppc.CRNAND: buildCrnand,
	ppc.CRNOR:  buildCrnor,
	ppc.CREQV:  buildCreqv,

	ppc.NOP: buildNop,
}

func buildNop(ctx *codegen.Context) bool {
	ctx.Println("\t// nop")
	return true
}

// Dispatch looks up and invokes the builder for ctx.Insn.Mnemonic. On a miss
// — either no dispatch entry or the builder itself declining — it emits a
// comment plus a runtime fatal trap rather than failing the whole build,
// per the documented miss-case policy: an unimplemented mnemonic degrades
// one function's output, it never aborts the run.
func Dispatch(ctx *codegen.Context) {
	b, ok := table[ctx.Insn.Mnemonic]
	if ok && b(ctx) {
		return
	}
	rexlog.Default().Warn("no builder for %s at %#x", ctx.Insn.Name, ctx.Base)
	ctx.Println("\t// unimplemented: %s", ctx.Insn.Name)
	ctx.Println("\tpanic(fmt.Sprintf(\"unimplemented instruction %%s at 0x%%X\", %q, 0x%X))", ctx.Insn.Name, ctx.Base)
}
