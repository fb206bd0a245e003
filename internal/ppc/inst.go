// Package ppc holds the decoded-instruction data model and the mnemonic
// enumeration the dispatch table is keyed on. The decoder itself wraps
// golang.org/x/arch/ppc64/ppc64asm, the sibling package to the arm64/arm64asm
// decoder the teacher already depends on for its own disassembly pipeline.
package ppc

// Mnemonic identifies an instruction independent of its record-form marker.
// The set covers a representative slice of the architecture's roughly 500
// mnemonics spanning every category named by the dispatch table: integer
// arithmetic and logical, shifts and rotates, compares, the four load/store
// shapes, floating point, AltiVec/VMX128 vector operations, control flow
// (including every conditional-branch and decrement-and-branch form), traps,
// and special-register moves. Mnemonics outside this set decode successfully
// but have no dispatch entry, which is the documented miss case, not a bug.
type Mnemonic int

const (
	MnemonicUnknown Mnemonic = iota

	// Integer arithmetic.
	ADD
	ADDI
	ADDIC
	ADDIS
	ADDC
	ADDE
	ADDME
	ADDZE
	SUBF
	SUBFC
	SUBFE
	SUBFIC
	SUBFME
	SUBFZE
	NEG
	MULLI
	MULLW
	MULHW
	MULHWU
	DIVW
	DIVWU

	// Integer logical.
	AND
	ANDC
	ANDI
	ANDIS
	OR
	ORC
	ORI
	ORIS
	XOR
	XORI
	XORIS
	NAND
	NOR
	NOT
	EQV
	CNTLZW
	CNTLZD
	EXTSB
	EXTSH
	EXTSW

	// Rotate / shift.
	RLWINM
	RLWNM
	RLWIMI
	RLDICL
	RLDICR
	RLDIMI
	SLW
	SRW
	SRAW
	SRAWI
	SLD
	SRD
	SRAD
	SRADI

	// Compare.
	CMP
	CMPI
	CMPL
	CMPLI

	// Loads.
	LBZ
	LBZU
	LBZX
	LHZ
	LHZU
	LHZX
	LHA
	LHAU
	LHAX
	LWZ
	LWZU
	LWZX
	LWA
	LWAX
	LD
	LDU
	LDX
	LHBRX
	LWBRX
	LWARX
	LDARX

	// Stores.
	STB
	STBU
	STBX
	STH
	STHU
	STHX
	STW
	STWU
	STWX
	STD
	STDU
	STDX
	STHBRX
	STWBRX
	STWCX
	STDCX

	// Floating point.
	FADD
	FSUB
	FMUL
	FDIV
	FMADD
	FMSUB
	FNMADD
	FNMSUB
	FNEG
	FABS
	FCMPU
	FCMPO
	FCTIW
	FCTIWZ
	FCFID
	FRSP
	FNABS
	FSEL
	STFIWX
	LFS
	LFSU
	LFSX
	LFD
	LFDU
	LFDX
	STFS
	STFSU
	STFSX
	STFD
	STFDU
	STFDX
	MFFS
	MTFSF

	// Vector / AltiVec / VMX128.
	VADDFP
	VSUBFP
	VMULFP
	VMADDFP
	VAND
	VANDC
	VOR
	VXOR
	VNOR
	VPERM
	VSPLTW
	VSPLTISW
	VNMSUBFP
	LVX
	LVX128
	STVX
	STVX128
	LVLX
	LVRX
	VADDFP128
	VSUBFP128
	VMULFP128

	// Control flow.
	B
	BL
	BC
	BCL
	BCLR
	BCLRL
	BCCTR
	BCCTRL
	BLR
	BLRL
	BCTR
	BCTRL

	// System / trap.
	TW
	TWI
	TD
	TDI
	MTSPR
	MFSPR
	MTCRF
	MFCR
	MTMSR
	MFMSR
	SYNC
	ISYNC
	EIEIO
	LWSYNC
	DCBT
	DCBTST
	DCBZ
	MTMSRD
	CRAND
	CROR
	CRXOR
	CRNAND
	CRNOR
	CREQV
	CRANDC
	CRORC
	NOP

	mnemonicCount
)

// OperandKind distinguishes how DecodedInstruction.Operands entries should
// be interpreted; the recompiler treats operand meaning as per-mnemonic, so
// this is informational only.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandRegister
	OperandImmediate
	OperandCRField
)

// DecodedInstruction is the immutable record the external decoder returns
// for one 4-byte guest instruction word.
type DecodedInstruction struct {
	Address    uint32
	Raw        uint32
	Mnemonic   Mnemonic
	Name       string // opcode name, may carry a trailing "." record-form marker
	Operands   [5]uint32
	RecordForm bool
}

// IsRecordForm reports whether the instruction updates the primary condition
// field in addition to its normal effect.
func (d DecodedInstruction) IsRecordForm() bool { return d.RecordForm }
