package ppc

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/arch/ppc64/ppc64asm"
)

// Decoder returns a decoded record per 4-byte guest instruction word. It is
// specified only by this interface (§2, "Instruction decoder (external)");
// Decode below is the reference implementation.
type Decoder interface {
	Decode(addr uint32, word uint32) (DecodedInstruction, error)
}

// ErrUndecodable is returned when neither the standard decoder nor the
// VMX128 extension recognizer can make sense of a word.
type ErrUndecodable struct {
	Address uint32
	Word    uint32
}

func (e *ErrUndecodable) Error() string {
	return fmt.Sprintf("ppc: undecodable instruction word 0x%08x at 0x%08x", e.Word, e.Address)
}

// stdDecoder wraps golang.org/x/arch/ppc64/ppc64asm, the sibling package to
// the arm64/arm64asm decoder already in the dependency tree, for the
// standard POWER/PowerPC encoding space. Xenon's VMX128 vector-extension
// encodings are Xbox 360-specific and fall outside what ppc64asm recognizes;
// those come back as a decode error here and are picked up by
// vmx128Extension before falling through to ErrUndecodable.
type stdDecoder struct{}

// Decode is the reference decoder: a plain function with the same signature
// as Decoder.Decode (framer.Decoder takes it as a function value). No type
// in this package implements the Decoder interface.
func Decode(addr uint32, word uint32) (DecodedInstruction, error) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], word)

	inst, err := ppc64asm.Decode(buf[:], binary.BigEndian)
	if err == nil {
		return fromStd(addr, word, inst), nil
	}

	if mn, name, ok := vmx128Extension(word); ok {
		return DecodedInstruction{
			Address:  addr,
			Raw:      word,
			Mnemonic: mn,
			Name:     name,
		}, nil
	}

	return DecodedInstruction{}, &ErrUndecodable{Address: addr, Word: word}
}

func fromStd(addr, word uint32, inst ppc64asm.Inst) DecodedInstruction {
	name := inst.Op.String()
	base, record := strings.CutSuffix(name, ".")

	mn, known := mnemonicByName[base]
	if !known {
		mn = MnemonicUnknown
	}

	d := DecodedInstruction{
		Address:    addr,
		Raw:        word,
		Mnemonic:   mn,
		Name:       name,
		RecordForm: record,
	}

	args := inst.Args
	for i := 0; i < len(args) && i < len(d.Operands); i++ {
		if args[i] == nil {
			break
		}
		d.Operands[i] = operandValue(addr, args[i])
	}
	return d
}

// operandValue extracts an unsigned numeric value from a ppc64asm.Arg,
// covering the register and immediate argument kinds the builders read.
// addr is the instruction's own address, needed to resolve PC-relative
// branch targets to absolute addresses.
func operandValue(addr uint32, arg ppc64asm.Arg) uint32 {
	switch v := arg.(type) {
	case ppc64asm.Reg:
		return uint32(v)
	case ppc64asm.CondReg:
		// CondReg carries both branch-condition bits (Cond0LT..Cond7SO,
		// BI 0-31) and condition-register fields (CR0..CR7, BF 0-7) in a
		// single type, distinguished only by range.
		if v >= ppc64asm.CR0 {
			return uint32(v - ppc64asm.CR0)
		}
		return uint32(v - ppc64asm.Cond0LT)
	case ppc64asm.SpReg:
		return uint32(v)
	case ppc64asm.Imm:
		return uint32(int32(v))
	case ppc64asm.Offset:
		return uint32(int32(v))
	case ppc64asm.PCRel:
		// PCRel is a signed displacement from the instruction's own
		// address, not an absolute target.
		return addr + uint32(int32(v))
	default:
		return 0
	}
}

// mnemonicByName maps ppc64asm's lowercase, dot-stripped mnemonic strings to
// the internal enumeration for the subset the dispatch table implements.
var mnemonicByName = map[string]Mnemonic{
	"add": ADD, "addi": ADDI, "addic": ADDIC, "addis": ADDIS,
	"addc": ADDC, "adde": ADDE, "addme": ADDME, "addze": ADDZE,
	"subf": SUBF, "subfc": SUBFC, "subfe": SUBFE, "subfic": SUBFIC,
	"subfme": SUBFME, "subfze": SUBFZE, "neg": NEG,
	"mulli": MULLI, "mullw": MULLW, "mulhw": MULHW, "mulhwu": MULHWU,
	"divw": DIVW, "divwu": DIVWU,

	"and": AND, "andc": ANDC, "andi": ANDI, "andis": ANDIS,
	"or": OR, "orc": ORC, "ori": ORI, "oris": ORIS,
	"xor": XOR, "xori": XORI, "xoris": XORIS,
	"nand": NAND, "nor": NOR, "not": NOT, "eqv": EQV,
	"cntlzw": CNTLZW, "cntlzd": CNTLZD,
	"extsb": EXTSB, "extsh": EXTSH, "extsw": EXTSW,

	"rlwinm": RLWINM, "rlwnm": RLWNM, "rlwimi": RLWIMI,
	"rldicl": RLDICL, "rldicr": RLDICR, "rldimi": RLDIMI,
	"slw": SLW, "srw": SRW, "sraw": SRAW, "srawi": SRAWI,
	"sld": SLD, "srd": SRD, "srad": SRAD, "sradi": SRADI,

	"cmp": CMP, "cmpi": CMPI, "cmpl": CMPL, "cmpli": CMPLI,

	"lbz": LBZ, "lbzu": LBZU, "lbzx": LBZX,
	"lhz": LHZ, "lhzu": LHZU, "lhzx": LHZX,
	"lha": LHA, "lhau": LHAU, "lhax": LHAX,
	"lwz": LWZ, "lwzu": LWZU, "lwzx": LWZX,
	"lwa": LWA, "lwax": LWAX,
	"ld": LD, "ldu": LDU, "ldx": LDX,
	"lhbrx": LHBRX, "lwbrx": LWBRX,
	"lwarx": LWARX, "ldarx": LDARX,

	"stb": STB, "stbu": STBU, "stbx": STBX,
	"sth": STH, "sthu": STHU, "sthx": STHX,
	"stw": STW, "stwu": STWU, "stwx": STWX,
	"std": STD, "stdu": STDU, "stdx": STDX,
	"sthbrx": STHBRX, "stwbrx": STWBRX,
	"stwcx": STWCX, "stdcx": STDCX,

	"fadd": FADD, "fsub": FSUB, "fmul": FMUL, "fdiv": FDIV,
	"fmadd": FMADD, "fmsub": FMSUB, "fnmadd": FNMADD, "fnmsub": FNMSUB,
	"fneg": FNEG, "fabs": FABS, "fcmpu": FCMPU, "fcmpo": FCMPO,
	"fctiw": FCTIW, "fctiwz": FCTIWZ, "fcfid": FCFID, "frsp": FRSP,
	"fnabs": FNABS, "fsel": FSEL, "stfiwx": STFIWX,
	"lfs": LFS, "lfsu": LFSU, "lfsx": LFSX,
	"lfd": LFD, "lfdu": LFDU, "lfdx": LFDX,
	"stfs": STFS, "stfsu": STFSU, "stfsx": STFSX,
	"stfd": STFD, "stfdu": STFDU, "stfdx": STFDX,
	"mffs": MFFS, "mtfsf": MTFSF,

	"vaddfp": VADDFP, "vsubfp": VSUBFP, "vmulfp": VMULFP, "vmaddfp": VMADDFP,
	"vand": VAND, "vandc": VANDC, "vor": VOR, "vxor": VXOR, "vnor": VNOR,
	"vperm": VPERM, "vspltw": VSPLTW, "vspltisw": VSPLTISW, "vnmsubfp": VNMSUBFP,
	"lvx": LVX, "stvx": STVX, "lvlx": LVLX, "lvrx": LVRX,

	"b": B, "bl": BL, "bc": BC, "bcl": BCL,
	"bclr": BCLR, "bclrl": BCLRL, "bcctr": BCCTR, "bcctrl": BCCTRL,

	"tw": TW, "twi": TWI, "td": TD, "tdi": TDI,
	"mtspr": MTSPR, "mfspr": MFSPR, "mtcrf": MTCRF, "mfcr": MFCR,
	"mtmsr": MTMSR, "mfmsr": MFMSR,
	"sync": SYNC, "isync": ISYNC, "eieio": EIEIO,
	"lwsync": LWSYNC, "dcbt": DCBT, "dcbtst": DCBTST, "dcbz": DCBZ, "mtmsrd": MTMSRD,
	"crand": CRAND, "cror": CROR, "crxor": CRXOR, "crnand": CRNAND,
	"crnor": CRNOR, "creqv": CREQV, "crandc": CRANDC, "crorc": CRORC,
	"nop": NOP,
}

// vmx128Extension recognizes the fixed set of Xenon VMX128 encodings that
// standard ppc64asm decode rejects: primary opcode 4 (the AltiVec major
// opcode space) with the 128-bit-register extension bit pattern the Xenon
// ISA reserves in bits otherwise undefined by the base architecture.
// Only the forms this dispatch table implements are recognized; anything
// else legitimately falls through to ErrUndecodable.
func vmx128Extension(word uint32) (Mnemonic, string, bool) {
	primary := word >> 26
	if primary != 4 {
		return MnemonicUnknown, "", false
	}
	ext := (word >> 21) & 0x1F

	switch {
	case ext == 0x00 && (word&0x3F) == 0x2A:
		return VADDFP128, "vaddfp128", true
	case ext == 0x01 && (word&0x3F) == 0x2A:
		return VSUBFP128, "vsubfp128", true
	case ext == 0x05 && (word&0x3F) == 0x2A:
		return VMULFP128, "vmulfp128", true
	case (word & 0x7FF) == 0x0607:
		return LVX128, "lvx128", true
	case (word & 0x7FF) == 0x0687:
		return STVX128, "stvx128", true
	default:
		return MnemonicUnknown, "", false
	}
}
