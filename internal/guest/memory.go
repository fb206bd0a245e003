package guest

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// Memory is the guest's flat address space backing every emitted load and
// store: a single byte slice indexed by guest virtual address, big-endian
// throughout (the Xbox 360's native byte order), with the guest's base
// address subtracted by the caller before these helpers are reached.

func MemLoad8(base []byte, addr uint32) uint8   { return base[addr] }
func MemLoad16(base []byte, addr uint32) uint16 { return binary.BigEndian.Uint16(base[addr:]) }
func MemLoad32(base []byte, addr uint32) uint32 { return binary.BigEndian.Uint32(base[addr:]) }
func MemLoad64(base []byte, addr uint32) uint64 { return binary.BigEndian.Uint64(base[addr:]) }

func MemStore8(base []byte, addr uint32, v uint8)   { base[addr] = v }
func MemStore16(base []byte, addr uint32, v uint16) { binary.BigEndian.PutUint16(base[addr:], v) }
func MemStore32(base []byte, addr uint32, v uint32) { binary.BigEndian.PutUint32(base[addr:], v) }
func MemStore64(base []byte, addr uint32, v uint64) { binary.BigEndian.PutUint64(base[addr:], v) }

func MemLoadF32(base []byte, addr uint32) float32 {
	return math.Float32frombits(MemLoad32(base, addr))
}
func MemLoadF64(base []byte, addr uint32) float64 {
	return math.Float64frombits(MemLoad64(base, addr))
}
func MemStoreF32(base []byte, addr uint32, v float32) { MemStore32(base, addr, math.Float32bits(v)) }
func MemStoreF64(base []byte, addr uint32, v float64) { MemStore64(base, addr, math.Float64bits(v)) }

// MemMMIOStore8/16/32/64 route through the same big-endian encoding as the
// normal stores; the MMIO/non-MMIO split exists at code-generation time
// (the store-macro heuristic) so a debugger can distinguish hardware-facing
// writes from ordinary memory traffic, not because the encoding differs.
func MemMMIOStore8(base []byte, addr uint32, v uint8)   { MemStore8(base, addr, v) }
func MemMMIOStore16(base []byte, addr uint32, v uint16) { MemStore16(base, addr, v) }
func MemMMIOStore32(base []byte, addr uint32, v uint32) { MemStore32(base, addr, v) }
func MemMMIOStore64(base []byte, addr uint32, v uint64) { MemStore64(base, addr, v) }

func ByteSwap16(v uint16) uint16 { return bits.ReverseBytes16(v) }
func ByteSwap32(v uint32) uint32 { return bits.ReverseBytes32(v) }
func ByteSwap64(v uint64) uint64 { return bits.ReverseBytes64(v) }

// MemZeroCacheLine zeroes the 32-byte cache line containing addr, the one
// observable effect of the otherwise-hint-only dcbz instruction.
func MemZeroCacheLine(base []byte, addr uint32) {
	line := addr &^ 31
	end := line + 32
	if int(end) > len(base) {
		end = uint32(len(base))
	}
	clear(base[line:end])
}

// MemCompareAndSwap32 implements the store-conditional half of the
// load-reserve/store-conditional pair: the store commits only if the
// memory word still holds the value read by the matching lwarx.
func MemCompareAndSwap32(base []byte, addr uint32, expect, newVal uint32) bool {
	if MemLoad32(base, addr) != expect {
		return false
	}
	MemStore32(base, addr, newVal)
	return true
}

// MemCompareAndSwap64 is the doubleword counterpart of MemCompareAndSwap32,
// backing ldarx/stdcx.
func MemCompareAndSwap64(base []byte, addr uint32, expect, newVal uint64) bool {
	if MemLoad64(base, addr) != expect {
		return false
	}
	MemStore64(base, addr, newVal)
	return true
}

// PackCR packs the eight condition-register fields into the architecture's
// 32-bit layout, four bits per field, CR0 in the most significant nibble.
func PackCR(fields *[8]CRField) uint32 {
	var v uint32
	for i, f := range fields {
		nibble := packCRField(f)
		v |= nibble << uint((7-i)*4)
	}
	return v
}

func packCRField(f CRField) uint32 {
	var n uint32
	if f.LT {
		n |= 0x8
	}
	if f.GT {
		n |= 0x4
	}
	if f.EQ {
		n |= 0x2
	}
	if f.SO {
		n |= 0x1
	}
	return n
}

// UnpackCR writes the fields selected by mask (an mtcrf-style 8-bit field
// mask, one bit per CR field) from the packed word.
func UnpackCR(fields *[8]CRField, packed uint32, mask uint32) {
	for i := range fields {
		if mask&(1<<uint(7-i)) == 0 {
			continue
		}
		nibble := (packed >> uint((7-i)*4)) & 0xF
		fields[i] = CRField{
			LT: nibble&0x8 != 0,
			GT: nibble&0x4 != 0,
			EQ: nibble&0x2 != 0,
			SO: nibble&0x1 != 0,
		}
	}
}

// PackXER/UnpackXER convert between the fixed-point exception register's
// three sub-flags and the architecture's bit positions (CA=bit29, OV=bit30,
// SO=bit31 counting from the MSB).
func PackXER(x XER) uint32 {
	var v uint32
	if x.SO {
		v |= 1 << 31
	}
	if x.OV {
		v |= 1 << 30
	}
	if x.CA {
		v |= 1 << 29
	}
	return v
}

func UnpackXER(x *XER, v uint32) {
	x.SO = v&(1<<31) != 0
	x.OV = v&(1<<30) != 0
	x.CA = v&(1<<29) != 0
}

// PackFPSCR/UnpackFPSCR cover only the fields this build models.
func PackFPSCR(f *FPSCR) uint32 {
	var v uint32
	if f.FX {
		v |= 1 << 31
	}
	if f.FEX {
		v |= 1 << 30
	}
	if f.VX {
		v |= 1 << 29
	}
	if f.OX {
		v |= 1 << 28
	}
	v |= uint32(f.RoundingMode) & 0x3
	return v
}

func UnpackFPSCR(f *FPSCR, v uint32) {
	f.FX = v&(1<<31) != 0
	f.FEX = v&(1<<30) != 0
	f.VX = v&(1<<29) != 0
	f.OX = v&(1<<28) != 0
	f.RoundingMode = uint8(v & 0x3)
}

// SetFPUMode is the host-side hook a code generator may point at the
// platform FPU control word; this build tracks only the guest-visible
// rounding mode and leaves host FPU state at its default.
func SetFPUMode(f *FPSCR) {}

// SetVMXMode is the vector-unit equivalent of SetFPUMode.
func SetVMXMode() {}
