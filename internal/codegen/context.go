// Package codegen holds the per-instruction build context: the register
// accessor closures, the local-promotion bitmap they toggle, the CSR state
// machine, and the MMIO base-register heuristic state. Builders (in the
// builders subpackage) consume a *Context and append fragments to it.
package codegen

import (
	"fmt"
	"strings"

	"rexrecomp/internal/model"
	"rexrecomp/internal/ppc"
)

// CSRMode is the three-valued flag tracking the last mode set on the host
// floating-point control word.
type CSRMode int

const (
	CSRUnknown CSRMode = iota
	CSRFPU
	CSRVMX
)

// LocalPromotionSet is a per-function bitmap recording which context slots
// the current function elected to materialize as local storage.
type LocalPromotionSet struct {
	GPR        [32]bool
	FPR        [32]bool
	VR         [128]bool
	CR         [8]bool
	CTR        bool
	XER        bool
	Reserved   bool
	Reserved64 bool
	Temp       bool
	VTemp      bool
	EA         bool
}

// Function is the subset of a FunctionNode the context needs while framing
// one function: its address range, for the branch bounds check, plus the
// config flags that decide which registers may become locals.
type Function struct {
	Node *model.FunctionNode
	Cfg  model.Config
}

func (fn Function) Base() uint32 { return fn.Node.Base }
func (fn Function) End() uint32  { return fn.Node.End }

// Context is the per-instruction build context, generalizing the source's
// BuilderContext: it carries the decoded instruction, the current guest
// address, the raw instruction stream for lookahead, the owning function,
// the local-promotion set, and the CSR state, plus MMIO base-register
// tracking threaded across the whole function.
type Context struct {
	Insn   ppc.DecodedInstruction
	Base   uint32 // current guest address, equals Insn.Address
	Stream []ppc.DecodedInstruction
	Index  int // Insn's index within Stream

	Fn        Function
	Graph     model.FunctionGraph
	Promotion *LocalPromotionSet
	CSR       CSRMode

	// mmioBase tags a GPR that a preceding lis/oris loaded with an upper
	// half in a known Xbox 360 hardware-register range, propagated through
	// or/ori/oris register-copy idioms.
	mmioBase [32]bool

	out strings.Builder
}

// NewContext returns a fresh Context for one function, sharing the given
// promotion set across every instruction in the function.
func NewContext(fn Function, graph model.FunctionGraph, promotion *LocalPromotionSet) *Context {
	return &Context{Fn: fn, Graph: graph, Promotion: promotion}
}

// Print and Println append raw text to the current output, matching the
// source's ctx.print/ctx.println helpers.
func (c *Context) Print(format string, args ...any)   { fmt.Fprintf(&c.out, format, args...) }
func (c *Context) Println(format string, args ...any) { fmt.Fprintf(&c.out, format+"\n", args...) }

// String returns everything emitted so far.
func (c *Context) String() string { return c.out.String() }

// Reset clears emitted text, keeping the promotion set and MMIO tags — used
// between instructions within the same function body pass.
func (c *Context) Reset() { c.out.Reset() }

// R returns the symbol for GPR index i, promoting it to a local if the
// config flag for its category allows it.
func (c *Context) R(i uint32) string {
	i &= 31
	if c.wantsGPRLocal(i) {
		c.Promotion.GPR[i] = true
		return fmt.Sprintf("r%d", i)
	}
	return fmt.Sprintf("ctx.R[%d]", i)
}

func (c *Context) wantsGPRLocal(i uint32) bool {
	cfg := c.Fn.Cfg
	switch {
	case i >= 14:
		return cfg.NonVolatileRegistersAsLocalVariables
	case i >= 3 && i <= 10:
		return false // argument registers are never auto-promoted
	default:
		return cfg.NonArgumentRegistersAsLocalVariables
	}
}

// F returns the symbol for FPR index i.
func (c *Context) F(i uint32) string {
	i &= 31
	c.Promotion.FPR[i] = true
	return fmt.Sprintf("f%d", i)
}

// V returns the symbol for vector register index i.
func (c *Context) V(i uint32) string {
	i &= 127
	c.Promotion.VR[i] = true
	return fmt.Sprintf("v%d", i)
}

// CR returns the symbol for condition-register field i (0-7).
func (c *Context) CR(i uint32) string {
	i &= 7
	if c.Fn.Cfg.CrRegistersAsLocalVariables {
		c.Promotion.CR[i] = true
		return fmt.Sprintf("cr%d", i)
	}
	return fmt.Sprintf("ctx.CR[%d]", i)
}

// CTR returns the symbol for the count register.
func (c *Context) CTR() string {
	if c.Fn.Cfg.CtrAsLocalVariable {
		c.Promotion.CTR = true
		return "ctr"
	}
	return "ctx.CTR"
}

// XER returns the symbol for the XER register.
func (c *Context) XER() string {
	if c.Fn.Cfg.XerAsLocalVariable {
		c.Promotion.XER = true
		return "xer"
	}
	return "ctx.XER"
}

// Reserved returns the symbol for the load-reserve slot.
func (c *Context) Reserved() string {
	if c.Fn.Cfg.ReservedRegisterAsLocalVariable {
		c.Promotion.Reserved = true
		return "reserved"
	}
	return "ctx.Reserved"
}

// Reserved64 returns the symbol for the doubleword load-reserve slot.
func (c *Context) Reserved64() string {
	if c.Fn.Cfg.ReservedRegisterAsLocalVariable {
		c.Promotion.Reserved64 = true
		return "reserved64"
	}
	return "ctx.Reserved64"
}

// Temp returns the always-local scratch scalar slot.
func (c *Context) Temp() string {
	c.Promotion.Temp = true
	return "temp"
}

// VTemp returns the always-local scratch vector slot.
func (c *Context) VTemp() string {
	c.Promotion.VTemp = true
	return "vtemp"
}

// EA returns the always-local effective-address slot.
func (c *Context) EA() string {
	c.Promotion.EA = true
	return "ea"
}

// TagMMIOBase marks GPR i as having been loaded with a known hardware
// register upper half by a preceding lis/oris.
func (c *Context) TagMMIOBase(i uint32) { c.mmioBase[i&31] = true }

// ClearMMIOBase removes the tag, e.g. once a register has been overwritten
// by something other than a propagating copy idiom.
func (c *Context) ClearMMIOBase(i uint32) { c.mmioBase[i&31] = false }

// IsMMIOBase reports whether GPR i currently carries the MMIO base tag.
func (c *Context) IsMMIOBase(i uint32) bool { return c.mmioBase[i&31] }

// PropagateMMIOBase copies the tag from src to dst, used by the
// or(mr)/ori/oris register-copy idioms that carry a tagged base forward.
func (c *Context) PropagateMMIOBase(dst, src uint32) {
	c.mmioBase[dst&31] = c.mmioBase[src&31]
}

// MMIOCheckDForm reports whether baseReg, the memory operand's base
// register, is currently MMIO-tagged, or the next instruction in the stream
// is an explicit eieio barrier — the store-macro selection heuristic from
// the emission rules.
func (c *Context) MMIOCheckDForm(baseReg uint32) bool {
	if c.IsMMIOBase(baseReg) {
		return true
	}
	if c.Index+1 < len(c.Stream) {
		return c.Stream[c.Index+1].Mnemonic == ppc.EIEIO
	}
	return false
}

// IsMMIOUpperBits reports whether an upper-16-bit immediate loaded by
// lis/oris falls in a known Xbox 360 hardware register range: GPU MMIO
// (0x7FC8-0x7FCF) or XMA/APU MMIO (0x7FEA).
func IsMMIOUpperBits(imm uint32) bool {
	return (imm >= 0x7FC8 && imm <= 0x7FCF) || imm == 0x7FEA
}
