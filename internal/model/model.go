// Package model defines the external interfaces the recompiler depends on
// but does not implement: the binary image, the function-discovery graph,
// and the configuration document. Every type here is supplied by a
// collaborator outside this module.
package model

// Section describes one section of the binary image.
type Section struct {
	Base       uint32
	Size       uint32
	Executable bool
}

// BinaryImage is the loaded guest executable. The core never parses a
// container format; it only reads instruction words through this interface.
type BinaryImage interface {
	ImageBase() uint32
	ImageSize() uint32
	Sections() []Section
	// ReadWord returns the 4-byte big-endian instruction word at addr, or
	// false if addr does not fall inside an executable section.
	ReadWord(addr uint32) (uint32, bool)
}

// TargetKind classifies a branch target relative to the function graph.
type TargetKind int

const (
	// TargetUnknown means the graph could not classify the address.
	TargetUnknown TargetKind = iota
	// TargetInternalLabel means the address lies inside the branching
	// function and becomes a local jump.
	TargetInternalLabel
	// TargetFunction means the address is the entry of another locally
	// defined function.
	TargetFunction
	// TargetImport means the address resolves to an imported function.
	TargetImport
)

// Block is a contiguous, reachable, decodable run of instructions owned by
// exactly one FunctionNode. Blocks of the same function never overlap.
type Block struct {
	Base uint32
	End  uint32 // exclusive
}

// JumpTable describes a dense switch reached through an indirect branch.
// Every target lies within its owner function's address range when the
// table is well-formed.
type JumpTable struct {
	BranchAddress uint32
	IndexRegister int
	Targets       []uint32
}

// HookPlacement selects whether a MidAsmHook fires before or after the
// instruction at its address.
type HookPlacement int

const (
	HookBefore HookPlacement = iota
	HookAfter
)

// HookControlFlow describes what happens after a mid-asm hook returns.
type HookControlFlow int

const (
	HookFlowNone HookControlFlow = iota
	HookFlowReturn
	HookFlowReturnIfTrue
	HookFlowJump
	HookFlowJumpIfTrue
)

// MidAsmHook is a user-declared splice point injecting a call to a native
// function at a specific guest instruction address.
type MidAsmHook struct {
	Address       uint32
	HostFunction  string
	Registers     []string
	Placement     HookPlacement
	ControlFlow   HookControlFlow
	JumpTarget    uint32 // valid when ControlFlow is HookFlowJump*
}

// SehScope is one try-scope of a function's structured-exception info.
type SehScope struct {
	FilterAddress  uint32
	HandlerAddress uint32
	TryStart       uint32
	TryEnd         uint32
}

// SehInfo carries a function's structured-exception-handling metadata.
type SehInfo struct {
	FrameSize           uint32
	Scopes              []SehScope
	RestoreHelperAddress uint32
	HasRestoreHelper    bool
}

// Authority distinguishes locally defined functions from imports.
type Authority int

const (
	AuthorityLocal Authority = iota
	AuthorityImport
)

// FunctionNode is supplied by the function-discovery graph. It is read-only
// to the core: the core never mutates a function's blocks, tables, or hooks.
type FunctionNode struct {
	Name        string
	Base        uint32
	End         uint32
	Blocks      []Block
	JumpTables  []JumpTable
	Seh         *SehInfo // nil when the function has no exception scopes
	Authority   Authority
}

// FunctionGraph supplies the iterable function list and target classification
// the core needs but does not compute itself.
type FunctionGraph interface {
	Functions() []*FunctionNode
	// ClassifyTarget resolves a branch target; from is the address of the
	// branching instruction.
	ClassifyTarget(target, from uint32, isCall bool) TargetKind
	// LookupFunction returns the function owning base, if any — used to
	// resolve SEH finally-handler addresses.
	LookupFunction(base uint32) (*FunctionNode, bool)
	// Valid reports whether the graph passed its own validation pass.
	Valid() bool
}

// SwitchTableConfig is a user-supplied jump table keyed by branch address,
// checked before auto-detected tables.
type SwitchTableConfig struct {
	BranchAddress uint32
	IndexRegister int
	Targets       []uint32
}

// Config is the project configuration document. It is a plain struct: no
// file format or flag parsing lives in this module, since project
// scaffolding and configuration-parsing commands are external collaborators.
type Config struct {
	ProjectName string
	OutputDir   string

	NonArgumentRegistersAsLocalVariables bool
	NonVolatileRegistersAsLocalVariables bool
	CrRegistersAsLocalVariables          bool
	CtrAsLocalVariable                   bool
	XerAsLocalVariable                   bool
	ReservedRegisterAsLocalVariable      bool

	SkipLR              bool // omit link-register store on branch-and-link
	SkipMSR             bool // omit machine-state-register bookkeeping
	EmitExceptionHandlers bool
	NoClockScaling      bool

	SetjmpAddress  uint32
	LongjmpAddress uint32
	HasSetjmp      bool

	SwitchTables []SwitchTableConfig
	MidAsmHooks  []MidAsmHook

	FunctionsPerTranslationUnit int
}
