package il

import (
	"fmt"
	"strings"
)

// AddressSpace is the memory region a LOAD or STORE addresses.
type AddressSpace byte

const (
	AddressSpaceGlobal AddressSpace = iota
	AddressSpaceLocal
	AddressSpaceRegion
	AddressSpacePrivate
	AddressSpaceConstant

	numAddressSpaces
)

var addressSpaceNames = [numAddressSpaces]string{"global", "local", "region", "private", "constant"}

// String implements fmt.Stringer.
func (a AddressSpace) String() string {
	if a >= numAddressSpaces {
		return fmt.Sprintf("space(%d)", a)
	}
	return addressSpaceNames[a]
}

// AddressSpaceByName returns the address space named by String.
func AddressSpaceByName(name string) (AddressSpace, bool) {
	for i, n := range addressSpaceNames {
		if n == name {
			return AddressSpace(i), true
		}
	}
	return 0, false
}

// ExtKind is the extension applied to a narrow load.
type ExtKind byte

const (
	ExtNone ExtKind = iota
	ExtSign
	ExtZero
)

// String implements fmt.Stringer.
func (e ExtKind) String() string {
	switch e {
	case ExtSign:
		return "sext"
	case ExtZero:
		return "zext"
	default:
		return ""
	}
}

// MemAccess describes a pseudo LOAD or STORE.
type MemAccess struct {
	Space AddressSpace
	// Size is the number of bytes transferred. The address must be a multiple of Size, or of 4
	// for accesses of 4 bytes or more.
	Size int
	Ext  ExtKind
	// HWEligible marks local and region accesses that may use the dedicated hardware memories.
	HWEligible bool
}

// Instruction is a single operation in a Function. Definitions come first in the operand list.
type Instruction struct {
	opcode     Opcode
	operands   []Operand
	mem        MemAccess
	cond       CondCode
	prev, next *Instruction
	fn         *Function
}

// NewInstruction allocates a detached instruction.
func NewInstruction(op Opcode, operands ...Operand) *Instruction {
	return &Instruction{opcode: op, operands: operands}
}

// NewLoad allocates a detached pseudo LOAD of addr into dst.
func NewLoad(dst, addr VReg, mem MemAccess) *Instruction {
	i := NewInstruction(OpcodeLoad, OperandReg(dst), OperandReg(addr))
	i.mem = mem
	return i
}

// NewStore allocates a detached pseudo STORE of value to addr.
func NewStore(value, addr VReg, mem MemAccess) *Instruction {
	i := NewInstruction(OpcodeStore, OperandReg(value), OperandReg(addr))
	i.mem = mem
	return i
}

// NewSetCC allocates a detached pseudo SETCC.
func NewSetCC(dst, a, b VReg, cc CondCode) *Instruction {
	i := NewInstruction(OpcodeSetCC, OperandReg(dst), OperandReg(a), OperandReg(b))
	i.cond = cc
	return i
}

// NewSelectCC allocates a detached pseudo SELECT_CC: dst = cc(a, b) ? t : f.
func NewSelectCC(dst, a, b, t, f VReg, cc CondCode) *Instruction {
	i := NewInstruction(OpcodeSelectCC, OperandReg(dst), OperandReg(a), OperandReg(b), OperandReg(t), OperandReg(f))
	i.cond = cc
	return i
}

// Opcode returns the opcode.
func (i *Instruction) Opcode() Opcode { return i.opcode }

// Operands returns the operand list. The slice aliases the instruction.
func (i *Instruction) Operands() []Operand { return i.operands }

// Operand returns operand n.
func (i *Instruction) Operand(n int) Operand { return i.operands[n] }

// SetOperand replaces operand n.
func (i *Instruction) SetOperand(n int, o Operand) { i.operands[n] = o }

// NumOperands returns the number of operands.
func (i *Instruction) NumOperands() int { return len(i.operands) }

// NumDefs returns the number of leading definition operands.
func (i *Instruction) NumDefs() int { return i.opcode.NumDefs() }

// Def returns the single definition of the instruction.
func (i *Instruction) Def() VReg {
	if i.opcode.NumDefs() != 1 {
		panic("BUG: Def called on " + i.opcode.String())
	}
	return i.operands[0].Reg()
}

// Arg returns the register held by operand n.
func (i *Instruction) Arg(n int) VReg { return i.operands[n].Reg() }

// Mem returns the memory access description of a pseudo LOAD or STORE.
func (i *Instruction) Mem() MemAccess { return i.mem }

// Cond returns the condition code of a SETCC or SELECT_CC.
func (i *Instruction) Cond() CondCode { return i.cond }

// Next returns the following instruction in the function.
func (i *Instruction) Next() *Instruction { return i.next }

// Prev returns the preceding instruction in the function.
func (i *Instruction) Prev() *Instruction { return i.prev }

// String returns the textual IR form of the instruction.
func (i *Instruction) String() string {
	var b strings.Builder
	b.WriteString(i.opcode.String())
	switch i.opcode {
	case OpcodeLoad, OpcodeStore:
		fmt.Fprintf(&b, ".%s.%d", i.mem.Space, i.mem.Size)
		if i.mem.Ext != ExtNone {
			b.WriteString("." + i.mem.Ext.String())
		}
		if i.mem.HWEligible {
			b.WriteString(".hw")
		}
	case OpcodeSetCC, OpcodeSelectCC:
		b.WriteString("." + i.cond.String())
	}
	for n, o := range i.operands {
		if n == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteString(", ")
		}
		b.WriteString(o.String())
	}
	return b.String()
}
