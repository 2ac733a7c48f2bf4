package il

import (
	"fmt"
	"math"
)

// VReg is a virtual register: the lower 32 bits hold the ID and the next byte holds the RegClass.
type VReg uint64

// VRegID is the identifier part of a VReg.
type VRegID uint32

const vRegIDInvalid VRegID = 1<<32 - 1

// VRegInvalid is the zero-class invalid register.
const VRegInvalid = VReg(vRegIDInvalid)

// NewVReg combines an ID and a class.
func NewVReg(id VRegID, c RegClass) VReg {
	return VReg(id) | VReg(c)<<32
}

// ID returns the identifier of v.
func (v VReg) ID() VRegID { return VRegID(v & 0xffffffff) }

// Class returns the register class of v.
func (v VReg) Class() RegClass { return RegClass(v >> 32) }

// Valid returns true if v refers to an allocated register.
func (v VReg) Valid() bool { return v.ID() != vRegIDInvalid && v.Class() != RegClassInvalid }

// String implements fmt.Stringer.
func (v VReg) String() string {
	if !v.Valid() {
		return "%invalid"
	}
	return fmt.Sprintf("%%%d:%s", v.ID(), v.Class())
}

// OperandKind tags the variant held by an Operand.
type OperandKind byte

const (
	OperandKindInvalid OperandKind = iota
	// OperandKindReg is a virtual register.
	OperandKindReg
	// OperandKindImm is an integer immediate.
	OperandKindImm
	// OperandKindFImm is a float immediate stored as float64 bits.
	OperandKindFImm
	// OperandKindBlock is a basic block reference.
	OperandKindBlock
	// OperandKindGlobal is a global symbol.
	OperandKindGlobal
	// OperandKindExternal is an external symbol such as a called function.
	OperandKindExternal
	// OperandKindLiteral is an index into the kernel literal pool.
	OperandKindLiteral
)

// String implements fmt.Stringer.
func (k OperandKind) String() string {
	switch k {
	case OperandKindReg:
		return "reg"
	case OperandKindImm:
		return "imm"
	case OperandKindFImm:
		return "fimm"
	case OperandKindBlock:
		return "block"
	case OperandKindGlobal:
		return "global"
	case OperandKindExternal:
		return "external"
	case OperandKindLiteral:
		return "literal"
	default:
		return "invalid"
	}
}

// Operand is one operand of an Instruction. Register operands carry a lane swizzle which
// stays zero until the swizzle pass assigns it.
type Operand struct {
	kind    OperandKind
	reg     VReg
	data    uint64
	sym     string
	swizzle LaneSwizzle
}

// OperandReg returns a register operand.
func OperandReg(v VReg) Operand { return Operand{kind: OperandKindReg, reg: v} }

// OperandImm returns an integer immediate operand.
func OperandImm(v int64) Operand { return Operand{kind: OperandKindImm, data: uint64(v)} }

// OperandFImm returns a float immediate operand.
func OperandFImm(v float64) Operand { return Operand{kind: OperandKindFImm, data: math.Float64bits(v)} }

// OperandBlock returns a basic block operand.
func OperandBlock(id uint32) Operand { return Operand{kind: OperandKindBlock, data: uint64(id)} }

// OperandGlobal returns a global symbol operand.
func OperandGlobal(name string) Operand { return Operand{kind: OperandKindGlobal, sym: name} }

// OperandExternal returns an external symbol operand.
func OperandExternal(name string) Operand { return Operand{kind: OperandKindExternal, sym: name} }

// OperandLiteral returns a literal pool reference.
func OperandLiteral(index uint32) Operand {
	return Operand{kind: OperandKindLiteral, data: uint64(index)}
}

// Kind returns the variant tag.
func (o Operand) Kind() OperandKind { return o.kind }

// IsReg returns true for register operands.
func (o Operand) IsReg() bool { return o.kind == OperandKindReg }

// Reg returns the register of a register operand.
func (o Operand) Reg() VReg {
	if o.kind != OperandKindReg {
		panic("BUG: Reg called on " + o.kind.String() + " operand")
	}
	return o.reg
}

// Imm returns the value of an immediate operand.
func (o Operand) Imm() int64 {
	if o.kind != OperandKindImm {
		panic("BUG: Imm called on " + o.kind.String() + " operand")
	}
	return int64(o.data)
}

// FImm returns the value of a float immediate operand.
func (o Operand) FImm() float64 {
	if o.kind != OperandKindFImm {
		panic("BUG: FImm called on " + o.kind.String() + " operand")
	}
	return math.Float64frombits(o.data)
}

// Block returns the block ID of a block operand.
func (o Operand) Block() uint32 { return uint32(o.data) }

// Literal returns the literal pool index of a literal operand.
func (o Operand) Literal() uint32 {
	if o.kind != OperandKindLiteral {
		panic("BUG: Literal called on " + o.kind.String() + " operand")
	}
	return uint32(o.data)
}

// Symbol returns the name of a global or external operand.
func (o Operand) Symbol() string { return o.sym }

// Swizzle returns the lane swizzle assigned to the operand.
func (o Operand) Swizzle() LaneSwizzle { return o.swizzle }

// WithSwizzle returns a copy of o with the given swizzle.
func (o Operand) WithSwizzle(s LaneSwizzle) Operand {
	o.swizzle = s
	return o
}

// String implements fmt.Stringer using the textual IR syntax.
func (o Operand) String() string {
	switch o.kind {
	case OperandKindReg:
		return o.reg.String()
	case OperandKindImm:
		return fmt.Sprintf("#%d", int64(o.data))
	case OperandKindFImm:
		return fmt.Sprintf("#%gf", math.Float64frombits(o.data))
	case OperandKindBlock:
		return fmt.Sprintf("^bb%d", o.data)
	case OperandKindGlobal:
		return "@" + o.sym
	case OperandKindExternal:
		return "$" + o.sym
	case OperandKindLiteral:
		return fmt.Sprintf("l%d", o.data)
	default:
		return "<invalid>"
	}
}
