package backend

import (
	"fmt"

	"github.com/tetratelabs/amdil/internal/device"
	"github.com/tetratelabs/amdil/internal/il"
)

// targetCC is a comparison the hardware has an opcode for, possibly with swapped operands.
type targetCC byte

const (
	ccInvalid targetCC = iota
	ccEQ
	ccNE
	ccLT
	ccGE
	ccGT
	ccLE
	ccULT
	ccUGE
	ccUGT
	ccULE

	numTargetCCs
)

// nanMode is how a float condition treats NaN operands beyond what its targetCC does.
type nanMode byte

const (
	nanAsIs nanMode = iota
	// nanAndOrdered requires both operands to be ordered.
	nanAndOrdered
	// nanOrUnordered is also true when either operand is NaN.
	nanOrUnordered
	// nanOrdered ignores the targetCC and tests that both operands are ordered.
	nanOrdered
	// nanUnordered ignores the targetCC and tests that either operand is NaN.
	nanUnordered
)

type floatCond struct {
	cc  targetCC
	nan nanMode
}

var intConds = map[il.CondCode]targetCC{
	il.CondEQ: ccEQ, il.CondNE: ccNE,
	il.CondLT: ccLT, il.CondGE: ccGE, il.CondGT: ccGT, il.CondLE: ccLE,
	il.CondULT: ccULT, il.CondUGE: ccUGE, il.CondUGT: ccUGT, il.CondULE: ccULE,
}

// The eq, lt and ge opcodes are false on NaN and ne is true, so the ordered conditions and
// UNE map directly.
var floatConds = map[il.CondCode]floatCond{
	il.CondOEQ: {cc: ccEQ}, il.CondEQ: {cc: ccEQ},
	il.CondOGT: {cc: ccGT}, il.CondGT: {cc: ccGT},
	il.CondOGE: {cc: ccGE}, il.CondGE: {cc: ccGE},
	il.CondOLT: {cc: ccLT}, il.CondLT: {cc: ccLT},
	il.CondOLE: {cc: ccLE}, il.CondLE: {cc: ccLE},
	il.CondUNE: {cc: ccNE}, il.CondNE: {cc: ccNE},
	il.CondONE: {cc: ccNE, nan: nanAndOrdered},
	il.CondO:   {nan: nanOrdered},
	il.CondUO:  {nan: nanUnordered},
	il.CondUEQ: {cc: ccEQ, nan: nanOrUnordered},
	il.CondUGT: {cc: ccGT, nan: nanOrUnordered},
	il.CondUGE: {cc: ccGE, nan: nanOrUnordered},
	il.CondULT: {cc: ccLT, nan: nanOrUnordered},
	il.CondULE: {cc: ccLE, nan: nanOrUnordered},
}

type compareOpcode struct {
	op   il.Opcode
	swap bool
}

var (
	i32Compares = [numTargetCCs]compareOpcode{
		ccEQ: {op: il.OpcodeIEq}, ccNE: {op: il.OpcodeINe},
		ccLT: {op: il.OpcodeILt}, ccGE: {op: il.OpcodeIGe},
		ccGT: {op: il.OpcodeILt, swap: true}, ccLE: {op: il.OpcodeIGe, swap: true},
		ccULT: {op: il.OpcodeULt}, ccUGE: {op: il.OpcodeUGe},
		ccUGT: {op: il.OpcodeULt, swap: true}, ccULE: {op: il.OpcodeUGe, swap: true},
	}
	i64Compares = [numTargetCCs]compareOpcode{
		ccEQ: {op: il.OpcodeI64Eq}, ccNE: {op: il.OpcodeI64Ne},
		ccLT: {op: il.OpcodeI64Lt}, ccGE: {op: il.OpcodeI64Ge},
		ccGT: {op: il.OpcodeI64Lt, swap: true}, ccLE: {op: il.OpcodeI64Ge, swap: true},
		ccULT: {op: il.OpcodeU64Lt}, ccUGE: {op: il.OpcodeU64Ge},
		ccUGT: {op: il.OpcodeU64Lt, swap: true}, ccULE: {op: il.OpcodeU64Ge, swap: true},
	}
	f32Compares = [numTargetCCs]compareOpcode{
		ccEQ: {op: il.OpcodeFEq}, ccNE: {op: il.OpcodeFNe},
		ccLT: {op: il.OpcodeFLt}, ccGE: {op: il.OpcodeFGe},
		ccGT: {op: il.OpcodeFLt, swap: true}, ccLE: {op: il.OpcodeFGe, swap: true},
	}
	f64Compares = [numTargetCCs]compareOpcode{
		ccEQ: {op: il.OpcodeDEq}, ccNE: {op: il.OpcodeDNe},
		ccLT: {op: il.OpcodeDLt}, ccGE: {op: il.OpcodeDGe},
		ccGT: {op: il.OpcodeDLt, swap: true}, ccLE: {op: il.OpcodeDGe, swap: true},
	}
)

func isSignedCC(cc targetCC) bool {
	return cc == ccLT || cc == ccGE || cc == ccGT || cc == ccLE
}

func emitCompare(b *il.Builder, table *[numTargetCCs]compareOpcode, cc targetCC, x, y il.VReg, mc il.RegClass) il.VReg {
	entry := table[cc]
	if entry.op == il.OpcodeInvalid {
		panic(fmt.Sprintf("BUG: no compare opcode for target condition %d", cc))
	}
	if entry.swap {
		x, y = y, x
	}
	return b.Op(entry.op, mc, x, y)
}

// compare returns the -1/0 mask of cond(x, y) in class mc.
func (l *Lowering) compare(b *il.Builder, cond il.CondCode, x, y il.VReg, mc il.RegClass) il.VReg {
	switch cond {
	case il.CondTrue:
		return b.IConstOf(mc, 0xffffffff)
	case il.CondFalse:
		return b.IConstOf(mc, 0)
	}

	switch k := kindOf(x.Class()); k {
	case kindI8, kindI16, kindI32:
		cc, ok := intConds[cond]
		if !ok {
			panic(fmt.Sprintf("BUG: condition %s on %s", cond, k))
		}
		bits := il.ElemBits(x.Class())
		x, y = extend(b, x, bits, isSignedCC(cc)), extend(b, y, bits, isSignedCC(cc))
		return emitCompare(b, &i32Compares, cc, x, y, mc)
	case kindI64:
		cc, ok := intConds[cond]
		if !ok {
			panic(fmt.Sprintf("BUG: condition %s on %s", cond, k))
		}
		if l.dev.UsesHardware(device.CapabilityLongOps) {
			return emitCompare(b, &i64Compares, cc, x, y, mc)
		}
		return compare64(b, cc, split(b, x), split(b, y))
	default:
		fc, ok := floatConds[cond]
		if !ok {
			panic(fmt.Sprintf("BUG: condition %s on %s", cond, k))
		}
		table := &f32Compares
		if k == kindF64 {
			table = &f64Compares
		}
		ordered := func() il.VReg {
			return op(b, il.OpcodeIAnd, emitCompare(b, table, ccEQ, x, x, mc), emitCompare(b, table, ccEQ, y, y, mc))
		}
		unordered := func() il.VReg {
			return op(b, il.OpcodeIOr, emitCompare(b, table, ccNE, x, x, mc), emitCompare(b, table, ccNE, y, y, mc))
		}
		switch fc.nan {
		case nanOrdered:
			return ordered()
		case nanUnordered:
			return unordered()
		case nanAndOrdered:
			return op(b, il.OpcodeIAnd, emitCompare(b, table, fc.cc, x, y, mc), ordered())
		case nanOrUnordered:
			return op(b, il.OpcodeIOr, emitCompare(b, table, fc.cc, x, y, mc), unordered())
		default:
			return emitCompare(b, table, fc.cc, x, y, mc)
		}
	}
}

// compare64 compares 64-bit halves: equal high words defer to an unsigned compare of the low words.
func compare64(b *il.Builder, cc targetCC, x, y pair) il.VReg {
	switch cc {
	case ccEQ:
		return eq64(b, x, y)
	case ccNE:
		return b.Op(il.OpcodeINot, x.class(), eq64(b, x, y))
	case ccLT:
		return slt64(b, x, y)
	case ccGE:
		return b.Op(il.OpcodeINot, x.class(), slt64(b, x, y))
	case ccGT:
		return slt64(b, y, x)
	case ccLE:
		return b.Op(il.OpcodeINot, x.class(), slt64(b, y, x))
	case ccULT:
		return ult64(b, x, y)
	case ccUGE:
		return b.Op(il.OpcodeINot, x.class(), ult64(b, x, y))
	case ccUGT:
		return ult64(b, y, x)
	case ccULE:
		return b.Op(il.OpcodeINot, x.class(), ult64(b, y, x))
	default:
		panic(fmt.Sprintf("BUG: 64-bit compare for target condition %d", cc))
	}
}

func (l *Lowering) lowerSetCC(b *il.Builder, instr *il.Instruction) il.VReg {
	mc := instr.Def().Class()
	if il.Is64Bit(mc) {
		panic("BUG: SETCC into 64-bit elements: " + instr.String())
	}
	return l.compare(b, instr.Cond(), instr.Arg(1), instr.Arg(2), mc)
}

func (l *Lowering) lowerSelectCC(b *il.Builder, instr *il.Instruction) il.VReg {
	x := instr.Arg(1)
	m := l.compare(b, instr.Cond(), x, instr.Arg(2), il.WithBits(x.Class(), 32))
	return b.Op(il.OpcodeCmovLogical, instr.Def().Class(), m, instr.Arg(3), instr.Arg(4))
}
