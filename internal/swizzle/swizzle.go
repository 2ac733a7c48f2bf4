// Package swizzle assigns the lane swizzle of every register operand of a lowered function.
//
// Sources default to a pattern derived from the register's lane count, destinations to a
// write mask of the same width. Opcodes whose lanes do not follow the register shape have
// rules in customSource and customDest, and the vector shuffles are handled as a whole by
// assignShuffle because their operand swizzles depend on each other.
package swizzle

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/tetratelabs/amdil/internal/il"
)

// sourceRule returns the swizzle of source operand n, which addresses lanes hardware lanes.
// ok is false when the default applies.
type sourceRule func(instr *il.Instruction, n, lanes int) (s il.LaneSwizzle, ok bool)

// destRule returns the swizzle of the definition, which addresses lanes hardware lanes.
type destRule func(instr *il.Instruction, lanes int) il.LaneSwizzle

var (
	customSource = map[il.Opcode]sourceRule{
		il.OpcodeLHi:           highHalf,
		il.OpcodeDHi:           highHalf,
		il.OpcodeLLo:           lowHalf,
		il.OpcodeDLo:           lowHalf,
		il.OpcodeLCreate:       create,
		il.OpcodeDCreate:       create,
		il.OpcodeDNeg:          negate(1),
		il.OpcodeDSub:          negate(2),
		il.OpcodeCmovLogical:   elementMask(1),
		il.OpcodeI64Shl:        elementMask(2),
		il.OpcodeI64Shr:        elementMask(2),
		il.OpcodeU64Shr:        elementMask(2),
		il.OpcodeUAVRawLoad:    memory,
		il.OpcodeUAVRawStore:   memory,
		il.OpcodeUAVByteStore:  memory,
		il.OpcodeUAVShortStore: memory,
	}
	customDest = map[il.Opcode]destRule{
		il.OpcodeLoadConst: func(_ *il.Instruction, lanes int) il.LaneSwizzle { return defaultDest(lanes) },
	}
)

func init() {
	for op := il.OpcodeLDSLoad; op <= il.OpcodeGDSStoreW; op++ {
		customSource[op] = memory
		if op.IsLoad() && op.LaneOf() >= 0 {
			customDest[op] = laneLoad
		}
	}
}

var (
	broadcast1 = []il.LaneSwizzle{il.SrcX1}
	broadcast2 = []il.LaneSwizzle{il.SrcXXXX2, il.SrcYYYY2}
	broadcast4 = []il.LaneSwizzle{il.SrcXXXX4, il.SrcYYYY4, il.SrcZZZZ4, il.SrcWWWW4}
	write1     = []il.LaneSwizzle{il.DstX1}
	write2     = []il.LaneSwizzle{il.DstX2, il.DstY2}
	write4     = []il.LaneSwizzle{il.DstX4, il.DstY4, il.DstZ4, il.DstW4}
	// keep and place partition a vector for an insertion at the indexed lane.
	keep2  = []il.LaneSwizzle{il.Src0Y002, il.SrcX0002}
	keep4  = []il.LaneSwizzle{il.Src0YZW4, il.SrcX0ZW4, il.SrcXY0W4, il.SrcXYZ04}
	place1 = []il.LaneSwizzle{il.SrcX0001, il.Src0X001, il.Src00X01, il.Src000X1}
)

func byWidth(lanes int, one, two, four []il.LaneSwizzle) []il.LaneSwizzle {
	switch lanes {
	case 1:
		return one
	case 2:
		return two
	case 4:
		return four
	default:
		panic(fmt.Sprintf("BUG: no swizzles for %d lanes", lanes))
	}
}

func pick(table []il.LaneSwizzle, lane int, instr *il.Instruction) il.LaneSwizzle {
	if lane < 0 || lane >= len(table) {
		panic(fmt.Sprintf("BUG: lane %d out of range in %s", lane, instr))
	}
	return table[lane]
}

func defaultSource(lanes int) il.LaneSwizzle {
	switch lanes {
	case 1:
		return il.SrcX1
	case 2:
		return il.SrcXY2
	case 4:
		return il.SrcDefault
	default:
		panic(fmt.Sprintf("BUG: no default source swizzle for %d lanes", lanes))
	}
}

func defaultDest(lanes int) il.LaneSwizzle {
	switch lanes {
	case 1:
		return il.DstX1
	case 2:
		return il.DstXY2
	case 4:
		return il.DstDefault
	default:
		panic(fmt.Sprintf("BUG: no default destination swizzle for %d lanes", lanes))
	}
}

func highHalf(instr *il.Instruction, n, lanes int) (il.LaneSwizzle, bool) {
	switch lanes {
	case 2:
		return il.SrcYYYY2, true
	case 4:
		return il.SrcYWYW4, true
	}
	panic("BUG: high half of a " + instr.Arg(n).Class().String() + " in " + instr.String())
}

func lowHalf(instr *il.Instruction, n, lanes int) (il.LaneSwizzle, bool) {
	switch lanes {
	case 2:
		return il.SrcXXXX2, true
	case 4:
		return il.SrcXZXZ4, true
	}
	panic("BUG: low half of a " + instr.Arg(n).Class().String() + " in " + instr.String())
}

// create places the low half in the even lanes and the high half in the odd ones.
func create(instr *il.Instruction, n, lanes int) (il.LaneSwizzle, bool) {
	switch {
	case n == 1 && lanes == 1:
		return il.SrcX0001, true
	case n == 1 && lanes == 2:
		return il.SrcX0Y02, true
	case n == 2 && lanes == 1:
		return il.Src0X001, true
	case n == 2 && lanes == 2:
		return il.Src0X0Y2, true
	}
	panic(fmt.Sprintf("BUG: operand %d of %s", n, instr))
}

// negate flips the sign of the double in source operand pos, held in its odd lanes.
func negate(pos int) sourceRule {
	return func(instr *il.Instruction, n, lanes int) (il.LaneSwizzle, bool) {
		if n != pos {
			return il.LaneSwizzle{}, false
		}
		switch lanes {
		case 2:
			return il.SrcXYNegY2, true
		case 4:
			return il.SrcXYZWNegYW4, true
		}
		panic("BUG: negated operand of " + instr.String())
	}
}

// elementMask spreads a two lane operand at pos over the lane pairs of a 64-bit element result.
func elementMask(pos int) sourceRule {
	return func(instr *il.Instruction, n, lanes int) (il.LaneSwizzle, bool) {
		dst := instr.Def().Class()
		if n != pos || !instr.Operand(n).IsReg() || !il.Is64Bit(dst) || il.Is64Bit(instr.Arg(n).Class()) {
			return il.LaneSwizzle{}, false
		}
		if lanes == 2 && il.LaneCount(dst) == 4 {
			return il.SrcXXYY2, true
		}
		return il.LaneSwizzle{}, false
	}
}

// memory reads the address from lane x, and a lane store reads only its lane of the value.
func memory(instr *il.Instruction, n, lanes int) (il.LaneSwizzle, bool) {
	switch {
	case n == 1:
		return byWidth(lanes, broadcast1, broadcast2, broadcast4)[0], true
	case n == 0 && instr.Opcode().LaneOf() >= 0:
		return pick(byWidth(lanes, broadcast1, broadcast2, broadcast4), instr.Opcode().LaneOf(), instr), true
	}
	return il.LaneSwizzle{}, false
}

func laneLoad(instr *il.Instruction, lanes int) il.LaneSwizzle {
	return pick(byWidth(lanes, write1, write2, write4), instr.Opcode().LaneOf(), instr)
}

// lanesOf returns the hardware lanes operand n addresses. Operands without a register class
// take the class of operand 0.
func lanesOf(instr *il.Instruction, n int) int {
	if o := instr.Operand(n); o.IsReg() {
		return il.LaneCount(o.Reg().Class())
	}
	if instr.NumOperands() > 0 && instr.Operand(0).IsReg() {
		return il.LaneCount(instr.Operand(0).Reg().Class())
	}
	return 1
}

// swizzled returns true for operands that are printed with a swizzle.
func swizzled(o il.Operand) bool {
	return o.IsReg() || o.Kind() == il.OperandKindLiteral
}

// Assign stamps every register and literal operand of fn with its swizzle. fn must be fully lowered.
func Assign(fn *il.Function) {
	for _, instr := range fn.Instructions() {
		op := instr.Opcode()
		switch {
		case op == il.OpcodeCall || op == il.OpcodeDebugValue:
			continue
		case op.IsPseudo():
			panic("BUG: swizzle assignment before lowering: " + instr.String())
		case op == il.OpcodeVExtract || op == il.OpcodeVInsert || op == il.OpcodeVConcat:
			assignShuffle(instr)
			continue
		}
		for n := 0; n < instr.NumOperands(); n++ {
			o := instr.Operand(n)
			if !swizzled(o) {
				continue
			}
			lanes := lanesOf(instr, n)
			var s il.LaneSwizzle
			if n < instr.NumDefs() {
				if rule, ok := customDest[op]; ok {
					s = rule(instr, lanes)
				} else {
					s = defaultDest(lanes)
				}
			} else {
				var ok bool
				if rule, exists := customSource[op]; exists {
					s, ok = rule(instr, n, lanes)
				}
				if !ok {
					s = defaultSource(lanes)
				}
			}
			instr.SetOperand(n, o.WithSwizzle(s))
		}
	}
}

// assignShuffle handles vextract, vinsert and vconcat, whose source swizzles are computed from
// the lane index and from each other.
func assignShuffle(instr *il.Instruction) {
	dstLanes := il.LaneCount(instr.Def().Class())
	set := func(n int, s il.LaneSwizzle) { instr.SetOperand(n, instr.Operand(n).WithSwizzle(s)) }
	set(0, defaultDest(dstLanes))

	switch instr.Opcode() {
	case il.OpcodeVExtract:
		srcLanes, lane := lanesOf(instr, 1), int(instr.Operand(2).Imm())
		switch {
		case dstLanes == 1:
			set(1, pick(byWidth(srcLanes, broadcast1, broadcast2, broadcast4), lane, instr))
		case dstLanes == 2 && srcLanes == 2 && lane == 0:
			set(1, il.SrcXY2)
		case dstLanes == 2 && srcLanes == 4 && lane == 0:
			set(1, il.SrcDefault)
		case dstLanes == 2 && srcLanes == 4 && lane == 2:
			set(1, il.SrcZWZW4)
		default:
			panic("BUG: unsupported extract " + instr.String())
		}
	case il.OpcodeVInsert:
		lane := int(instr.Operand(3).Imm())
		if lanesOf(instr, 2) != 1 {
			panic("BUG: inserting a vector: " + instr.String())
		}
		var keep []il.LaneSwizzle
		switch lanesOf(instr, 1) {
		case 2:
			keep = keep2
		case 4:
			keep = keep4
		default:
			panic("BUG: inserting into a scalar: " + instr.String())
		}
		set(1, pick(keep, lane, instr))
		set(2, pick(place1, lane, instr))
	case il.OpcodeVConcat:
		switch lanesOf(instr, 1) {
		case 1:
			set(1, il.SrcX0001)
			set(2, il.Src0X001)
		case 2:
			set(1, il.SrcXY002)
			set(2, il.Src00XY2)
		default:
			panic("BUG: unsupported concat " + instr.String())
		}
	}
}

// Check verifies that every register operand of fn carries a swizzle of the right kind whose
// width matches the lanes of its register.
func Check(fn *il.Function) error {
	violations := lo.FlatMap(fn.Instructions(), func(instr *il.Instruction, _ int) []string {
		if op := instr.Opcode(); op == il.OpcodeCall || op == il.OpcodeDebugValue {
			return nil
		}
		var ret []string
		for n, o := range instr.Operands() {
			if !o.IsReg() {
				continue
			}
			s := o.Swizzle()
			switch {
			case !s.Assigned():
				ret = append(ret, fmt.Sprintf("operand %d of %s has no swizzle", n, instr))
			case s.IsDest() != (n < instr.NumDefs()):
				ret = append(ret, fmt.Sprintf("operand %d of %s has a swizzle of the wrong kind", n, instr))
			case s.Width() != il.LaneCount(o.Reg().Class()):
				ret = append(ret, fmt.Sprintf("operand %d of %s: swizzle %q addresses %d lanes, register has %d",
					n, instr, s.Pattern(), s.Width(), il.LaneCount(o.Reg().Class())))
			}
		}
		return ret
	})
	if len(violations) == 0 {
		return nil
	}
	return errors.Errorf("kernel %s: %s (%d violations)", fn.Name(), violations[0], len(violations))
}
