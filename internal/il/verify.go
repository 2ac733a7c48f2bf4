package il

import "github.com/pkg/errors"

// IsInteger returns true if the condition applies to integer operands.
func (c CondCode) IsInteger() bool {
	switch c {
	case CondFalse, CondTrue, CondEQ, CondNE, CondGT, CondGE, CondLT, CondLE,
		CondUGT, CondUGE, CondULT, CondULE:
		return true
	}
	return false
}

// Verify checks that the operands of i fit its opcode: the operand count, the operands that
// must be registers or immediates, and the register classes and conditions a pseudo operation
// can be lowered with.
func (i *Instruction) Verify() error {
	op := i.opcode
	if n, fixed := op.NumOperands(); fixed && len(i.operands) != n {
		return errors.Errorf("%s wants %d operands, got %d", op, n, len(i.operands))
	}
	for n := 0; n < op.NumDefs(); n++ {
		if !i.operands[n].IsReg() {
			return errors.Errorf("%s: definition %d is not a register", op, n)
		}
	}
	if op.IsPseudo() {
		for n, o := range i.operands {
			if !o.IsReg() {
				return errors.Errorf("%s: operand %d is not a register", op, n)
			}
		}
		return i.verifyPseudo()
	}
	return i.verifyNative()
}

func (i *Instruction) verifyPseudo() error {
	op := i.opcode
	switch op {
	case OpcodeAdd, OpcodeSub, OpcodeMul, OpcodeSDiv, OpcodeUDiv, OpcodeSRem, OpcodeURem:
		dst := i.Def().Class()
		if IsFloat(dst) {
			return errors.Errorf("%s: %s is not an integer class", op, dst)
		}
		return i.sameClass(dst, 1, 2)
	case OpcodeFPToSI, OpcodeFPToUI:
		dst, src := i.Def().Class(), i.Arg(1).Class()
		if IsFloat(dst) || !IsFloat(src) {
			return errors.Errorf("%s converts float to integer, got %s to %s", op, src, dst)
		}
		return i.sameElems(dst, src)
	case OpcodeSIToFP, OpcodeUIToFP:
		dst, src := i.Def().Class(), i.Arg(1).Class()
		if !IsFloat(dst) || IsFloat(src) {
			return errors.Errorf("%s converts integer to float, got %s to %s", op, src, dst)
		}
		return i.sameElems(dst, src)
	case OpcodeCtlz:
		dst := i.Def().Class()
		if IsFloat(dst) || ElemBits(dst) == 8 {
			return errors.Errorf("%s: %s is not a 16, 32 or 64-bit integer class", op, dst)
		}
		return i.sameClass(dst, 1)
	case OpcodeSetCC:
		dst, src := i.Def().Class(), i.Arg(1).Class()
		if IsFloat(dst) || Is64Bit(dst) {
			return errors.Errorf("%s: %s is not a 32-bit or narrower integer class", op, dst)
		}
		if err := i.sameClass(src, 2); err != nil {
			return err
		}
		if err := i.sameElems(dst, src); err != nil {
			return err
		}
		return i.checkCond(src)
	case OpcodeSelectCC:
		dst, src := i.Def().Class(), i.Arg(1).Class()
		if err := i.sameClass(src, 2); err != nil {
			return err
		}
		if err := i.sameClass(dst, 3, 4); err != nil {
			return err
		}
		if err := i.sameElems(dst, src); err != nil {
			return err
		}
		return i.checkCond(src)
	case OpcodeLoad, OpcodeStore:
		v, addr := i.Arg(0).Class(), i.Arg(1).Class()
		if addr != RegClassI32 {
			return errors.Errorf("%s: address is %s, not i32", op, addr)
		}
		if i.mem.Size > ByteSize(v) {
			return errors.Errorf("%s: %d bytes do not fit %s", op, i.mem.Size, v)
		}
	}
	return nil
}

func (i *Instruction) verifyNative() error {
	op := i.opcode
	switch {
	case op == OpcodeArg:
		return i.immediate(1)
	case op.IsMemory():
		if err := i.registers(0, 1); err != nil {
			return err
		}
		if lane := op.LaneOf(); lane >= 0 && LaneCount(i.Arg(0).Class()) <= lane {
			return errors.Errorf("%s: %s has no lane %d", op, i.Arg(0).Class(), lane)
		}
		return i.immediate(2)
	case op == OpcodeLLo, op == OpcodeLHi, op == OpcodeDLo, op == OpcodeDHi, op == OpcodeDNeg:
		return i.wide(1)
	case op == OpcodeDSub:
		return i.wide(2)
	case op == OpcodeLCreate, op == OpcodeDCreate:
		for n := 1; n <= 2; n++ {
			if o := i.operands[n]; o.IsReg() && (Is64Bit(o.Reg().Class()) || LaneCount(o.Reg().Class()) > 2) {
				return errors.Errorf("%s: operand %d is %s, not a 32-bit half", op, n, o.Reg().Class())
			}
		}
	case op == OpcodeVExtract:
		if err := i.registers(1); err != nil {
			return err
		}
		if err := i.immediate(2); err != nil {
			return err
		}
		dst, src, lane := LaneCount(i.Def().Class()), LaneCount(i.Arg(1).Class()), int(i.operands[2].Imm())
		switch {
		case dst == 1 && lane >= 0 && lane < src:
		case dst == 2 && src == 2 && lane == 0:
		case dst == 2 && src == 4 && (lane == 0 || lane == 2):
		default:
			return errors.Errorf("%s: cannot extract %d lanes at lane %d of %d", op, dst, lane, src)
		}
	case op == OpcodeVInsert:
		if err := i.registers(1, 2); err != nil {
			return err
		}
		if err := i.immediate(3); err != nil {
			return err
		}
		vec, scalar, lane := LaneCount(i.Arg(1).Class()), LaneCount(i.Arg(2).Class()), int(i.operands[3].Imm())
		if scalar != 1 || (vec != 2 && vec != 4) || lane < 0 || lane >= vec {
			return errors.Errorf("%s: cannot insert %d lanes at lane %d of %d", op, scalar, lane, vec)
		}
	case op == OpcodeVConcat:
		if err := i.registers(1, 2); err != nil {
			return err
		}
		if n := LaneCount(i.Arg(1).Class()); n != 1 && n != 2 {
			return errors.Errorf("%s: cannot concatenate %d lane halves", op, n)
		}
	}
	return nil
}

func (i *Instruction) sameClass(c RegClass, operands ...int) error {
	for _, n := range operands {
		if got := i.Arg(n).Class(); got != c {
			return errors.Errorf("%s: operand %d is %s, want %s", i.opcode, n, got, c)
		}
	}
	return nil
}

func (i *Instruction) sameElems(dst, src RegClass) error {
	if ElemCount(dst) != ElemCount(src) {
		return errors.Errorf("%s: %s and %s differ in element count", i.opcode, dst, src)
	}
	return nil
}

func (i *Instruction) checkCond(src RegClass) error {
	if !IsFloat(src) && !i.cond.IsInteger() {
		return errors.Errorf("%s: condition %s does not apply to %s", i.opcode, i.cond, src)
	}
	return nil
}

func (i *Instruction) registers(operands ...int) error {
	for _, n := range operands {
		if !i.operands[n].IsReg() {
			return errors.Errorf("%s: operand %d is not a register", i.opcode, n)
		}
	}
	return nil
}

func (i *Instruction) immediate(n int) error {
	if i.operands[n].Kind() != OperandKindImm {
		return errors.Errorf("%s: operand %d is not an immediate", i.opcode, n)
	}
	return nil
}

// wide requires a register at operand n to hold 64-bit elements.
func (i *Instruction) wide(n int) error {
	if o := i.operands[n]; o.IsReg() && !Is64Bit(o.Reg().Class()) {
		return errors.Errorf("%s: operand %d is %s, not 64-bit", i.opcode, n, o.Reg().Class())
	}
	return nil
}
