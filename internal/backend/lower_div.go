package backend

import "github.com/tetratelabs/amdil/internal/il"

// lowerSDiv24 divides 8 and 16-bit values in single precision. The operands fit in 24 bits so
// the truncated float quotient is exact or one short, and the remainder fix-up adds the
// missing unit in the direction of the quotient's sign.
func (l *Lowering) lowerSDiv24(b *il.Builder, instr *il.Instruction) il.VReg {
	bits := il.ElemBits(instr.Def().Class())
	return sdiv24(b, signExtend(b, instr.Arg(1), bits), signExtend(b, instr.Arg(2), bits))
}

// sdiv24 divides sign extended operands.
func sdiv24(b *il.Builder, a, d il.VReg) il.VReg {
	fc := il.FloatClass(a.Class(), 32)

	jq := op(b, il.OpcodeIOr, op(b, il.OpcodeIShr, op(b, il.OpcodeIXor, a, d), b.IConst(30)), b.IConst(1))
	fa := b.Op(il.OpcodeItoF, fc, a)
	fb := b.Op(il.OpcodeItoF, fc, d)
	fq := b.Op(il.OpcodeFRoundZ, fc, b.Op(il.OpcodeFDivInf, fc, fa, fb))
	nfq := b.Op(il.OpcodeFMul, fc, fq, b.FConst(-1))
	fr := b.Op(il.OpcodeFMad, fc, nfq, fb, fa)
	iq := b.Op(il.OpcodeFtoI, a.Class(), fq)

	cv := b.Op(il.OpcodeFGe, a.Class(), b.Op(il.OpcodeFAbs, fc, fr), b.Op(il.OpcodeFAbs, fc, fb))
	return op(b, il.OpcodeIAdd, iq, op(b, il.OpcodeIAnd, cv, jq))
}

// lowerUDiv24 is the unsigned form of lowerSDiv24.
func (l *Lowering) lowerUDiv24(b *il.Builder, instr *il.Instruction) il.VReg {
	bits := il.ElemBits(instr.Def().Class())
	return udiv24(b, zeroExtend(b, instr.Arg(1), bits), zeroExtend(b, instr.Arg(2), bits))
}

// udiv24 divides zero extended operands.
func udiv24(b *il.Builder, a, d il.VReg) il.VReg {
	fc := il.FloatClass(a.Class(), 32)

	fa := b.Op(il.OpcodeUtoF, fc, a)
	fb := b.Op(il.OpcodeUtoF, fc, d)
	fq := b.Op(il.OpcodeFRoundZ, fc, b.Op(il.OpcodeFDivInf, fc, fa, fb))
	nfq := b.Op(il.OpcodeFMul, fc, fq, b.FConst(-1))
	fr := b.Op(il.OpcodeFMad, fc, nfq, fb, fa)
	iq := b.Op(il.OpcodeFtoU, a.Class(), fq)

	cv := b.Op(il.OpcodeFGe, a.Class(), b.Op(il.OpcodeFAbs, fc, fr), fb)
	return op(b, il.OpcodeIAdd, iq, op(b, il.OpcodeIAnd, cv, b.IConst(1)))
}

// lowerSDiv32 divides magnitudes with the native unsigned divide and restores the sign.
func (l *Lowering) lowerSDiv32(b *il.Builder, instr *il.Instruction) il.VReg {
	return sdiv32(b, instr.Arg(1), instr.Arg(2))
}

func sdiv32(b *il.Builder, a, d il.VReg) il.VReg {
	thirtyOne := b.IConst(31)
	sa := op(b, il.OpcodeIShr, a, thirtyOne)
	sd := op(b, il.OpcodeIShr, d, thirtyOne)
	ua := op(b, il.OpcodeIXor, op(b, il.OpcodeIAdd, a, sa), sa)
	ud := op(b, il.OpcodeIXor, op(b, il.OpcodeIAdd, d, sd), sd)
	q := op(b, il.OpcodeUDiv32, ua, ud)
	s := op(b, il.OpcodeIXor, sa, sd)
	return op(b, il.OpcodeIXor, op(b, il.OpcodeIAdd, q, s), s)
}

func (l *Lowering) lowerUDiv64(b *il.Builder, instr *il.Instruction) il.VReg {
	q, _ := udivmod64(b, split(b, instr.Arg(1)), split(b, instr.Arg(2)))
	return join(b, q, instr.Def().Class())
}

func (l *Lowering) lowerSDiv64(b *il.Builder, instr *il.Instruction) il.VReg {
	return join(b, sdiv64(b, split(b, instr.Arg(1)), split(b, instr.Arg(2))), instr.Def().Class())
}

func sdiv64(b *il.Builder, a, d pair) pair {
	ua, sa := abs64(b, a)
	ud, sd := abs64(b, d)
	q, _ := udivmod64(b, ua, ud)
	return applySign64(b, q, op(b, il.OpcodeIXor, sa, sd))
}

// lowerRem computes a - (a / b) * b with the division strategy of the same width.
func (l *Lowering) lowerRem(signed bool) lowerFunc {
	return func(b *il.Builder, instr *il.Instruction) il.VReg {
		c := instr.Def().Class()
		a, d := instr.Arg(1), instr.Arg(2)
		switch bits := il.ElemBits(c); bits {
		case 8, 16:
			var q il.VReg
			if signed {
				a, d = signExtend(b, a, bits), signExtend(b, d, bits)
				q = sdiv24(b, a, d)
			} else {
				a, d = zeroExtend(b, a, bits), zeroExtend(b, d, bits)
				q = udiv24(b, a, d)
			}
			return op(b, il.OpcodeISub, a, op(b, il.OpcodeIMul, q, d))
		case 32:
			var q il.VReg
			if signed {
				q = sdiv32(b, a, d)
			} else {
				q = op(b, il.OpcodeUDiv32, a, d)
			}
			return op(b, il.OpcodeISub, a, op(b, il.OpcodeIMul, q, d))
		default:
			x, y := split(b, a), split(b, d)
			var q pair
			if signed {
				q = sdiv64(b, x, y)
			} else {
				q, _ = udivmod64(b, x, y)
			}
			return join(b, sub64(b, x, mul64(b, q, y)), c)
		}
	}
}
