package backend

import (
	"math"

	"github.com/tetratelabs/amdil/internal/il"
)

const (
	// doubleHiTwo52 is the high word of 2^52; its low word holds a 32-bit integer exactly.
	doubleHiTwo52 = 0x43300000
	// doubleHiTwo84 is the high word of 2^84; its low word holds a 32-bit integer scaled by 2^32.
	doubleHiTwo84 = 0x45300000
	signBit       = 0x80000000
)

var (
	two32    = math.Ldexp(1, 32)
	twoNeg32 = math.Ldexp(1, -32)
	two52    = math.Ldexp(1, 52)
	two84    = math.Ldexp(1, 84)
)

func (l *Lowering) lowerIntToF32(signed bool) lowerFunc {
	return func(b *il.Builder, instr *il.Instruction) il.VReg {
		x := instr.Arg(1)
		x = extend(b, x, il.ElemBits(x.Class()), signed)
		if signed {
			return b.Op(il.OpcodeItoF, instr.Def().Class(), x)
		}
		return b.Op(il.OpcodeUtoF, instr.Def().Class(), x)
	}
}

func (l *Lowering) lowerInt32ToF64(signed bool) lowerFunc {
	return func(b *il.Builder, instr *il.Instruction) il.VReg {
		x := instr.Arg(1)
		return l.int32ToF64(b, extend(b, x, il.ElemBits(x.Class()), signed), signed)
	}
}

func (l *Lowering) lowerF64ToInt32(signed bool) lowerFunc {
	return func(b *il.Builder, instr *il.Instruction) il.VReg {
		d := instr.Arg(1)
		if l.tier == tierNative {
			if signed {
				return b.Op(il.OpcodeDtoI, instr.Def().Class(), d)
			}
			return b.Op(il.OpcodeDtoU, instr.Def().Class(), d)
		}
		return l.f64ToInt64(b, d, signed).lo
	}
}

func (l *Lowering) lowerFloatToI64(signed bool) lowerFunc {
	return func(b *il.Builder, instr *il.Instruction) il.VReg {
		d := instr.Arg(1)
		if il.ElemBits(d.Class()) == 32 {
			d = b.Op(il.OpcodeFtoD, il.FloatClass(d.Class(), 64), d)
		}
		return join(b, l.f64ToInt64(b, d, signed), instr.Def().Class())
	}
}

func (l *Lowering) lowerI64ToF64(signed bool) lowerFunc {
	return func(b *il.Builder, instr *il.Instruction) il.VReg {
		return l.int64ToF64(b, split(b, instr.Arg(1)), signed)
	}
}

// lowerI64ToF32 converts through double precision. Magnitudes of 2^53 and above are first
// rounded to odd at bit 11 so that the exact double conversion followed by d2f rounds once.
func (l *Lowering) lowerI64ToF32(signed bool) lowerFunc {
	return func(b *il.Builder, instr *il.Instruction) il.VReg {
		p := split(b, instr.Arg(1))
		var s il.VReg
		if signed {
			p, s = abs64(b, p)
		}
		d := l.u64ToF64(b, roundToOdd(b, p))
		if signed {
			d = applySignF64(b, d, s)
		}
		return b.Op(il.OpcodeDtoF, instr.Def().Class(), d)
	}
}

func roundToOdd(b *il.Builder, p pair) pair {
	big := op(b, il.OpcodeUGe, p.hi, b.IConst(0x200000))
	t := op(b, il.OpcodeIAnd, p.lo, b.IConst(0x7ff))
	sticky := op(b, il.OpcodeIOr, p.lo, op(b, il.OpcodeIAdd, t, b.IConst(0x7ff)))
	rounded := op(b, il.OpcodeIAnd, sticky, b.IConst(0xfffff800))
	return pair{lo: op(b, il.OpcodeCmovLogical, big, rounded, p.lo), hi: p.hi}
}

// applySignF64 ORs the sign mask s into the sign bit of d.
func applySignF64(b *il.Builder, d, s il.VReg) il.VReg {
	p := split(b, d)
	p.hi = op(b, il.OpcodeIOr, p.hi, op(b, il.OpcodeIAnd, s, b.IConst(signBit)))
	return join(b, p, d.Class())
}

func (l *Lowering) int32ToF64(b *il.Builder, x il.VReg, signed bool) il.VReg {
	dc := il.FloatClass(x.Class(), 64)
	switch l.tier {
	case tierNative:
		if signed {
			return b.Op(il.OpcodeItoD, dc, x)
		}
		return b.Op(il.OpcodeUtoD, dc, x)
	case tierBias:
		bias := two52
		if signed {
			x = op(b, il.OpcodeIXor, x, b.IConst(signBit))
			bias += math.Ldexp(1, 31)
		}
		d := join(b, pair{lo: x, hi: b.IConstOf(x.Class(), doubleHiTwo52)}, dc)
		return b.Op(il.OpcodeDSub, dc, d, b.DConst(bias))
	default:
		if !signed {
			return l.u32ToF64Manual(b, x)
		}
		s := op(b, il.OpcodeIShr, x, b.IConst(31))
		abs := op(b, il.OpcodeISub, op(b, il.OpcodeIXor, x, s), s)
		return applySignF64(b, l.u32ToF64Manual(b, abs), s)
	}
}

// u32ToF64Manual normalizes x with a leading zero count and assembles the double directly.
// Every 32-bit integer is exact in double precision so no rounding is needed.
func (l *Lowering) u32ToF64Manual(b *il.Builder, x il.VReg) il.VReg {
	c := l.clz32(b, x)
	exp := b.Op(il.OpcodeISub, x.Class(), b.IConst(1023+31), c)
	m := op(b, il.OpcodeIAnd, op(b, il.OpcodeIShl, x, c), b.IConst(0x7fffffff))
	lo := op(b, il.OpcodeIShl, m, b.IConst(21))
	hi := op(b, il.OpcodeIOr, op(b, il.OpcodeUShr, m, b.IConst(11)), op(b, il.OpcodeIShl, exp, b.IConst(20)))
	zero := op(b, il.OpcodeIEq, x, b.IConst(0))
	hi = op(b, il.OpcodeCmovLogical, zero, b.IConst(0), hi)
	return join(b, pair{lo: lo, hi: hi}, il.FloatClass(x.Class(), 64))
}

func (l *Lowering) int64ToF64(b *il.Builder, p pair, signed bool) il.VReg {
	if l.tier == tierNative {
		dc := il.FloatClass(p.class(), 64)
		var hi il.VReg
		if signed {
			hi = b.Op(il.OpcodeItoD, dc, p.hi)
		} else {
			hi = b.Op(il.OpcodeUtoD, dc, p.hi)
		}
		return b.Op(il.OpcodeDMad, dc, hi, b.DConst(two32), b.Op(il.OpcodeUtoD, dc, p.lo))
	}
	if !signed {
		return l.u64ToF64(b, p)
	}
	abs, s := abs64(b, p)
	return applySignF64(b, l.u64ToF64(b, abs), s)
}

func (l *Lowering) u64ToF64(b *il.Builder, p pair) il.VReg {
	dc := il.FloatClass(p.class(), 64)
	switch l.tier {
	case tierNative:
		hi := b.Op(il.OpcodeUtoD, dc, p.hi)
		return b.Op(il.OpcodeDMad, dc, hi, b.DConst(two32), b.Op(il.OpcodeUtoD, dc, p.lo))
	case tierBias:
		hi := join(b, pair{lo: p.hi, hi: b.IConstOf(p.class(), doubleHiTwo84)}, dc)
		hi = b.Op(il.OpcodeDSub, dc, hi, b.DConst(two84+two52))
		lo := join(b, pair{lo: p.lo, hi: b.IConstOf(p.class(), doubleHiTwo52)}, dc)
		return b.Op(il.OpcodeDAdd, dc, hi, lo)
	default:
		return l.u64ToF64Manual(b, p)
	}
}

// u64ToF64Manual normalizes p so that bit 63 is set, keeps the 52 bits below it as the
// mantissa and rounds the remaining 11 bits to nearest even. A carry out of the mantissa
// increments the exponent, which is the correctly rounded result.
func (l *Lowering) u64ToF64Manual(b *il.Builder, p pair) il.VReg {
	c := l.clz64(b, p)
	m := shl64(b, p, op(b, il.OpcodeIAnd, c, b.IConst(63)))
	exp := b.Op(il.OpcodeISub, c.Class(), b.IConst(1023+63), c)

	t := op(b, il.OpcodeIAnd, m.lo, b.IConst(0x7ff))
	mhi := op(b, il.OpcodeIAnd, m.hi, b.IConst(0x7fffffff))
	lo := op(b, il.OpcodeIOr, op(b, il.OpcodeUShr, m.lo, b.IConst(11)), op(b, il.OpcodeIShl, mhi, b.IConst(21)))
	hi := op(b, il.OpcodeIOr, op(b, il.OpcodeUShr, mhi, b.IConst(11)), op(b, il.OpcodeIShl, exp, b.IConst(20)))

	half := b.IConst(0x400)
	above := b.Op(il.OpcodeULt, t.Class(), half, t)
	tie := op(b, il.OpcodeIEq, t, half)
	odd := op(b, il.OpcodeINegate, op(b, il.OpcodeIAnd, lo, b.IConst(1)))
	up := op(b, il.OpcodeIAnd, op(b, il.OpcodeIOr, above, op(b, il.OpcodeIAnd, tie, odd)), b.IConst(1))
	r := add64(b, pair{lo: lo, hi: hi}, pair{lo: up, hi: b.IConstOf(up.Class(), 0)})

	zero := op(b, il.OpcodeIEq, op(b, il.OpcodeIOr, p.lo, p.hi), b.IConst(0))
	r = select64(b, zero, pair{lo: b.IConst(0), hi: b.IConst(0)}, r)
	return join(b, r, il.FloatClass(p.class(), 64))
}

func (l *Lowering) f64ToInt64(b *il.Builder, d il.VReg, signed bool) pair {
	if !signed {
		return l.f64ToU64(b, d)
	}
	p := split(b, d)
	s := op(b, il.OpcodeIShr, p.hi, b.IConst(31))
	abs := join(b, pair{lo: p.lo, hi: op(b, il.OpcodeIAnd, p.hi, b.IConst(0x7fffffff))}, d.Class())
	return applySign64(b, l.f64ToU64(b, abs), s)
}

// f64ToU64 truncates a non-negative double toward zero.
func (l *Lowering) f64ToU64(b *il.Builder, d il.VReg) pair {
	if l.tier == tierNative {
		hc := il.HalfClass(d.Class())
		t := b.Op(il.OpcodeDTrunc, d.Class(), d)
		hf := b.Op(il.OpcodeDTrunc, d.Class(), b.Op(il.OpcodeDMul, d.Class(), t, b.DConst(twoNeg32)))
		lf := b.Op(il.OpcodeDMad, d.Class(), hf, b.DConst(-two32), t)
		return pair{lo: b.Op(il.OpcodeDtoU, hc, lf), hi: b.Op(il.OpcodeDtoU, hc, hf)}
	}

	p := split(b, d)
	exp := op(b, il.OpcodeIAnd, op(b, il.OpcodeUShr, p.hi, b.IConst(20)), b.IConst(0x7ff))
	m := pair{lo: p.lo, hi: op(b, il.OpcodeIOr, op(b, il.OpcodeIAnd, p.hi, b.IConst(0xfffff)), b.IConst(0x100000))}

	// The integer is m * 2^(exp-1075).
	bias := b.IConst(1075)
	left := shl64(b, m, op(b, il.OpcodeIAnd, op(b, il.OpcodeISub, exp, bias), b.IConst(63)))
	right := ushr64(b, m, op(b, il.OpcodeIAnd, b.Op(il.OpcodeISub, exp.Class(), bias, exp), b.IConst(63)))
	r := select64(b, op(b, il.OpcodeIGe, exp, bias), left, right)

	fraction := op(b, il.OpcodeILt, exp, b.IConst(1023))
	return select64(b, fraction, pair{lo: b.IConst(0), hi: b.IConst(0)}, r)
}
