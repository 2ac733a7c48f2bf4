package backend

import (
	"github.com/tetratelabs/amdil/internal/device"
	"github.com/tetratelabs/amdil/internal/il"
)

func (l *Lowering) lowerCtlz(b *il.Builder, instr *il.Instruction) il.VReg {
	x := instr.Arg(1)
	switch il.ElemBits(x.Class()) {
	case 16:
		x16 := zeroExtend(b, x, 16)
		if l.dev.Generation() == device.GenerationHD4XXX {
			return clz16(b, x16)
		}
		return op(b, il.OpcodeISub, l.clz32(b, x16), b.IConst(16))
	case 32:
		return l.clz32(b, x)
	default:
		p := split(b, x)
		n := l.clz64(b, p)
		return join(b, pair{lo: n, hi: b.IConstOf(n.Class(), 0)}, instr.Def().Class())
	}
}

// clz32 counts the leading zeros of each 32-bit lane, returning 32 for zero.
func (l *Lowering) clz32(b *il.Builder, x il.VReg) il.VReg {
	switch gen := l.dev.Generation(); gen {
	case device.GenerationHD5XXX, device.GenerationHD6XXX:
		z := b.Op(il.OpcodeFfbHi, x.Class(), x)
		neg := op(b, il.OpcodeILt, z, b.IConst(0))
		return op(b, il.OpcodeCmovLogical, neg, b.IConst(32), z)
	case device.GenerationHD4XXX:
		hi := clz16(b, op(b, il.OpcodeUShr, x, b.IConst(16)))
		lo := clz16(b, op(b, il.OpcodeIAnd, x, b.IConst(0xffff)))
		full := op(b, il.OpcodeIEq, hi, b.IConst(16))
		return op(b, il.OpcodeCmovLogical, full, op(b, il.OpcodeIAdd, lo, b.IConst(16)), hi)
	default:
		panic("BUG: no count leading zeros for generation " + gen.String())
	}
}

// clz16 counts the leading zeros of 16-bit values without a find-first-bit instruction. OR-ing
// v into the mantissa of 1.0 and subtracting 1.0 leaves v * 2^-23, whose biased exponent is
// floor(log2(v)) + 104.
func clz16(b *il.Builder, v il.VReg) il.VReg {
	fc := il.FloatClass(v.Class(), 32)
	t := b.Op(il.OpcodeFAdd, fc, op(b, il.OpcodeIOr, v, b.IConst(0x3f800000)), b.FConst(-1))
	e := op(b, il.OpcodeIAnd, b.Op(il.OpcodeUShr, v.Class(), t, b.IConst(23)), b.IConst(0xff))
	n := b.Op(il.OpcodeISub, v.Class(), b.IConst(103+16), e)
	nonZero := op(b, il.OpcodeINe, v, b.IConst(0))
	return op(b, il.OpcodeCmovLogical, nonZero, n, b.IConst(16))
}

// clz64 counts the leading zeros of 64-bit halves, returning 64 for zero.
func (l *Lowering) clz64(b *il.Builder, p pair) il.VReg {
	hiZero := op(b, il.OpcodeIEq, p.hi, b.IConst(0))
	lo := op(b, il.OpcodeIAdd, l.clz32(b, p.lo), b.IConst(32))
	return op(b, il.OpcodeCmovLogical, hiZero, lo, l.clz32(b, p.hi))
}
