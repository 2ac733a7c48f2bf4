package backend

import "github.com/tetratelabs/amdil/internal/il"

// pair is a 64-bit value held as its 32-bit halves. For two-element vectors each half is a
// v2i32 holding that half of both elements.
type pair struct {
	lo, hi il.VReg
}

func (p pair) class() il.RegClass { return p.lo.Class() }

// op emits a 32-bit lane-wise native whose class follows the widest source, so that scalar
// constants broadcast against vectors.
func op(b *il.Builder, opcode il.Opcode, srcs ...il.VReg) il.VReg {
	c := srcs[0].Class()
	for _, s := range srcs[1:] {
		if il.LaneCount(s.Class()) > il.LaneCount(c) {
			c = s.Class()
		}
	}
	return b.Op(opcode, c, srcs...)
}

// split extracts the halves of a 64-bit element value.
func split(b *il.Builder, v il.VReg) pair {
	c := v.Class()
	hc := il.HalfClass(c)
	if il.IsFloat(c) {
		return pair{lo: b.Op(il.OpcodeDLo, hc, v), hi: b.Op(il.OpcodeDHi, hc, v)}
	}
	return pair{lo: b.Op(il.OpcodeLLo, hc, v), hi: b.Op(il.OpcodeLHi, hc, v)}
}

// join assembles halves into a register of the 64-bit element class c.
func join(b *il.Builder, p pair, c il.RegClass) il.VReg {
	if il.IsFloat(c) {
		return b.Op(il.OpcodeDCreate, c, p.lo, p.hi)
	}
	return b.Op(il.OpcodeLCreate, c, p.lo, p.hi)
}

func constPair(b *il.Builder, v uint64) pair {
	return pair{lo: b.IConst(uint32(v)), hi: b.IConst(uint32(v >> 32))}
}

func add64(b *il.Builder, x, y pair) pair {
	lo := op(b, il.OpcodeIAdd, x.lo, y.lo)
	hi := op(b, il.OpcodeIAdd, x.hi, y.hi)
	carry := b.Op(il.OpcodeINegate, lo.Class(), op(b, il.OpcodeULt, lo, y.lo))
	return pair{lo: lo, hi: op(b, il.OpcodeIAdd, hi, carry)}
}

func sub64(b *il.Builder, x, y pair) pair {
	lo := op(b, il.OpcodeISub, x.lo, y.lo)
	borrow := op(b, il.OpcodeULt, x.lo, y.lo)
	hi := op(b, il.OpcodeISub, x.hi, y.hi)
	return pair{lo: lo, hi: op(b, il.OpcodeIAdd, hi, borrow)}
}

func mul64(b *il.Builder, x, y pair) pair {
	lo := op(b, il.OpcodeUMul, x.lo, y.lo)
	hi := op(b, il.OpcodeUMulHigh, x.lo, y.lo)
	hi = op(b, il.OpcodeIAdd, hi, op(b, il.OpcodeUMul, x.hi, y.lo))
	hi = op(b, il.OpcodeIAdd, hi, op(b, il.OpcodeUMul, x.lo, y.hi))
	return pair{lo: lo, hi: hi}
}

func xor64(b *il.Builder, x pair, m il.VReg) pair {
	return pair{lo: op(b, il.OpcodeIXor, x.lo, m), hi: op(b, il.OpcodeIXor, x.hi, m)}
}

// abs64 returns |x| and the sign mask of x.
func abs64(b *il.Builder, x pair) (pair, il.VReg) {
	s := op(b, il.OpcodeIShr, x.hi, b.IConst(31))
	return sub64(b, xor64(b, x, s), pair{lo: s, hi: s}), s
}

// applySign64 negates x where the mask s is all ones.
func applySign64(b *il.Builder, x pair, s il.VReg) pair {
	return sub64(b, xor64(b, x, s), pair{lo: s, hi: s})
}

func eq64(b *il.Builder, x, y pair) il.VReg {
	return op(b, il.OpcodeIAnd, op(b, il.OpcodeIEq, x.lo, y.lo), op(b, il.OpcodeIEq, x.hi, y.hi))
}

func ult64(b *il.Builder, x, y pair) il.VReg {
	hiEq := op(b, il.OpcodeIEq, x.hi, y.hi)
	loLt := op(b, il.OpcodeULt, x.lo, y.lo)
	return op(b, il.OpcodeIOr, op(b, il.OpcodeULt, x.hi, y.hi), op(b, il.OpcodeIAnd, hiEq, loLt))
}

func slt64(b *il.Builder, x, y pair) il.VReg {
	hiEq := op(b, il.OpcodeIEq, x.hi, y.hi)
	loLt := op(b, il.OpcodeULt, x.lo, y.lo)
	return op(b, il.OpcodeIOr, op(b, il.OpcodeILt, x.hi, y.hi), op(b, il.OpcodeIAnd, hiEq, loLt))
}

// select64 picks t where the mask m is non-zero and f elsewhere.
func select64(b *il.Builder, m il.VReg, t, f pair) pair {
	return pair{
		lo: op(b, il.OpcodeCmovLogical, m, t.lo, f.lo),
		hi: op(b, il.OpcodeCmovLogical, m, t.hi, f.hi),
	}
}

// shl64 shifts x left by n, which must lie in [0, 63].
func shl64(b *il.Builder, x pair, n il.VReg) pair {
	m := op(b, il.OpcodeIAnd, n, b.IConst(31))
	inv := op(b, il.OpcodeIXor, m, b.IConst(31))
	big := op(b, il.OpcodeINe, op(b, il.OpcodeIAnd, n, b.IConst(32)), b.IConst(0))
	lo := op(b, il.OpcodeIShl, x.lo, m)
	carried := op(b, il.OpcodeUShr, op(b, il.OpcodeUShr, x.lo, b.IConst(1)), inv)
	hi := op(b, il.OpcodeIOr, op(b, il.OpcodeIShl, x.hi, m), carried)
	return pair{
		lo: op(b, il.OpcodeCmovLogical, big, b.IConst(0), lo),
		hi: op(b, il.OpcodeCmovLogical, big, lo, hi),
	}
}

// ushr64 shifts x right logically by n, which must lie in [0, 63].
func ushr64(b *il.Builder, x pair, n il.VReg) pair {
	m := op(b, il.OpcodeIAnd, n, b.IConst(31))
	inv := op(b, il.OpcodeIXor, m, b.IConst(31))
	big := op(b, il.OpcodeINe, op(b, il.OpcodeIAnd, n, b.IConst(32)), b.IConst(0))
	hi := op(b, il.OpcodeUShr, x.hi, m)
	carried := op(b, il.OpcodeIShl, op(b, il.OpcodeIShl, x.hi, b.IConst(1)), inv)
	lo := op(b, il.OpcodeIOr, op(b, il.OpcodeUShr, x.lo, m), carried)
	return pair{
		lo: op(b, il.OpcodeCmovLogical, big, hi, lo),
		hi: op(b, il.OpcodeCmovLogical, big, b.IConst(0), hi),
	}
}

// udivmod64 is a branch-free restoring long division: the dividend is shifted out of n one bit
// per step while quotient bits are shifted in behind it.
func udivmod64(b *il.Builder, n, d pair) (q, r pair) {
	one, thirtyOne := b.IConst(1), b.IConst(31)
	zero := b.IConstOf(n.class(), 0)
	r = pair{lo: zero, hi: zero}
	for i := 0; i < 64; i++ {
		r.hi = op(b, il.OpcodeIOr, op(b, il.OpcodeIShl, r.hi, one), op(b, il.OpcodeUShr, r.lo, thirtyOne))
		r.lo = op(b, il.OpcodeIOr, op(b, il.OpcodeIShl, r.lo, one), op(b, il.OpcodeUShr, n.hi, thirtyOne))
		n.hi = op(b, il.OpcodeIOr, op(b, il.OpcodeIShl, n.hi, one), op(b, il.OpcodeUShr, n.lo, thirtyOne))
		n.lo = op(b, il.OpcodeIShl, n.lo, one)

		lt := ult64(b, r, d)
		r = select64(b, lt, r, sub64(b, r, d))
		n.lo = op(b, il.OpcodeIOr, n.lo, op(b, il.OpcodeIAdd, lt, one))
	}
	return n, r
}
