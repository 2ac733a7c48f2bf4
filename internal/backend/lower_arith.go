package backend

import "github.com/tetratelabs/amdil/internal/il"

func (l *Lowering) lowerAdd64(b *il.Builder, instr *il.Instruction) il.VReg {
	x, y := split(b, instr.Arg(1)), split(b, instr.Arg(2))
	return join(b, add64(b, x, y), instr.Def().Class())
}

func (l *Lowering) lowerSub64(b *il.Builder, instr *il.Instruction) il.VReg {
	x, y := split(b, instr.Arg(1)), split(b, instr.Arg(2))
	return join(b, sub64(b, x, y), instr.Def().Class())
}

// lowerMul64 never has a native form: the high half sums both cross products and the high
// word of the low product.
func (l *Lowering) lowerMul64(b *il.Builder, instr *il.Instruction) il.VReg {
	x, y := split(b, instr.Arg(1)), split(b, instr.Arg(2))
	return join(b, mul64(b, x, y), instr.Def().Class())
}

// signExtend sign extends the low bits of each 32-bit lane of x.
func signExtend(b *il.Builder, x il.VReg, bits int) il.VReg {
	if bits >= 32 {
		return x
	}
	sh := b.IConst(uint32(32 - bits))
	return op(b, il.OpcodeIShr, op(b, il.OpcodeIShl, x, sh), sh)
}

// zeroExtend clears all but the low bits of each 32-bit lane of x.
func zeroExtend(b *il.Builder, x il.VReg, bits int) il.VReg {
	if bits >= 32 {
		return x
	}
	return op(b, il.OpcodeIAnd, x, b.IConst(uint32(1)<<bits-1))
}

func extend(b *il.Builder, x il.VReg, bits int, signed bool) il.VReg {
	if signed {
		return signExtend(b, x, bits)
	}
	return zeroExtend(b, x, bits)
}
