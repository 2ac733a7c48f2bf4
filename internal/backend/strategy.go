package backend

import (
	"fmt"

	"github.com/tetratelabs/amdil/internal/device"
	"github.com/tetratelabs/amdil/internal/il"
)

// kind is the element type a strategy is keyed on. Element counts do not matter: every
// formula is written in lane-wise natives and works unchanged on vectors.
type kind byte

const (
	kindInvalid kind = iota
	kindI8
	kindI16
	kindI32
	kindI64
	kindF32
	kindF64
)

func (k kind) String() string {
	switch k {
	case kindI8:
		return "i8"
	case kindI16:
		return "i16"
	case kindI32:
		return "i32"
	case kindI64:
		return "i64"
	case kindF32:
		return "f32"
	case kindF64:
		return "f64"
	default:
		return "invalid"
	}
}

func kindOf(c il.RegClass) kind {
	switch {
	case il.IsFloat(c) && il.ElemBits(c) == 32:
		return kindF32
	case il.IsFloat(c):
		return kindF64
	}
	switch il.ElemBits(c) {
	case 8:
		return kindI8
	case 16:
		return kindI16
	case 32:
		return kindI32
	default:
		return kindI64
	}
}

type strategyKey struct {
	op       il.Opcode
	dst, src kind
}

func (k strategyKey) String() string {
	return fmt.Sprintf("%s(%s<-%s)", k.op, k.dst, k.src)
}

// keyOf returns the key of a pseudo instruction. Comparisons and CTLZ are keyed on their source.
func keyOf(instr *il.Instruction) strategyKey {
	op := instr.Opcode()
	src := kindOf(instr.Arg(1).Class())
	switch op {
	case il.OpcodeSetCC, il.OpcodeSelectCC, il.OpcodeCtlz:
		return strategyKey{op: op, dst: src, src: src}
	}
	return strategyKey{op: op, dst: kindOf(instr.Def().Class()), src: src}
}

type lowerFunc func(b *il.Builder, instr *il.Instruction) il.VReg

type strategy struct {
	name string
	fn   lowerFunc
}

// conversionTier selects the family of int <-> double formulas.
type conversionTier byte

const (
	// tierNative has hardware double conversions.
	tierNative conversionTier = iota + 1
	// tierBias uses exponent bias constants.
	tierBias
	// tierManual assembles IEEE-754 bit patterns by hand.
	tierManual
)

func (t conversionTier) String() string {
	switch t {
	case tierNative:
		return "native"
	case tierBias:
		return "bias"
	case tierManual:
		return "manual"
	default:
		return "invalid"
	}
}

func conversionTierOf(dev device.Capabilities) conversionTier {
	switch {
	case hasNativeDoubleConversions(dev):
		return tierNative
	case dev.CALVersion() >= device.CALVersionSC135:
		return tierBias
	default:
		return tierManual
	}
}

func hasNativeDoubleConversions(dev device.Capabilities) bool {
	return dev.Generation() >= device.GenerationHD6XXX && dev.UsesHardware(device.CapabilityDoubleOps)
}

var (
	subWordKinds = []kind{kindI8, kindI16}
	wordKinds    = []kind{kindI8, kindI16, kindI32}
	intKinds     = []kind{kindI8, kindI16, kindI32, kindI64}
	floatKinds   = []kind{kindF32, kindF64}
)

func (l *Lowering) buildStrategies() map[strategyKey]strategy {
	t := map[strategyKey]strategy{}
	set := func(op il.Opcode, dst, src kind, name string, fn lowerFunc) {
		t[strategyKey{op: op, dst: dst, src: src}] = strategy{name: name, fn: fn}
	}
	longHW := l.dev.UsesHardware(device.CapabilityLongOps)

	for _, k := range wordKinds {
		set(il.OpcodeAdd, k, k, "native", l.native(il.OpcodeIAdd))
		set(il.OpcodeSub, k, k, "native", l.native(il.OpcodeISub))
		set(il.OpcodeMul, k, k, "native", l.native(il.OpcodeIMul))
	}
	// The low 8 or 16 bits of a product only depend on the low bits of the sources.
	if l.dev.UsesHardware(device.CapabilitySigned24BitOps) {
		for _, k := range subWordKinds {
			set(il.OpcodeMul, k, k, "mul24", l.native(il.OpcodeIMul24))
		}
	}
	if longHW {
		set(il.OpcodeAdd, kindI64, kindI64, "native", l.native(il.OpcodeI64Add))
		set(il.OpcodeSub, kindI64, kindI64, "native", l.native(il.OpcodeI64Sub))
	} else {
		set(il.OpcodeAdd, kindI64, kindI64, "halves_carry", l.lowerAdd64)
		set(il.OpcodeSub, kindI64, kindI64, "halves_borrow", l.lowerSub64)
	}
	set(il.OpcodeMul, kindI64, kindI64, "schoolbook", l.lowerMul64)

	for _, k := range subWordKinds {
		set(il.OpcodeSDiv, k, k, "float24", l.lowerSDiv24)
		set(il.OpcodeUDiv, k, k, "float24", l.lowerUDiv24)
	}
	set(il.OpcodeSDiv, kindI32, kindI32, "abs_udiv", l.lowerSDiv32)
	set(il.OpcodeUDiv, kindI32, kindI32, "native", l.native(il.OpcodeUDiv32))
	set(il.OpcodeSDiv, kindI64, kindI64, "long_division", l.lowerSDiv64)
	set(il.OpcodeUDiv, kindI64, kindI64, "long_division", l.lowerUDiv64)
	for _, k := range intKinds {
		set(il.OpcodeSRem, k, k, "sub_mul_div", l.lowerRem(true))
		set(il.OpcodeURem, k, k, "sub_mul_div", l.lowerRem(false))
	}

	tier := l.tier.String()
	for _, k := range wordKinds {
		set(il.OpcodeFPToSI, k, kindF32, "native", l.native(il.OpcodeFtoI))
		set(il.OpcodeFPToUI, k, kindF32, "native", l.native(il.OpcodeFtoU))
		set(il.OpcodeSIToFP, kindF32, k, "native", l.lowerIntToF32(true))
		set(il.OpcodeUIToFP, kindF32, k, "native", l.lowerIntToF32(false))
		set(il.OpcodeFPToSI, k, kindF64, tier, l.lowerF64ToInt32(true))
		set(il.OpcodeFPToUI, k, kindF64, tier, l.lowerF64ToInt32(false))
		set(il.OpcodeSIToFP, kindF64, k, tier, l.lowerInt32ToF64(true))
		set(il.OpcodeUIToFP, kindF64, k, tier, l.lowerInt32ToF64(false))
	}
	for _, f := range floatKinds {
		set(il.OpcodeFPToSI, kindI64, f, tier, l.lowerFloatToI64(true))
		set(il.OpcodeFPToUI, kindI64, f, tier, l.lowerFloatToI64(false))
	}
	set(il.OpcodeSIToFP, kindF64, kindI64, tier, l.lowerI64ToF64(true))
	set(il.OpcodeUIToFP, kindF64, kindI64, tier, l.lowerI64ToF64(false))
	set(il.OpcodeSIToFP, kindF32, kindI64, "round_to_odd_"+tier, l.lowerI64ToF32(true))
	set(il.OpcodeUIToFP, kindF32, kindI64, "round_to_odd_"+tier, l.lowerI64ToF32(false))

	switch gen := l.dev.Generation(); {
	case gen >= device.GenerationHD5XXX:
		for _, k := range []kind{kindI16, kindI32, kindI64} {
			set(il.OpcodeCtlz, k, k, "ffb_hi", l.lowerCtlz)
		}
	case gen == device.GenerationHD4XXX:
		for _, k := range []kind{kindI16, kindI32, kindI64} {
			set(il.OpcodeCtlz, k, k, "float_exponent", l.lowerCtlz)
		}
	}

	for _, k := range wordKinds {
		set(il.OpcodeSetCC, k, k, "compare", l.lowerSetCC)
		set(il.OpcodeSelectCC, k, k, "compare", l.lowerSelectCC)
	}
	cmp64 := "halves"
	if longHW {
		cmp64 = "native"
	}
	set(il.OpcodeSetCC, kindI64, kindI64, cmp64, l.lowerSetCC)
	set(il.OpcodeSelectCC, kindI64, kindI64, cmp64, l.lowerSelectCC)
	for _, k := range floatKinds {
		set(il.OpcodeSetCC, k, k, "compare", l.lowerSetCC)
		set(il.OpcodeSelectCC, k, k, "compare", l.lowerSelectCC)
	}
	return t
}

// native returns a strategy emitting op over the instruction's register sources.
func (l *Lowering) native(op il.Opcode) lowerFunc {
	return func(b *il.Builder, instr *il.Instruction) il.VReg {
		var srcs []il.VReg
		for i := 1; i < instr.NumOperands(); i++ {
			srcs = append(srcs, instr.Arg(i))
		}
		return b.Op(op, instr.Def().Class(), srcs...)
	}
}
